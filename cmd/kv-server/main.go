package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iamNilotpal/simplekv/internal/engine"
	"github.com/iamNilotpal/simplekv/internal/engine/kvstore"
	"github.com/iamNilotpal/simplekv/internal/server"
	"github.com/iamNilotpal/simplekv/pkg/errors"
	"github.com/iamNilotpal/simplekv/pkg/logger"
	"github.com/iamNilotpal/simplekv/pkg/pool"
)

var version = "0.1.0"

const defaultAddr = "127.0.0.1:6666"

func main() {
	log := logger.New("kv-server")
	defer func() { _ = log.Sync() }()

	if err := newRootCommand(log).Execute(); err != nil {
		log.Errorw("Server failed", "error", err, "code", errors.GetErrorCode(err))
		os.Exit(1)
	}
}

func newRootCommand(log *zap.SugaredLogger) *cobra.Command {
	var addr, engineName string

	cmd := &cobra.Command{
		Use:           "kv-server",
		Short:         "Networked key/value store server",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(log, addr, engineName)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listening address (IP:PORT)")
	cmd.Flags().StringVar(&engineName, "engine", engine.NameKvStore, "storage engine (kvstore or sled)")
	// Declared here so cobra's version handling picks up the -V shorthand.
	cmd.Flags().BoolP("version", "V", false, "print version information")
	return cmd
}

func run(log *zap.SugaredLogger, addr, engineName string) error {
	if !engine.ValidName(engineName) {
		return errors.NewBaseError(
			nil, errors.ErrorCodeInvalidInput, fmt.Sprintf("unknown engine %q", engineName),
		)
	}

	dir, err := os.Getwd()
	if err != nil {
		return errors.NewBaseError(err, errors.ErrorCodeIO, "failed to resolve working directory")
	}

	current, err := engine.CurrentEngine(dir)
	if err != nil {
		return err
	}
	if current != "" && !engine.ValidName(current) {
		log.Warnw("Engine sentinel content is invalid, ignoring it", "content", current)
		current = ""
	}
	if current != "" && current != engineName {
		return errors.NewBaseError(
			nil, errors.ErrorCodeEngineMismatch,
			fmt.Sprintf("this directory is pinned to engine %q, refusing to start %q", current, engineName),
		)
	}

	log.Infow("Starting kv-server", "version", version, "engine", engineName, "addr", addr)

	if err := engine.RecordEngine(dir, engineName); err != nil {
		return err
	}

	switch engineName {
	case engine.NameKvStore:
		store, err := kvstore.Open(&kvstore.Config{Dir: dir, Logger: log})
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		workers, err := pool.New(runtime.NumCPU(), log)
		if err != nil {
			return err
		}
		defer workers.Close()

		return server.New(store, workers, log).Run(addr)

	case engine.NameSled:
		return errors.NewBaseError(
			nil, errors.ErrorCodeInvalidInput, "the sled engine is not implemented in this build",
		)

	default:
		return errors.NewBaseError(
			nil, errors.ErrorCodeInternal, fmt.Sprintf("unhandled engine %q", engineName),
		)
	}
}
