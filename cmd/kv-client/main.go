package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamNilotpal/simplekv/internal/client"
	"github.com/iamNilotpal/simplekv/pkg/errors"
)

var version = "0.1.0"

const defaultAddr = "127.0.0.1:6666"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:           "kv-client",
		Short:         "Command-line client for kv-server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.NewBaseError(nil, errors.ErrorCodeInvalidInput, "a subcommand is required")
		},
	}

	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "server address (IP:PORT)")
	// Declared here so cobra's version handling picks up the -V shorthand.
	root.Flags().BoolP("version", "V", false, "print version information")

	root.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the value of a key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := client.Connect(addr)
				if err != nil {
					return err
				}
				defer func() { _ = c.Close() }()

				value, found, err := c.Get(args[0])
				if err != nil {
					return err
				}
				if !found {
					fmt.Println(errors.KeyNotFoundMessage)
					return nil
				}
				fmt.Println(value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store a key-value pair",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := client.Connect(addr)
				if err != nil {
					return err
				}
				defer func() { _ = c.Close() }()
				return c.Set(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "rm <key>",
			Short: "Remove a key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := client.Connect(addr)
				if err != nil {
					return err
				}
				defer func() { _ = c.Close() }()
				return c.Remove(args[0])
			},
		},
	)
	return root
}
