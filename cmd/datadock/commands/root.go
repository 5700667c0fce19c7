// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the datadock CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datadock",
		Short: "Deploy the data platform on single-node Kubernetes",
	}

	// Core commands
	cmd.AddCommand(Up())
	cmd.AddCommand(Verify())

	// Inspection commands
	cmd.AddCommand(Env())
	cmd.AddCommand(Secrets())

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
