// Package main is the entrypoint for the bizdash API server and its admin commands.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command. With no subcommand it serves the API.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bizdash",
		Short: "Business dashboard authentication API",
		Long: `bizdash serves the dashboard's registration, login and user listing API.
Configuration is read from the environment (DATABASE_URL, JWT_SECRET, ...).`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUsersCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
}
