package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/bizdash/bizdash/internal/config"
	"github.com/bizdash/bizdash/internal/model"
	"github.com/bizdash/bizdash/internal/repository"
)

type userLister interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// NewUsersCmd creates the users command group.
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect registered users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print all users as JSON (without password hashes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}

			repo, err := repository.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return oops.Code("DIRECTORY_UNAVAILABLE").Errorf("%s", sanitizeError(err, cfg.DatabaseURL))
			}
			defer repo.Close()

			return writeUsers(cmd.Context(), cmd.OutOrStdout(), repo)
		},
	})

	return cmd
}

// writeUsers prints the public projection of every user as an indented JSON array.
func writeUsers(ctx context.Context, w io.Writer, users userLister) error {
	all, err := users.ListUsers(ctx)
	if err != nil {
		return oops.Code("DIRECTORY_UNAVAILABLE").With("operation", "list_all").Wrap(err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(model.ToPublicUsers(all))
}
