package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdash/bizdash/internal/errutil"
	"github.com/bizdash/bizdash/internal/model"
	"github.com/bizdash/bizdash/internal/testutil"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "users"})

	migrate, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", migrate.Name())

	list, _, err := root.Find([]string{"users", "list"})
	require.NoError(t, err)
	assert.Equal(t, "list", list.Name())
}

func TestRootCmd_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	root := NewRootCmd()
	root.SetArgs([]string{"migrate", "up"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestRunMigration(t *testing.T) {
	prev := migrations["up"]
	t.Cleanup(func() { migrations["up"] = prev })

	dbURL := "postgres://app:s3cret@db/bizdash"

	var gotURL string
	migrations["up"] = func(_ context.Context, url string) error {
		gotURL = url
		return nil
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, runMigration(cmd, "up", dbURL))
	assert.Equal(t, dbURL, gotURL)
	assert.Contains(t, out.String(), "migrate up completed")
	assert.NotContains(t, out.String(), "s3cret")

	migrations["up"] = func(context.Context, string) error {
		return errors.New("open " + dbURL + ": refused")
	}
	err := runMigration(cmd, "up", dbURL)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "s3cret")
	errutil.AssertErrorCode(t, err, "MIGRATION_FAILED")

	err = runMigration(cmd, "sideways", dbURL)
	require.Error(t, err)
}

type failingLister struct{}

func (failingLister) ListUsers(context.Context) ([]*model.User, error) {
	return nil, errors.New("connection reset")
}

func TestWriteUsers(t *testing.T) {
	ctx := context.Background()
	dir := testutil.NewMemoryDirectory()
	_, err := dir.CreateUser(ctx, "Alice", "alice@x.com", "$2a$04$hash")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeUsers(ctx, &out, dir))
	assert.NotContains(t, out.String(), "$2a$04$hash")

	var users []model.PublicUser
	require.NoError(t, json.Unmarshal(out.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "alice@x.com", users[0].Email)

	out.Reset()
	require.NoError(t, writeUsers(ctx, &out, testutil.NewMemoryDirectory()))
	assert.JSONEq(t, "[]", out.String())

	err = writeUsers(ctx, &out, failingLister{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DIRECTORY_UNAVAILABLE")
}
