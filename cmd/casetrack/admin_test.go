package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/freekieb7/casetrack/internal/audit"
	"github.com/freekieb7/casetrack/internal/kv"
	"github.com/freekieb7/casetrack/internal/user"
	"github.com/freekieb7/casetrack/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) *user.Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := kv.New(logger, kv.NewMemory())
	require.NoError(t, err)
	auditor := audit.NewAuditor(logger)
	directory, err := user.NewManager(context.Background(), logger, store, &auditor, validator.New(), nil)
	require.NoError(t, err)
	return directory
}

func TestSetAdmin(t *testing.T) {
	ctx := context.Background()
	directory := newTestDirectory(t)

	require.NoError(t, setAdmin(ctx, directory, "ann@example.com", true))
	ann, ok := directory.GetUserByEmail("ann@example.com").Get()
	require.True(t, ok)
	assert.Equal(t, user.RoleAdmin, ann.Role)
	assert.Equal(t, "ann@example.com", ann.Name)

	require.NoError(t, setAdmin(ctx, directory, "ANN@example.com", false))
	ann, _ = directory.GetUserByEmail("ann@example.com").Get()
	assert.Equal(t, user.RoleUser, ann.Role)
	assert.Len(t, directory.ListUsers(), 1)

	err := setAdmin(ctx, directory, "nobody@example.com", false)
	assert.ErrorContains(t, err, "no user with email")
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "admin", "seed"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
