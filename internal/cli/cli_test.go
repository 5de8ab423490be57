package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/roster/internal/controller"
)

// run executes the root command and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestShellSession(t *testing.T) {
	script := strings.Join([]string{
		"add",
		"Ted",
		"add",
		"Anna",
		"edit 2",
		"Theodore",
		"delete 1",
		"family",
		"families",
		"edit 9",
		"bogus",
		"quit",
	}, "\n") + "\n"

	out, err := run(t, script, "--backend", "memory", "shell")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "shell_session", []byte(out))
}

func TestShellEndOfInput(t *testing.T) {
	out, err := run(t, "add\n", "--backend", "memory", "shell")
	require.NoError(t, err)

	// Input ran out at the name prompt, so nothing was added.
	assert.NotContains(t, out, "1. ")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestOneShotCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "roster.db")

	out, err := run(t, "", "--db", db, "list")
	require.NoError(t, err)
	assert.Equal(t, "(no people)\n", out)

	out, err = run(t, "", "--db", db, "add", "Ted")
	require.NoError(t, err)
	assert.Equal(t, "1. Ted\n", out)

	out, err = run(t, "", "--db", db, "add", "Anna")
	require.NoError(t, err)
	assert.Equal(t, "1. Anna\n2. Ted\n", out)

	out, err = run(t, "", "--db", db, "edit", "2", "Theodore")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "1. Anna\n2. Theodore\n"), out)

	out, err = run(t, "", "--db", db, "delete", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "1. Theodore\n"), out)

	_, err = run(t, "", "--db", db, "family-demo")
	require.NoError(t, err)

	out, err = run(t, "", "--db", db, "families")
	require.NoError(t, err)
	assert.Equal(t, "Abc Family: Maggie\n", out)

	out, err = run(t, "", "--db", db, "list")
	require.NoError(t, err)
	assert.Equal(t, "1. Maggie\n2. Theodore\n", out)
}

func TestRowErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "roster.db")

	_, err := run(t, "", "--db", db, "delete", "5")
	assert.ErrorIs(t, err, controller.ErrNoSuchRow)

	_, err = run(t, "", "--db", db, "edit", "zero", "x")
	assert.ErrorContains(t, err, "invalid row")
}

func TestInvalidBackend(t *testing.T) {
	_, err := run(t, "", "--backend", "postgres", "list")
	assert.ErrorContains(t, err, "unknown backend")
}

func TestFamiliesEmpty(t *testing.T) {
	out, err := run(t, "", "--backend", "memory", "families")
	require.NoError(t, err)
	assert.Equal(t, "(no families)\n", out)
}
