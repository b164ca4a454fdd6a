package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/farmledger/internal/adapter/journal"
	"github.com/iho/farmledger/internal/usecase"
)

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}))

	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd(&bytes.Buffer{})

	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"reconcile"},
		{"withdrawal", "approve"},
		{"withdrawal", "reject"},
		{"withdrawal", "pending"},
		{"accrue", "once"},
		{"balance"},
		{"account", "create"},
		{"account", "adjust"},
		{"sponsor", "set"},
		{"sponsor", "chain"},
		{"ticks"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.NotEqual(t, root, cmd, "expected %v to resolve to a subcommand", path)
	}
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"approve needs id", []string{"withdrawal", "approve"}},
		{"sponsor set needs two ids", []string{"sponsor", "set", "a"}},
		{"balance takes one id", []string{"balance", "a", "b"}},
		{"reconcile takes at most one id", []string{"reconcile", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCmd(&bytes.Buffer{})
			root.SetArgs(tt.args)
			root.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }

			assert.Error(t, root.Execute())
		})
	}
}

func TestTicksReadsJournal(t *testing.T) {
	dir := t.TempDir()
	j, err := journal.NewTickJournal(dir)
	require.NoError(t, err)
	_, err = j.Append(&usecase.TickReport{Credited: 2})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	t.Setenv("CONFIG_FILE", "")
	require.NoError(t, os.Unsetenv("CONFIG_FILE"))
	t.Setenv("JOURNAL_DIR", filepath.Clean(dir))

	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs([]string{"ticks", "--limit", "5"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), `"credited": 2`)
}
