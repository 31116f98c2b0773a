package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"migrate", "ingest", "sources", "tag", "summarize", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "halal-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestIngestCommand_RequiredFlags(t *testing.T) {
	flag := ingestCmd.Flags().Lookup("csv")
	require.NotNil(t, flag, "ingest command should have --csv flag")
}

func TestTagCommand_Flags(t *testing.T) {
	flag := tagCmd.Flags().Lookup("model")
	require.NotNil(t, flag, "tag command should have --model flag")

	limitFlag := tagCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag, "tag command should have --limit flag")
	assert.Equal(t, "0", limitFlag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSourcesCommand_HasSubcommands(t *testing.T) {
	cmds := sourcesCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"places", "xref", "overrides"}
	for _, name := range expected {
		assert.True(t, names[name], "sources should have subcommand %q", name)
	}
}
