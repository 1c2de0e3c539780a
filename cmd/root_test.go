package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"import", "dedup", "plan", "pubs", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "visitplanner", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestImportCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"file", "list-type", "mode", "deadline", "follow-up-days", "priority"} {
		flag := importCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "import should have --%s flag", flagName)
	}
}

func TestPlanCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"days", "visits-per-day", "start", "home", "radius", "legacy-distance", "out"} {
		flag := planCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "plan should have --%s flag", flagName)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
