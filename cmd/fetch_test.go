package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetFetchCmd_Exists verifies the fetch command
// structure.
func TestGetFetchCmd_Exists(t *testing.T) {
	cmd := getFetchCmd()
	require.NotNil(t, cmd, "Fetch command should exist")
	assert.Equal(t, "fetch", cmd.Name(),
		"Command name should be fetch")
	assert.NotNil(t, cmd.RunE,
		"Fetch command should be runnable")
}

// TestGetFetchCmd_ForceFlag verifies the --force flag.
func TestGetFetchCmd_ForceFlag(t *testing.T) {
	cmd := getFetchCmd()

	force := cmd.Flags().Lookup("force")
	require.NotNil(t, force, "--force flag should exist")
	assert.Equal(t, "f", force.Shorthand)
	assert.Equal(t, "false", force.DefValue,
		"an existing database should be reused by default")
}

// TestFetchHelp verifies the help text reaches the user
// without triggering the bootstrap.
func TestFetchHelp(t *testing.T) {
	cmd := getRootCmd()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"fetch", "--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	helpText := buf.String()
	assert.Contains(t, helpText, "NCBI",
		"Help should name the data source")
	assert.Contains(t, helpText, "--force",
		"Help should document the force flag")
}
