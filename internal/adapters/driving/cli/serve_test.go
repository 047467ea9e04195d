package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServeCmd_MissingConfigFile(t *testing.T) {
	defer func() { flagConfig = "" }()

	rootCmd.SetArgs([]string{"serve", "--config", filepath.Join(t.TempDir(), "missing.toml")})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	assert.Error(t, err)
}
