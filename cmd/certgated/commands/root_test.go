package commands

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigFilePrefersFlag(t *testing.T) {
	old := cfgFile
	defer func() { cfgFile = old }()

	cfgFile = "/tmp/certgate-test.yaml"
	assert.Equal(t, "/tmp/certgate-test.yaml", GetConfigFile())
}

func TestGetConfigFileFallsBackToSystemDefault(t *testing.T) {
	old := cfgFile
	defer func() { cfgFile = old }()
	cfgFile = ""

	got := GetConfigFile()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		assert.Equal(t, defaultConfigPath, got)
	} else {
		assert.Empty(t, got, "no flag and no system file means env and defaults only")
	}
}
