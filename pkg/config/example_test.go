package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := Load("../../examples/qrfetch.toml")
	require.NoError(t, err)
	assert.Equal(t, BackendDisk, cfg.Cache.Backend)
	assert.Equal(t, "marker", cfg.Scrape.Parser)
}
