package main

import (
	"path/filepath"
	"testing"

	"github.com/DedS3t/monopoly-engine/platform/config"
	"github.com/stretchr/testify/assert"
)

func TestRun_ReturnsSetupErrors(t *testing.T) {
	err := run(config.Config{
		PlayerCount:     2,
		StartingBalance: 1500,
		BoardPath:       filepath.Join(t.TempDir(), "missing.json"),
	})
	assert.Error(t, err)

	err = run(config.Config{PlayerCount: 1, StartingBalance: 1500})
	assert.ErrorContains(t, err, "create table")
}
