package realtime

import (
	"os"
	"testing"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestVersionGate(t *testing.T) {
	var g versionGate

	assert.True(t, g.observe(1, 1), "first version passes")
	assert.True(t, g.observe(1, 2), "newer version passes")
	assert.False(t, g.observe(1, 2), "repeated version is dropped")
	assert.False(t, g.observe(1, 1), "stale version is dropped")
	assert.True(t, g.observe(1, 7), "gaps are fine, only ordering matters")

	// players are gated independently
	assert.True(t, g.observe(2, 1))
	assert.False(t, g.observe(2, 1))
	assert.True(t, g.observe(1, 8))
}

func TestHub_PublishRecordsVersion(t *testing.T) {
	h := NewHub()

	// even with no connections a publish advances the gate, so a later
	// stale write for the same player cannot sneak through
	h.PublishProfile(&models.Player{ID: 1, Version: 5})

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.False(t, h.gate.observe(1, 5))
	assert.True(t, h.gate.observe(1, 6))
}
