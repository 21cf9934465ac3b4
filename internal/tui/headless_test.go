package tui

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/yourusername/titandash-console/internal/dashboard"
)

func TestHeadless(t *testing.T) {
	var buf bytes.Buffer
	h := NewHeadless(zerolog.New(&buf), []ConfigOption{{ID: "1", Name: "Default"}, {ID: "2", Name: "Farming"}})

	assert.Equal(t, "1", h.SelectedConfig())
	h.SelectConfig("Farming")
	assert.Equal(t, "2", h.SelectedConfig())
	h.SelectConfig("Missing")
	assert.Equal(t, "2", h.SelectedConfig())

	h.SetStatus(dashboard.RegionStatusIcon, dashboard.IconCheck, dashboard.ColorSuccess)
	h.Notify("STOP SIGNAL HAS BEEN SUCCESSFULLY SENT...")
	assert.Contains(t, buf.String(), `"color":"green"`)
	assert.Contains(t, buf.String(), "STOP SIGNAL HAS BEEN SUCCESSFULLY SENT...")
}
