package tui

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/yourusername/titandash-console/internal/dashboard"
	"github.com/yourusername/titandash-console/internal/timer"
)

// Headless is a dashboard.Surface that logs region changes instead of drawing them.
// Controls cannot be activated without a terminal.
type Headless struct {
	logger zerolog.Logger

	mu       sync.Mutex
	configs  []ConfigOption
	selected string
}

var _ dashboard.Surface = (*Headless)(nil)

// NewHeadless creates a log surface
func NewHeadless(logger zerolog.Logger, configs []ConfigOption) *Headless {
	h := &Headless{
		logger:  logger.With().Str("component", "surface").Logger(),
		configs: configs,
	}
	if len(configs) > 0 {
		h.selected = configs[0].ID
	}
	return h
}

func (h *Headless) SetText(r dashboard.Region, text string) {
	h.logger.Debug().Str("region", string(r)).Str("text", text).Msg("Region updated")
}

func (h *Headless) SetLink(r dashboard.Region, text, href string) {
	h.logger.Debug().Str("region", string(r)).Str("text", text).Str("href", href).Msg("Region updated")
}

func (h *Headless) SetStatus(r dashboard.Region, icon dashboard.Icon, color dashboard.Color) {
	h.logger.Info().Str("region", string(r)).Str("status", iconGlyph(icon)).Str("color", colorTag(color)).Msg("Status changed")
}

func (h *Headless) SetStage(r dashboard.Region, stage dashboard.StageView) {
	h.logger.Debug().Str("region", string(r)).Str("stage", dashboard.FormatStage(stage)).Msg("Region updated")
}

func (h *Headless) SetArtifact(r dashboard.Region, title, image string) {
	h.logger.Debug().Str("region", string(r)).Str("title", title).Str("image", image).Msg("Region updated")
}

func (h *Headless) SetOpacity(r dashboard.Region, opacity float64) {
	h.logger.Trace().Str("region", string(r)).Float64("opacity", opacity).Msg("Opacity changed")
}

func (h *Headless) SetVisible(r dashboard.Region, visible bool) {
	h.logger.Trace().Str("region", string(r)).Bool("visible", visible).Msg("Visibility changed")
}

func (h *Headless) SetEnabled(r dashboard.Region, enabled bool) {
	h.logger.Trace().Str("region", string(r)).Bool("enabled", enabled).Msg("Enabled changed")
}

func (h *Headless) ClearTable(r dashboard.Region) {
	h.logger.Debug().Str("region", string(r)).Msg("Table cleared")
}

func (h *Headless) Remove(r dashboard.Region) {
	h.logger.Trace().Str("region", string(r)).Msg("Region removed")
}

func (h *Headless) SetControl(r dashboard.Region, c dashboard.Control) {
	h.logger.Debug().Str("region", string(r)).Bool("enabled", c.Enabled).Msg("Control bound")
}

// SelectConfig selects the option named name, if any
func (h *Headless) SelectConfig(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := lo.Find(h.configs, func(c ConfigOption) bool { return c.Name == name }); ok {
		h.selected = c.ID
	}
}

func (h *Headless) SelectedConfig() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selected
}

func (h *Headless) Notify(message string) {
	h.logger.Info().Msg(message)
}

func (h *Headless) Label(r dashboard.Region) timer.Label {
	return timer.LabelFunc(func(text string) {
		h.logger.Trace().Str("region", string(r)).Str("text", text).Msg("Timer tick")
	})
}
