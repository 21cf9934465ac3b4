// Package dashboard projects bot instance snapshots onto a set of named view regions
// and binds the play/pause/stop controls to the instance state.
package dashboard

import (
	"github.com/yourusername/titandash-console/internal/timer"
	"github.com/yourusername/titandash-console/internal/titandash"
)

// Region names one element of the dashboard owned by the projector.
type Region string

const (
	// Instance panel
	RegionInstanceLoader  Region = "instance.loader"
	RegionStatusIcon      Region = "instance.status_icon"
	RegionInstanceContent Region = "instance.content"
	RegionState           Region = "instance.state"
	RegionSession         Region = "instance.session"
	RegionStarted         Region = "instance.started"
	RegionCurrentFunction Region = "instance.current_function"

	// Variables table
	RegionVariablesTable      Region = "variables.table"
	RegionConfiguration       Region = "variables.configuration"
	RegionLogFile             Region = "variables.log_file"
	RegionCurrentStage        Region = "variables.current_stage"
	RegionNextArtifactUpgrade Region = "variables.next_artifact_upgrade"

	// Actions
	RegionActionsLoader  Region = "actions.loader"
	RegionActionsContent Region = "actions.content"
	RegionActionPlay     Region = "actions.play"
	RegionActionPause    Region = "actions.pause"
	RegionActionStop     Region = "actions.stop"

	// Configuration selector
	RegionConfigSelect Region = "config.select"

	// Queued functions
	RegionQueueInitial   Region = "queue.initial"
	RegionQueueContent   Region = "queue.content"
	RegionQueueFunctions Region = "queue.functions"
	RegionQueueTable     Region = "queue.table"

	// Prestiges
	RegionPrestigeTable        Region = "prestige.table"
	RegionPrestigeAvgDuration  Region = "prestige.avg_duration"
	RegionPrestigeAvgStage     Region = "prestige.avg_stage"
	RegionPrestigeThisSession  Region = "prestige.this_session"
	RegionPrestigeLastArtifact Region = "prestige.last_artifact"
)

// CountdownRegion returns the variables-table cell for a countdown key.
func CountdownRegion(key titandash.CountdownKey) Region {
	return Region("variables." + string(key))
}

// VariableRegions lists every variables-table cell reset when the instance stops.
func VariableRegions() []Region {
	regions := []Region{
		RegionConfiguration,
		RegionLogFile,
		RegionCurrentStage,
		RegionNextArtifactUpgrade,
	}
	for _, key := range titandash.CountdownKeys {
		regions = append(regions, CountdownRegion(key))
	}
	return regions
}

// Color is a semantic color; surfaces map it onto their palette.
type Color int

const (
	ColorNeutral Color = iota
	ColorSuccess
	ColorWarning
	ColorDanger
	ColorMuted
)

// Icon is a semantic glyph.
type Icon int

const (
	IconNone Icon = iota
	IconCheck
	IconPause
	IconTimes
	IconPlay
	IconStop
	IconPlus
	IconMinus
)

// StageView is the rendered form of the current stage cell.
type StageView struct {
	Stage     int
	Magnitude int
	Percent   string
	Color     Color
	Icon      Icon
}

// Control is the rendered form of one play/pause/stop affordance. A disabled control
// has a nil OnActivate.
type Control struct {
	Icon       Icon
	Color      Color
	Enabled    bool
	OnActivate func()
}

// Surface is the rendering target of the projector. Implementations must tolerate
// calls from the ingestion goroutine; labels returned by Label may also be written
// from timer goroutines.
type Surface interface {
	SetText(r Region, text string)
	SetLink(r Region, text, href string)
	SetStatus(r Region, icon Icon, color Color)
	SetStage(r Region, stage StageView)
	SetArtifact(r Region, title, image string)
	SetOpacity(r Region, opacity float64)
	SetVisible(r Region, visible bool)
	SetEnabled(r Region, enabled bool)
	ClearTable(r Region)
	Remove(r Region)
	SetControl(r Region, c Control)
	SelectConfig(name string)
	SelectedConfig() string
	Notify(message string)
	Label(r Region) timer.Label
}
