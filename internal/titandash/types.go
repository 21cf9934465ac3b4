package titandash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// State is the lifecycle state of a bot instance
type State string

const (
	StateRunning State = "RUNNING"
	StatePaused  State = "PAUSED"
	StateStopped State = "STOPPED"
)

// Signal is a control signal understood by the signal endpoint
type Signal string

const (
	SignalPlay  Signal = "PLAY"
	SignalPause Signal = "PAUSE"
	SignalStop  Signal = "STOP"
)

// NotAvailable is the server's placeholder for missing values
const NotAvailable = "N/A"

// Snapshot is one full state update describing the monitored instance
type Snapshot struct {
	State               State           `json:"state"`
	Session             Session         `json:"session"`
	Started             Instant         `json:"started"`
	CurrentFunction     *string         `json:"current_function"`
	LogFile             string          `json:"log_file"`
	Configuration       Configuration   `json:"configuration"`
	NextArtifactUpgrade ArtifactUpgrade `json:"next_artifact_upgrade"`
	CurrentStage        Stage           `json:"current_stage"`

	NextActionRun             Instant `json:"next_action_run"`
	NextPrestige              Instant `json:"next_prestige"`
	NextStatsUpdate           Instant `json:"next_stats_update"`
	NextRecoveryReset         Instant `json:"next_recovery_reset"`
	NextDailyAchievementCheck Instant `json:"next_daily_achievement_check"`
	NextClanResultsParse      Instant `json:"next_clan_results_parse"`
	NextHeavenlyStrike        Instant `json:"next_heavenly_strike"`
	NextDeadlyStrike          Instant `json:"next_deadly_strike"`
	NextHandOfMidas           Instant `json:"next_hand_of_midas"`
	NextFireSword             Instant `json:"next_fire_sword"`
	NextWarCry                Instant `json:"next_war_cry"`
	NextShadowClone           Instant `json:"next_shadow_clone"`
}

// Active reports whether the instance is RUNNING or PAUSED
func (s *Snapshot) Active() bool {
	return s.State == StateRunning || s.State == StatePaused
}

// Session identifies the current bot session
type Session struct {
	UUID string `json:"uuid"`
	URL  string `json:"url"`
}

// Configuration is the configuration the instance was started with
type Configuration struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ArtifactUpgrade is the next artifact the bot plans to upgrade
type ArtifactUpgrade struct {
	Title *string `json:"title"`
	Image string  `json:"image"`
}

// Stage describes the current stage relative to the instance's max stage
type Stage struct {
	Stage          *Number `json:"stage"`
	DiffFromMax    Number  `json:"diff_from_max"`
	PercentFromMax string  `json:"percent_from_max"`
}

// Instant is a server-side datetime paired with its display form. A null datetime
// decodes to the zero Instant.
type Instant struct {
	Raw       string `json:"datetime"`
	Formatted string `json:"formatted,omitempty"`
}

// IsZero reports whether no datetime was supplied
func (i Instant) IsZero() bool {
	return i.Raw == ""
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Time parses the raw datetime. Values without a zone are read as UTC.
func (i Instant) Time() (time.Time, error) {
	if i.IsZero() {
		return time.Time{}, fmt.Errorf("empty datetime")
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, i.Raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", i.Raw)
}

// Number is an integer the server sends either as a JSON number or a numeric string
type Number int

// UnmarshalJSON accepts 3, "3" and "3.0"
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		*n = 0
		return nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		*n = Number(v)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", raw, err)
	}
	*n = Number(int(f))
	return nil
}

// MarshalJSON writes the number as a JSON number
func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(n))
}

// CountdownKey names one of the fixed timed events tracked per instance
type CountdownKey string

const (
	NextActionRun             CountdownKey = "next_action_run"
	NextPrestige              CountdownKey = "next_prestige"
	NextStatsUpdate           CountdownKey = "next_stats_update"
	NextRecoveryReset         CountdownKey = "next_recovery_reset"
	NextDailyAchievementCheck CountdownKey = "next_daily_achievement_check"
	NextClanResultsParse      CountdownKey = "next_clan_results_parse"
	NextHeavenlyStrike        CountdownKey = "next_heavenly_strike"
	NextDeadlyStrike          CountdownKey = "next_deadly_strike"
	NextHandOfMidas           CountdownKey = "next_hand_of_midas"
	NextFireSword             CountdownKey = "next_fire_sword"
	NextWarCry                CountdownKey = "next_war_cry"
	NextShadowClone           CountdownKey = "next_shadow_clone"
)

// CountdownKeys lists every countdown key in display order
var CountdownKeys = []CountdownKey{
	NextActionRun,
	NextPrestige,
	NextStatsUpdate,
	NextRecoveryReset,
	NextDailyAchievementCheck,
	NextClanResultsParse,
	NextHeavenlyStrike,
	NextDeadlyStrike,
	NextHandOfMidas,
	NextFireSword,
	NextWarCry,
	NextShadowClone,
}

// Countdown returns the target instant for key
func (s *Snapshot) Countdown(key CountdownKey) Instant {
	switch key {
	case NextActionRun:
		return s.NextActionRun
	case NextPrestige:
		return s.NextPrestige
	case NextStatsUpdate:
		return s.NextStatsUpdate
	case NextRecoveryReset:
		return s.NextRecoveryReset
	case NextDailyAchievementCheck:
		return s.NextDailyAchievementCheck
	case NextClanResultsParse:
		return s.NextClanResultsParse
	case NextHeavenlyStrike:
		return s.NextHeavenlyStrike
	case NextDeadlyStrike:
		return s.NextDeadlyStrike
	case NextHandOfMidas:
		return s.NextHandOfMidas
	case NextFireSword:
		return s.NextFireSword
	case NextWarCry:
		return s.NextWarCry
	case NextShadowClone:
		return s.NextShadowClone
	}
	return Instant{}
}

// PushEnvelope is the shape of every push socket message
type PushEnvelope struct {
	Instance struct {
		Instance *Snapshot `json:"instance"`
	} `json:"instance"`
}
