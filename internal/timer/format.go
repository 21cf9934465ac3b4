// Package timer renders live stopwatch and countdown labels.
package timer

import (
	"fmt"
	"time"
)

// Label is anything a timer can write its rendered value into.
type Label interface {
	SetText(text string)
}

// LabelFunc adapts a function to Label.
type LabelFunc func(text string)

// SetText calls f(text).
func (f LabelFunc) SetText(text string) { f(text) }

// FormatPadded is the format hint that always renders HH:MM:SS, folding days into hours.
const FormatPadded = "0"

// FormatDuration renders d according to the format hint. Negative durations render as zero.
func FormatDuration(d time.Duration, format string) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if format == FormatPadded || days == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", days*24+hours, minutes, seconds)
	}
	return fmt.Sprintf("%dd %02d:%02d:%02d", days, hours, minutes, seconds)
}
