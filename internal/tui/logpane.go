package tui

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rivo/tview"
)

const paneWriterMaxBytes = 64 * 1024

// LogWriter returns a writer that appends complete lines to the log pane. Point the
// zerolog console writer at it while the dashboard owns the terminal.
func (d *Dashboard) LogWriter() io.Writer {
	return &paneWriter{dash: d}
}

func (d *Dashboard) appendLog(line string) {
	d.mu.Lock()
	d.logLines = append(d.logLines, tview.Escape(line))
	if excess := len(d.logLines) - logMaxLines; excess > 0 {
		d.logLines = d.logLines[excess:]
	}
	d.mu.Unlock()
	d.refresh(panelLog)
}

type paneWriter struct {
	dash *Dashboard
	// buf holds any partial line, bounded so a writer that never sends a newline
	// cannot grow it forever
	mu           sync.Mutex
	buf          []byte
	droppedBytes uint64
}

func (w *paneWriter) Write(p []byte) (int, error) {
	if w == nil || w.dash == nil {
		return len(p), nil
	}

	w.mu.Lock()
	w.buf = append(w.buf, p...)
	var dropped uint64
	if excess := len(w.buf) - paneWriterMaxBytes; excess > 0 {
		w.buf = w.buf[excess:]
		w.droppedBytes += uint64(excess)
		dropped = uint64(excess)
	}
	total := w.droppedBytes

	var lines []string
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(w.buf[:idx], "\r")))
		w.buf = w.buf[idx+1:]
	}
	w.mu.Unlock()

	// The pane is the log destination, so drops are reported in the pane itself
	if dropped > 0 {
		w.dash.appendLog(fmt.Sprintf("log pane dropped %s without a newline (%s total)",
			humanize.Bytes(dropped), humanize.Bytes(total)))
	}
	for _, line := range lines {
		w.dash.appendLog(line)
	}
	return len(p), nil
}
