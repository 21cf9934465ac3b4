// Package tui renders the bot instance dashboard in a terminal with tview.
package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/samber/lo"
	"github.com/yourusername/titandash-console/internal/dashboard"
	"github.com/yourusername/titandash-console/internal/timer"
	"github.com/yourusername/titandash-console/internal/titandash"
)

const (
	logMaxLines  = 500
	drainTimeout = 100 * time.Millisecond
)

const (
	panelInstance  = "instance"
	panelVariables = "variables"
	panelActions   = "actions"
	panelConfig    = "config"
	panelQueue     = "queue"
	panelPrestige  = "prestige"
	panelNotice    = "notice"
	panelLog       = "log"
	panelFooter    = "footer"
)

var (
	uiBorderColor = tcell.ColorGray
	uiTitleColor  = tcell.ColorHotPink
)

// Regions that start out hidden until the first snapshot reveals them
var hiddenUntilShown = map[dashboard.Region]bool{
	dashboard.RegionStatusIcon:      true,
	dashboard.RegionInstanceContent: true,
	dashboard.RegionActionsContent:  true,
	dashboard.RegionVariablesTable:  true,
	dashboard.RegionQueueContent:    true,
	dashboard.RegionQueueFunctions:  true,
}

type row struct {
	label  string
	region dashboard.Region
}

var variableRows = append([]row{
	{"Configuration", dashboard.RegionConfiguration},
	{"Log File", dashboard.RegionLogFile},
	{"Current Stage", dashboard.RegionCurrentStage},
	{"Next Artifact Upgrade", dashboard.RegionNextArtifactUpgrade},
}, lo.Map(titandash.CountdownKeys, func(key titandash.CountdownKey, _ int) row {
	return row{label: countdownTitle(key), region: dashboard.CountdownRegion(key)}
})...)

var prestigeRows = []row{
	{"Average Duration", dashboard.RegionPrestigeAvgDuration},
	{"Average Stage", dashboard.RegionPrestigeAvgStage},
	{"This Session", dashboard.RegionPrestigeThisSession},
	{"Last Artifact", dashboard.RegionPrestigeLastArtifact},
}

var actionRows = []struct {
	region dashboard.Region
	label  string
}{
	{dashboard.RegionActionPlay, "[S]tart"},
	{dashboard.RegionActionPause, "[P]ause"},
	{dashboard.RegionActionStop, "Sto[X]p"},
}

// ConfigOption is one entry of the configuration selector
type ConfigOption struct {
	ID   string
	Name string
}

// Options configures the terminal dashboard
type Options struct {
	Server         string
	TargetFPS      int
	NoticeTTL      time.Duration
	Configurations []ConfigOption
}

type cell struct {
	text    string
	href    string
	link    bool
	stage   *dashboard.StageView
	opacity float64
	hidden  bool
	enabled bool
	icon    dashboard.Icon
	color   dashboard.Color
}

type panel struct {
	view   *tview.TextView
	render func() string
}

// Dashboard implements dashboard.Surface on top of tview. Surface writes update an
// in-memory model and schedule a redraw of the owning panel; the frame scheduler applies
// redraws on the UI goroutine.
type Dashboard struct {
	app       *tview.Application
	scheduler *frameScheduler
	server    *url.URL
	noticeTTL time.Duration
	panels    map[string]panel
	stopOnce  sync.Once

	mu         sync.Mutex
	cells      map[dashboard.Region]*cell
	controls   map[dashboard.Region]dashboard.Control
	removed    map[dashboard.Region]bool
	cleared    map[dashboard.Region]int
	configs    []ConfigOption
	selected   int
	configOn   bool
	notice     string
	noticeSeq  uint64
	lastUpdate time.Time
	logLines   []string

	configSelect *tview.DropDown
	actionsView  *tview.TextView
	root         *tview.Flex
}

var _ dashboard.Surface = (*Dashboard)(nil)

// New builds the terminal dashboard. Call Run to take over the terminal.
func New(opts Options) *Dashboard {
	return newDashboard(tview.NewApplication(), opts)
}

func newDashboard(app *tview.Application, opts Options) *Dashboard {
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 4 * time.Second
	}
	server, _ := url.Parse(opts.Server)

	d := &Dashboard{
		app:       app,
		scheduler: newFrameScheduler(app, opts.TargetFPS, drainTimeout),
		server:    server,
		noticeTTL: opts.NoticeTTL,
		cells:     make(map[dashboard.Region]*cell),
		controls:  make(map[dashboard.Region]dashboard.Control),
		removed:   make(map[dashboard.Region]bool),
		cleared:   make(map[dashboard.Region]int),
		configs:   opts.Configurations,
		selected:  -1,
		configOn:  true,
	}
	if len(d.configs) > 0 {
		d.selected = 0
	}

	instanceView := newBoxedTextView("Bot Instance")
	variablesView := newBoxedTextView("Variables")
	d.actionsView = newBoxedTextView("Actions")
	queueView := newBoxedTextView("Queued Functions")
	prestigeView := newBoxedTextView("Prestiges")
	noticeView := tview.NewTextView().SetDynamicColors(true)
	logView := newBoxedTextView("Log")
	footer := tview.NewTextView().SetDynamicColors(true)

	d.panels = map[string]panel{
		panelInstance:  {instanceView, d.renderInstance},
		panelVariables: {variablesView, d.renderVariables},
		panelActions:   {d.actionsView, d.renderActions},
		panelQueue:     {queueView, d.renderQueue},
		panelPrestige:  {prestigeView, d.renderPrestige},
		panelNotice:    {noticeView, d.renderNotice},
		panelLog:       {logView, d.renderLog},
		panelFooter:    {footer, d.renderFooter},
	}

	d.configSelect = tview.NewDropDown().SetLabel("Configuration: ")
	d.configSelect.SetBorder(true).SetBorderColor(uiBorderColor)
	d.configSelect.SetOptions(lo.Map(d.configs, func(c ConfigOption, _ int) string { return c.Name }), func(_ string, index int) {
		d.mu.Lock()
		d.selected = index
		d.mu.Unlock()
	})
	if d.selected >= 0 {
		d.configSelect.SetCurrentOption(d.selected)
	}
	d.configSelect.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		d.mu.Lock()
		enabled := d.configOn
		d.mu.Unlock()
		if !enabled {
			return nil
		}
		return event
	})

	controls := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.actionsView, 0, 1, false).
		AddItem(d.configSelect, 3, 0, false)
	top := tview.NewFlex().
		AddItem(instanceView, 0, 2, false).
		AddItem(controls, 0, 1, false)
	bottom := tview.NewFlex().
		AddItem(queueView, 0, 1, false).
		AddItem(prestigeView, 0, 1, false)

	d.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 9, 0, false).
		AddItem(variablesView, len(variableRows)+2, 0, false).
		AddItem(bottom, 7, 0, false).
		AddItem(noticeView, 1, 0, false).
		AddItem(logView, 0, 1, false).
		AddItem(footer, 1, 0, false)

	if app != nil {
		app.SetRoot(d.root, true).SetFocus(d.actionsView)
		app.SetInputCapture(d.handleKey)
		d.configSelect.SetDoneFunc(func(tcell.Key) {
			app.SetFocus(d.actionsView)
		})
	}

	d.refreshAll()
	return d
}

func newBoxedTextView(title string) *tview.TextView {
	tv := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	tv.SetBorder(true)
	if title != "" {
		tv.SetTitle(" " + title + " ").SetTitleAlign(tview.AlignLeft)
	}
	tv.SetBorderColor(uiBorderColor)
	tv.SetTitleColor(uiTitleColor)
	return tv
}

// Run takes over the terminal until the user quits or ctx is cancelled
func (d *Dashboard) Run(ctx context.Context) error {
	d.scheduler.Start()
	defer d.Stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				d.Stop()
				return
			case <-done:
				return
			case <-ticker.C:
				d.refresh(panelFooter)
			}
		}
	}()

	return d.app.Run()
}

// Stop releases the terminal
func (d *Dashboard) Stop() {
	d.stopOnce.Do(func() {
		d.scheduler.Stop()
		if d.app != nil {
			d.app.Stop()
		}
	})
}

func (d *Dashboard) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if d.app != nil && d.configSelect.HasFocus() {
		if event.Key() == tcell.KeyTab {
			d.app.SetFocus(d.actionsView)
			return nil
		}
		return event
	}

	if event.Key() == tcell.KeyCtrlC {
		d.Stop()
		return nil
	}

	switch event.Rune() {
	case 's', 'S':
		d.activate(dashboard.RegionActionPlay)
		return nil
	case 'p', 'P':
		d.activate(dashboard.RegionActionPause)
		return nil
	case 'x', 'X':
		d.activate(dashboard.RegionActionStop)
		return nil
	case 'c', 'C':
		d.mu.Lock()
		enabled := d.configOn && len(d.configs) > 0
		d.mu.Unlock()
		if enabled && d.app != nil {
			d.app.SetFocus(d.configSelect)
		}
		return nil
	case 'q', 'Q':
		d.Stop()
		return nil
	}
	return event
}

// activate runs the handler of an enabled control
func (d *Dashboard) activate(r dashboard.Region) {
	d.mu.Lock()
	c, ok := d.controls[r]
	d.mu.Unlock()
	if !ok || !c.Enabled || c.OnActivate == nil {
		return
	}
	c.OnActivate()
}

// cellLocked returns the model of r; d.mu must be held
func (d *Dashboard) cellLocked(r dashboard.Region) *cell {
	c, ok := d.cells[r]
	if !ok {
		c = &cell{opacity: 1, hidden: hiddenUntilShown[r], enabled: true}
		d.cells[r] = c
	}
	return c
}

// update mutates the model of r and schedules its panel
func (d *Dashboard) update(r dashboard.Region, fn func(c *cell)) {
	d.mu.Lock()
	fn(d.cellLocked(r))
	d.lastUpdate = time.Now()
	d.mu.Unlock()
	d.refresh(panelOf(r))
}

func panelOf(r dashboard.Region) string {
	name, _, _ := strings.Cut(string(r), ".")
	return name
}

func (d *Dashboard) refresh(name string) {
	if name == panelConfig {
		d.scheduler.Schedule(name, d.renderConfig)
		return
	}
	p, ok := d.panels[name]
	if !ok {
		return
	}
	d.scheduler.Schedule(name, func() {
		p.view.SetText(p.render())
		if name == panelLog {
			p.view.ScrollToEnd()
		}
	})
}

func (d *Dashboard) refreshAll() {
	for name := range d.panels {
		d.refresh(name)
	}
	d.refresh(panelConfig)
}

// SetText implements dashboard.Surface
func (d *Dashboard) SetText(r dashboard.Region, text string) {
	d.update(r, func(c *cell) {
		c.text, c.href, c.link, c.stage = text, "", false, nil
	})
}

// SetLink implements dashboard.Surface
func (d *Dashboard) SetLink(r dashboard.Region, text, href string) {
	d.update(r, func(c *cell) {
		c.text, c.href, c.link, c.stage = text, href, true, nil
	})
}

// SetStatus implements dashboard.Surface
func (d *Dashboard) SetStatus(r dashboard.Region, icon dashboard.Icon, color dashboard.Color) {
	d.update(r, func(c *cell) {
		c.icon, c.color = icon, color
	})
}

// SetStage implements dashboard.Surface
func (d *Dashboard) SetStage(r dashboard.Region, stage dashboard.StageView) {
	d.update(r, func(c *cell) {
		c.text, c.href, c.link = dashboard.FormatStage(stage), "", false
		c.stage = &stage
	})
}

// SetArtifact implements dashboard.Surface
func (d *Dashboard) SetArtifact(r dashboard.Region, title, image string) {
	d.update(r, func(c *cell) {
		c.text, c.href, c.link, c.stage = title, image, true, nil
	})
}

// SetOpacity implements dashboard.Surface
func (d *Dashboard) SetOpacity(r dashboard.Region, opacity float64) {
	d.update(r, func(c *cell) { c.opacity = opacity })
}

// SetVisible implements dashboard.Surface
func (d *Dashboard) SetVisible(r dashboard.Region, visible bool) {
	d.update(r, func(c *cell) { c.hidden = !visible })
}

// SetEnabled implements dashboard.Surface
func (d *Dashboard) SetEnabled(r dashboard.Region, enabled bool) {
	if r == dashboard.RegionConfigSelect {
		d.mu.Lock()
		d.configOn = enabled
		d.mu.Unlock()
		d.refresh(panelConfig)
		return
	}
	d.update(r, func(c *cell) { c.enabled = enabled })
}

// ClearTable implements dashboard.Surface
func (d *Dashboard) ClearTable(r dashboard.Region) {
	d.mu.Lock()
	d.cleared[r]++
	d.mu.Unlock()
	d.refresh(panelOf(r))
}

// Remove implements dashboard.Surface
func (d *Dashboard) Remove(r dashboard.Region) {
	d.mu.Lock()
	d.removed[r] = true
	d.mu.Unlock()
	d.refresh(panelOf(r))
}

// SetControl implements dashboard.Surface
func (d *Dashboard) SetControl(r dashboard.Region, c dashboard.Control) {
	d.mu.Lock()
	d.controls[r] = c
	d.mu.Unlock()
	d.refresh(panelActions)
}

// SelectConfig implements dashboard.Surface. Names without a matching option are ignored.
func (d *Dashboard) SelectConfig(name string) {
	d.mu.Lock()
	_, index, ok := lo.FindIndexOf(d.configs, func(c ConfigOption) bool { return c.Name == name })
	if ok {
		d.selected = index
	}
	d.mu.Unlock()
	if ok {
		d.refresh(panelConfig)
	}
}

// SelectedConfig implements dashboard.Surface. It returns the id of the selected option.
func (d *Dashboard) SelectedConfig() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selected < 0 || d.selected >= len(d.configs) {
		return ""
	}
	return d.configs[d.selected].ID
}

// Notify implements dashboard.Surface. The notice clears itself after the notice TTL.
func (d *Dashboard) Notify(message string) {
	d.mu.Lock()
	d.notice = message
	d.noticeSeq++
	seq := d.noticeSeq
	d.mu.Unlock()
	d.refresh(panelNotice)

	time.AfterFunc(d.noticeTTL, func() {
		d.mu.Lock()
		if d.noticeSeq == seq {
			d.notice = ""
		}
		d.mu.Unlock()
		d.refresh(panelNotice)
	})
}

// Label implements dashboard.Surface
func (d *Dashboard) Label(r dashboard.Region) timer.Label {
	return timer.LabelFunc(func(text string) {
		d.mu.Lock()
		c := d.cellLocked(r)
		c.text, c.href, c.link, c.stage = text, "", false, nil
		d.mu.Unlock()
		d.refresh(panelOf(r))
	})
}

func (d *Dashboard) renderInstance() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.removed[dashboard.RegionInstanceLoader] {
		return "[gray]Loading bot instance...[-]"
	}
	if d.cellLocked(dashboard.RegionInstanceContent).hidden {
		return ""
	}

	var b strings.Builder
	if status := d.cellLocked(dashboard.RegionStatusIcon); !status.hidden {
		fmt.Fprintf(&b, "[%s]%s[-]\n", colorTag(status.color), iconGlyph(status.icon))
	}
	d.writeRows(&b, []row{
		{"State", dashboard.RegionState},
		{"Session", dashboard.RegionSession},
		{"Started", dashboard.RegionStarted},
		{"Current Function", dashboard.RegionCurrentFunction},
	})
	return b.String()
}

func (d *Dashboard) renderVariables() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	if d.cellLocked(dashboard.RegionVariablesTable).hidden {
		b.WriteString("[gray]Variables are available while the bot instance is running.[-]\n")
	}
	d.writeRows(&b, variableRows)
	return b.String()
}

func (d *Dashboard) renderActions() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.removed[dashboard.RegionActionsLoader] {
		return "[gray]Loading...[-]"
	}
	if d.cellLocked(dashboard.RegionActionsContent).hidden {
		return ""
	}

	var b strings.Builder
	for _, a := range actionRows {
		c := d.controls[a.region]
		color := dashboard.ColorMuted
		if c.Enabled {
			color = c.Color
		}
		fmt.Fprintf(&b, "[%s]%s %s[-]\n", colorTag(color), iconGlyph(c.Icon), tview.Escape(a.label))
	}
	return b.String()
}

func (d *Dashboard) renderConfig() {
	d.mu.Lock()
	enabled := d.configOn
	selected := d.selected
	d.mu.Unlock()

	if enabled {
		d.configSelect.SetLabelColor(tcell.ColorWhite)
	} else {
		d.configSelect.SetLabelColor(tcell.ColorGray)
		if d.app != nil && d.configSelect.HasFocus() {
			d.app.SetFocus(d.actionsView)
		}
	}
	if current, _ := d.configSelect.GetCurrentOption(); selected >= 0 && current != selected {
		d.configSelect.SetCurrentOption(selected)
	}
}

func (d *Dashboard) renderQueue() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.cellLocked(dashboard.RegionQueueInitial).hidden {
		return "[gray]Functions can be queued once a session is running.[-]"
	}
	if d.cellLocked(dashboard.RegionQueueContent).hidden {
		return ""
	}
	functions := d.cellLocked(dashboard.RegionQueueFunctions)
	if functions.hidden || !functions.enabled {
		return "Queue is empty."
	}
	return "Queue is empty.\n[gray]Queue functions from the web dashboard.[-]"
}

func (d *Dashboard) renderPrestige() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	d.writeRows(&b, prestigeRows)
	return b.String()
}

func (d *Dashboard) renderNotice() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.notice == "" {
		return ""
	}
	return "[black:green] " + tview.Escape(d.notice) + " [-:-]"
}

func (d *Dashboard) renderLog() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.Join(d.logLines, "\n")
}

func (d *Dashboard) renderFooter() string {
	d.mu.Lock()
	last := d.lastUpdate
	d.mu.Unlock()

	updated := "never"
	if !last.IsZero() {
		updated = humanize.Time(last)
	}
	server := ""
	if d.server != nil {
		server = d.server.Host
	}
	return fmt.Sprintf("[hotpink]%s[-]  last update %s  %s",
		tview.Escape(server), updated, tview.Escape("[S]tart [P]ause Sto[X]p [C]onfig [Q]uit"))
}

// writeRows renders label/value lines; d.mu must be held
func (d *Dashboard) writeRows(b *strings.Builder, rows []row) {
	for _, r := range rows {
		fmt.Fprintf(b, "%-30s %s\n", r.label, d.renderCellLocked(r.region))
	}
}

func (d *Dashboard) renderCellLocked(r dashboard.Region) string {
	c := d.cellLocked(r)
	if c.hidden {
		return ""
	}

	dim := c.opacity < 1
	switch {
	case c.stage != nil && !dim:
		return fmt.Sprintf("[%s]%s[-]", colorTag(c.stage.Color), tview.Escape(c.text))
	case c.link && !dim:
		return d.hyperlink(c.text, c.href)
	case dim:
		return "[gray]" + tview.Escape(c.text) + "[-]"
	}
	return tview.Escape(c.text)
}

// hyperlink renders text as an OSC 8 link to href resolved against the server
func (d *Dashboard) hyperlink(text, href string) string {
	if href == "" || href == dashboard.InertLink {
		return tview.Escape(text)
	}
	target := href
	if ref, err := url.Parse(href); err == nil && d.server != nil {
		target = d.server.ResolveReference(ref).String()
	}
	return "[:::" + target + "]" + tview.Escape(text) + "[:::-]"
}

func colorTag(c dashboard.Color) string {
	switch c {
	case dashboard.ColorSuccess:
		return "green"
	case dashboard.ColorWarning:
		return "yellow"
	case dashboard.ColorDanger:
		return "red"
	case dashboard.ColorMuted:
		return "gray"
	}
	return "white"
}

func iconGlyph(i dashboard.Icon) string {
	switch i {
	case dashboard.IconCheck:
		return "✔"
	case dashboard.IconPause:
		return "⏸"
	case dashboard.IconTimes:
		return "✖"
	case dashboard.IconPlay:
		return "▶"
	case dashboard.IconStop:
		return "■"
	case dashboard.IconPlus:
		return "+"
	case dashboard.IconMinus:
		return "-"
	}
	return " "
}

// countdownTitle turns next_war_cry into "Next War Cry"
func countdownTitle(key titandash.CountdownKey) string {
	words := lo.Map(strings.Split(string(key), "_"), func(w string, _ int) string {
		if w == "" {
			return w
		}
		return strings.ToUpper(w[:1]) + w[1:]
	})
	return strings.Join(words, " ")
}
