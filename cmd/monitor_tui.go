// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/zenith/pkg/frsky"
	"github.com/Thermoquad/zenith/pkg/link"
	"github.com/Thermoquad/zenith/pkg/rc"
)

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// TUI model
type monitorModel struct {
	connInfo   string
	showAll    bool
	thresholds frsky.Thresholds

	stats        *link.Statistics
	log          []logEntry
	maxLog       int
	connected    bool
	synchronized bool
	invalidBytes int

	channels  []uint16
	switches  []rc.SwitchState
	timer     *link.TimerStatus
	telemetry *link.Telemetry
	uptime    *uint64

	bar      progress.Model
	width    int
	height   int
	quitting bool
}

// Messages
type monitorTickMsg time.Time
type linkBatchMsg []linkEvent

// formatUptime formats uptime in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	units := []struct {
		name string
		n    uint64
	}{
		{"day", seconds / 86400},
		{"hour", seconds / 3600 % 24},
		{"minute", seconds / 60 % 60},
		{"second", seconds % 60},
	}

	parts := []string{}
	for _, u := range units {
		switch {
		case u.n == 1:
			parts = append(parts, "1 "+u.name)
		case u.n > 1:
			parts = append(parts, fmt.Sprintf("%d %ss", u.n, u.name))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d ms", ms)
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func newMonitorModel(connInfo string, showAll bool, t frsky.Thresholds) monitorModel {
	return monitorModel{
		connInfo:   connInfo,
		showAll:    showAll,
		thresholds: t,
		stats:      link.NewStatistics(),
		maxLog:     100,
		connected:  true,
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(32), progress.WithoutPercentage()),
		width:      80,
		height:     24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		monitorTickCmd(),
		tea.EnterAltScreen,
	)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case linkBatchMsg:
		for _, ev := range msg {
			m.handle(ev)
		}
	}

	return m, nil
}

// handle folds one link event into the model
func (m *monitorModel) handle(ev linkEvent) {
	switch {
	case ev.lost:
		m.connected = false
		m.synchronized = false
		m.addLogEntry("Connection lost, reconnecting", true)

	case ev.reconnected != "":
		m.connected = true
		m.connInfo = ev.reconnected
		m.addLogEntry("Reconnected: "+ev.reconnected, false)

	case ev.synced:
		m.synchronized = true
		m.invalidBytes = ev.skipped
		if ev.skipped > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid bytes", ev.skipped), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case ev.err != nil:
		m.stats.Update(nil, ev.err, nil)
		m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", ev.err), true)

	case ev.frame != nil:
		m.stats.Update(ev.frame, nil, ev.anomalies)
		name := link.MessageName(ev.frame.Type())
		if len(ev.anomalies) > 0 {
			for _, a := range ev.anomalies {
				m.addLogEntry(fmt.Sprintf("%s: %s", name, a.Message), true)
			}
			return
		}
		m.apply(ev.frame)
		if m.showAll {
			m.addLogEntry(fmt.Sprintf("%s (valid)", name), false)
		}
	}
}

// apply stores the state carried by a valid frame
func (m *monitorModel) apply(f *link.Frame) {
	switch f.Type() {
	case link.MsgChannels:
		if us, err := link.Channels(f); err == nil {
			m.channels = us
		}
	case link.MsgSwitches:
		if s, err := link.Switches(f); err == nil {
			m.switches = s
		}
	case link.MsgTimer:
		if t, err := link.Timer(f); err == nil {
			m.timer = &t
		}
	case link.MsgTelemetry:
		if t, err := link.TelemetryOf(f); err == nil {
			m.telemetry = &t
		}
	case link.MsgPong:
		if u, err := link.Uptime(f); err == nil {
			m.uptime = &u
			m.addLogEntry("PONG, uptime "+formatUptime(u), false)
		}
	case link.MsgSelectProfile:
		if id, err := link.Profile(f); err == nil {
			m.addLogEntry(fmt.Sprintf("Profile %d selected", id), false)
		}
	}
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.log = append(m.log, logEntry{timestamp: time.Now(), message: message, isError: isError})
	if len(m.log) > m.maxLog {
		m.log = m.log[len(m.log)-m.maxLog:]
	}
}

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("12")).
	Background(lipgloss.Color("235")).
	Padding(0, 1)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

var levelStyles = map[frsky.Level]lipgloss.Style{
	frsky.LevelOK:     valueStyle,
	frsky.LevelOrange: warningStyle,
	frsky.LevelRed:    errorStyle,
}

var switchStateText = map[rc.SwitchState]string{
	rc.SwitchUp:     "↑",
	rc.SwitchCenter: "–",
	rc.SwitchDown:   "↓",
}

// pulseFraction maps a pulse width onto [0, 1] over the servo range
func pulseFraction(us uint16) float64 {
	f := float64(int(us)-rc.MicrosMin) / float64(rc.MicrosMax-rc.MicrosMin)
	return min(max(f, 0), 1)
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("ZENITH - LINK MONITOR"))
	s.WriteString("\n")
	mode := "Errors only"
	if m.showAll {
		mode = "All frames"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | 'r' reset stats, 'q' quit", m.connInfo, mode)))
	s.WriteString("\n\n")

	switch {
	case !m.connected:
		s.WriteString(errorStyle.Render("✗ Disconnected, retrying..."))
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
	default:
		s.WriteString(valueStyle.Render("✓ Synchronized"))
		if m.invalidBytes > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d invalid bytes)", m.invalidBytes)))
		}
	}
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(m.renderStats()))
	s.WriteString("\n")

	if len(m.channels) > 0 || len(m.switches) > 0 || m.timer != nil || m.telemetry != nil || m.uptime != nil {
		s.WriteString(boxStyle.Render(m.renderState()))
		s.WriteString("\n")
	}

	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(m.renderLog()))

	return s.String()
}

func (m monitorModel) renderStats() string {
	st := m.stats
	var b strings.Builder
	validPercent, errorPercent := 0.0, 0.0
	if st.TotalFrames > 0 {
		validPercent = float64(st.ValidFrames) * 100 / float64(st.TotalFrames)
		errorPercent = float64(st.Errors()) * 100 / float64(st.TotalFrames)
	}
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
		labelStyle.Render("Total:"), valueStyle.Render(fmt.Sprintf("%d", st.TotalFrames)),
		labelStyle.Render("Valid:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.ValidFrames, validPercent)),
		labelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.Errors(), errorPercent)),
	)
	if st.CRCErrors > 0 || st.DecodeErrors > 0 {
		fmt.Fprintf(&b, "%s %s   %s %s\n",
			labelStyle.Render("CRC Errors:"), errorStyle.Render(fmt.Sprintf("%d", st.CRCErrors)),
			labelStyle.Render("Decode Errors:"), errorStyle.Render(fmt.Sprintf("%d", st.DecodeErrors)),
		)
	}
	if st.Anomalous > 0 {
		var kinds []string
		for t := link.AnomalyLengthMismatch; t <= link.AnomalyDecodeError; t++ {
			if n := st.ByAnomaly[t]; n > 0 {
				kinds = append(kinds, fmt.Sprintf("%s: %d", strings.ToLower(t.String()), n))
			}
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			labelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", st.Anomalous)),
			headerStyle.Render("("+strings.Join(kinds, ", ")+")"),
		)
	}
	errRate := valueStyle
	if st.ErrorRate > 0 {
		errRate = errorStyle
	}
	fmt.Fprintf(&b, "%s %s   %s %s",
		labelStyle.Render("Frame Rate:"), valueStyle.Render(fmt.Sprintf("%.1f frames/s", st.FrameRate)),
		labelStyle.Render("Error Rate:"), errRate.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate)),
	)
	return b.String()
}

func (m monitorModel) renderState() string {
	var b strings.Builder
	for i, us := range m.channels {
		fmt.Fprintf(&b, "%s %s %s\n",
			labelStyle.Render(fmt.Sprintf("CH%-2d", i+1)),
			valueStyle.Render(fmt.Sprintf("%4dus", us)),
			m.bar.ViewAs(pulseFraction(us)),
		)
	}

	var sw []string
	for i, st := range m.switches {
		if text, ok := switchStateText[st]; ok {
			sw = append(sw, fmt.Sprintf("%s%s", rc.Switch(i), text))
		}
	}
	if len(sw) > 0 {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Switches:"), valueStyle.Render(strings.Join(sw, " ")))
	}

	if t := m.timer; t != nil {
		state := "stopped"
		if t.Running {
			state = "running"
		}
		style := valueStyle
		if t.Seconds < 0 {
			style = errorStyle
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			labelStyle.Render("Timer:"), style.Render(formatClock(t.Seconds)),
			headerStyle.Render(fmt.Sprintf("(target %s, %s)", formatClock(int32(t.Target)), state)))
	}

	if t := m.telemetry; t != nil {
		level := m.thresholds.RSSILevel(t.RSSI)
		fmt.Fprintf(&b, "%s A1 %d  A2 %d  RSSI %s\n",
			labelStyle.Render("Telemetry:"), t.A1, t.A2,
			levelStyles[level].Render(fmt.Sprintf("%d%%", frsky.RSSIPercent(t.RSSI))))
	}

	if m.uptime != nil {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Uptime:"), valueStyle.Render(formatUptime(*m.uptime)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// formatClock renders seconds as [-]m:ss
func formatClock(secs int32) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%d:%02d", sign, secs/60, secs%60)
}

func (m monitorModel) renderLog() string {
	logHeight := max(m.height-20-len(m.channels), 5)
	start := max(len(m.log)-logHeight, 0)

	if len(m.log) == 0 {
		return headerStyle.Render("  (no events yet)")
	}
	var b strings.Builder
	for _, entry := range m.log[start:] {
		ts := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		if entry.isError {
			fmt.Fprintf(&b, "%s %s\n", ts, errorStyle.Render("✗ "+entry.message))
		} else {
			fmt.Fprintf(&b, "%s %s\n", ts, warningStyle.Render("ℹ "+entry.message))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
