package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zsiec/chrono/pkg/timecode"
)

const (
	maxMarks        = 8
	defaultInterval = 20 * time.Millisecond
)

type tickMsg time.Time

// clockModel runs a timecode from a start position against the wall
// clock. Pausing folds the elapsed run into offset.
type clockModel struct {
	start    timecode.Timecode
	current  timecode.Timecode
	extended bool

	running bool
	since   time.Time     // wall time of the last resume
	offset  time.Duration // elapsed time before the last resume
	now     func() time.Time

	marks    []timecode.Timecode
	interval time.Duration
}

func newClockModel(start timecode.Timecode, extended bool) *clockModel {
	m := &clockModel{
		start:    start,
		current:  start,
		extended: extended,
		now:      time.Now,
		interval: defaultInterval,
	}
	// Refresh at twice the frame rate so no frame is skipped on screen.
	if f := start.Rate().Float(); f > 0 {
		m.interval = time.Duration(float64(time.Second) / (2 * f))
	}
	m.current.SetExtended(extended)
	return m
}

func (m *clockModel) elapsed() time.Duration {
	if !m.running {
		return m.offset
	}
	return m.offset + m.now().Sub(m.since)
}

// refresh recomputes the displayed timecode from the elapsed time.
func (m *clockModel) refresh() {
	run, err := timecode.FromSeconds(m.elapsed().Seconds(), timecode.WithRate(m.start.Rate()))
	if err != nil {
		return
	}
	m.current = m.start.AddTicks(run.Ticks())
	m.current.SetExtended(m.extended)
}

func (m *clockModel) toggle() {
	if m.running {
		m.offset = m.elapsed()
		m.running = false
	} else {
		m.since = m.now()
		m.running = true
	}
	m.refresh()
}

func (m *clockModel) reset() {
	m.offset = 0
	m.since = m.now()
	m.marks = nil
	m.refresh()
}

func (m *clockModel) mark() {
	m.refresh()
	m.marks = append(m.marks, m.current)
	if len(m.marks) > maxMarks {
		m.marks = m.marks[len(m.marks)-maxMarks:]
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model
func (m *clockModel) Init() tea.Cmd {
	m.toggle()
	return tickEvery(m.interval)
}

// Update implements tea.Model
func (m *clockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			m.toggle()
		case "r":
			m.reset()
		case "e":
			m.extended = !m.extended
			m.refresh()
		case "m", "enter":
			m.mark()
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tickEvery(m.interval)
	}

	return m, nil
}

// View implements tea.Model
func (m *clockModel) View() string {
	state := runningStyle.Render("● RUNNING")
	if !m.running {
		state = pausedStyle.Render("■ PAUSED")
	}

	header := headerStyle.Render("chrono · " + m.start.Rate().String())
	clock := clockStyle.Render(m.current.String())

	info := panelStyle.Render(strings.Join([]string{
		fmt.Sprintf("%s %s", labelStyle.Render("state"), state),
		fmt.Sprintf("%s %s", labelStyle.Render("start"), m.start.String()),
		fmt.Sprintf("%s %d", labelStyle.Render("ticks"), m.current.Ticks()),
		fmt.Sprintf("%s %.3fs", labelStyle.Render("secs "), m.current.Float64()),
	}, "\n"))

	var lines []string
	for i, tc := range m.marks {
		lines = append(lines, fmt.Sprintf("%2d  %s", i+1, tc.String()))
	}
	if len(lines) == 0 {
		lines = append(lines, mutedStyle.Render("no marks"))
	}
	marks := panelStyle.Render(labelStyle.Render("marks") + "\n" + strings.Join(lines, "\n"))

	help := mutedStyle.Render("space pause · r reset · e subframes · m mark · q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		clock,
		lipgloss.JoinHorizontal(lipgloss.Top, info, marks),
		help,
	) + "\n"
}
