// Command tcclock shows a running timecode in the terminal.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zsiec/chrono/pkg/fps"
	"github.com/zsiec/chrono/pkg/timecode"
)

func main() {
	var (
		rateName string
		start    string
		extended bool
	)
	flag.StringVar(&rateName, "rate", "25 fps", "Frame rate, e.g. \"29.97df\"")
	flag.StringVar(&start, "start", "00:00:00:00", "Start timecode")
	flag.BoolVar(&extended, "extended", false, "Show subframes")
	flag.Parse()

	rate, err := fps.Parse(rateName)
	if err != nil || rate == fps.None {
		fmt.Fprintf(os.Stderr, "Unknown frame rate %q\n", rateName)
		os.Exit(1)
	}

	tc, err := timecode.Parse(start, timecode.WithRate(rate))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid start timecode: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newClockModel(tc, extended), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Clock error: %v\n", err)
		os.Exit(1)
	}
}
