// Package marks stores named timecode positions (cue points).
package marks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zsiec/chrono/pkg/fps"
	"github.com/zsiec/chrono/pkg/timecode"
)

var (
	// ErrMarkNotFound is returned when no mark has the requested ID
	ErrMarkNotFound = errors.New("mark not found")

	// ErrMarkExists is returned when creating a mark whose ID is taken
	ErrMarkExists = errors.New("mark already exists")

	// ErrInvalidMark is returned for marks that fail validation
	ErrInvalidMark = errors.New("invalid mark")
)

// Mark is a named position on a timeline.
type Mark struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timecode  string    `json:"timecode"`
	Rate      fps.Rate  `json:"rate"`
	Ticks     uint64    `json:"ticks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMark builds a mark for tc with a fresh ID.
func NewMark(name string, tc timecode.Timecode) *Mark {
	m := &Mark{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(name),
	}
	m.SetTimecode(tc)
	return m
}

// SetTimecode replaces the position of the mark. Subframes are always
// kept in the stored string.
func (m *Mark) SetTimecode(tc timecode.Timecode) {
	if tc.Subframes() != 0 {
		tc.SetExtended(true)
	}
	m.Timecode = tc.String()
	m.Rate = tc.Rate()
	m.Ticks = tc.Ticks()
}

// Value parses the stored timecode back at the stored rate.
func (m *Mark) Value() (timecode.Timecode, error) {
	return timecode.Parse(m.Timecode, timecode.WithRate(m.Rate))
}

// Validate checks that the mark can be stored.
func (m *Mark) Validate() error {
	if m.ID == "" || m.ID == "index" {
		return fmt.Errorf("%w: invalid id %q", ErrInvalidMark, m.ID)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMark)
	}
	if len(m.Name) > 256 {
		return fmt.Errorf("%w: name exceeds 256 bytes", ErrInvalidMark)
	}
	if !m.Rate.Valid() || m.Rate == fps.None {
		return fmt.Errorf("%w: unknown frame rate", ErrInvalidMark)
	}
	tc, err := m.Value()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMark, err)
	}
	if tc.Ticks() != m.Ticks {
		return fmt.Errorf("%w: ticks %d do not match timecode %s", ErrInvalidMark, m.Ticks, m.Timecode)
	}
	return nil
}

// Store defines the mark persistence operations
type Store interface {
	// Create adds a new mark and sets its timestamps
	Create(ctx context.Context, m *Mark) error

	// Get retrieves a mark by ID
	Get(ctx context.Context, id string) (*Mark, error)

	// List returns all marks ordered by position
	List(ctx context.Context) ([]*Mark, error)

	// Range returns the marks whose ticks fall within [from, to]
	Range(ctx context.Context, from, to uint64) ([]*Mark, error)

	// Update replaces an existing mark
	Update(ctx context.Context, m *Mark) error

	// Delete removes a mark
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored marks
	Count(ctx context.Context) (int, error)

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error

	// Close releases backend resources
	Close() error
}

// sortMarks orders by ticks, then name, then ID.
func sortMarks(ms []*Mark) {
	slices.SortFunc(ms, func(a, b *Mark) int {
		if c := cmp.Compare(a.Ticks, b.Ticks); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func notFound(id string) error {
	return fmt.Errorf("mark %s: %w", id, ErrMarkNotFound)
}
