// Package fps is the catalog of frame rates a timecode can be expressed in.
package fps

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zsiec/chrono/internal/enummap"
)

// Rate is one of the closed set of supported frame rates.
type Rate int

// FPS25 is declared first so that the zero Rate is the default rate.
const (
	FPS25 Rate = iota
	FPS24
	FPS30
	FPS29_97
	FPS29_97DF
	FPS60
	None
)

// catalog order, used for display and for the lookup tables
var ordered = []Rate{FPS24, FPS25, FPS30, FPS29_97, FPS29_97DF, FPS60}

// ReporterFunc receives lookups that matched no catalog entry. kind names
// the table ("int", "float", "string", "dropframe" or "rate").
type ReporterFunc func(kind string, value interface{})

var (
	reporterMu sync.RWMutex
	reporter   ReporterFunc = defaultReporter
)

func defaultReporter(kind string, value interface{}) {
	logrus.WithFields(logrus.Fields{
		"component": "fps",
		"table":     kind,
		"value":     value,
	}).Warn("unknown fps format")
}

// SetReporter replaces the hook invoked on unknown values. Passing nil
// restores the default, which logs a warning through logrus.
func SetReporter(fn ReporterFunc) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	if fn == nil {
		fn = defaultReporter
	}
	reporter = fn
}

func report(kind string) func(interface{}) {
	return func(v interface{}) {
		reporterMu.RLock()
		fn := reporter
		reporterMu.RUnlock()
		fn(kind, v)
	}
}

func reportRate(r Rate) { report("rate")(r) }

// The integer and float tables store the drop-frame rate negated so that
// reverse lookups never collide with plain 29.97.
var (
	intTable = enummap.MustNew(ordered,
		[]int64{24, 25, 30, 29, -29, 60},
		None, 0,
		reportRate, func(v int64) { report("int")(v) })

	floatTable = enummap.MustNew(ordered,
		[]float64{24.0, 25.0, 30.0, 29.97, -29.97, 60.0},
		None, 0.0,
		reportRate, func(v float64) { report("float")(v) })

	stringTable = enummap.MustNew(ordered,
		[]string{"24 fps", "25 fps", "30 fps", "29.97 fps", "29.97 fps drop-frame", "60 fps"},
		None, "NONE",
		reportRate, func(v string) { report("string")(v) })

	dropFrameTable = enummap.MustNew(ordered,
		[]bool{false, false, false, false, true, false},
		None, false,
		reportRate, func(v bool) { report("dropframe")(v) })
)

// Default returns the process-wide default rate.
func Default() Rate {
	return FPS25
}

// All returns every concrete rate in catalog order.
func All() []Rate {
	return append([]Rate(nil), ordered...)
}

// Valid reports whether r is a member of the catalog, None included.
func (r Rate) Valid() bool {
	return r >= FPS25 && r <= None
}

// Int returns the integer frame count per second.
func (r Rate) Int() int64 {
	v := intTable.Value(r)
	if v < 0 {
		return -v
	}
	return v
}

// Uint is Int as an unsigned value.
func (r Rate) Uint() uint64 {
	return uint64(r.Int())
}

// Float returns the exact frames per second.
func (r Rate) Float() float64 {
	return math.Abs(floatTable.Value(r))
}

// String returns the display name, e.g. "29.97 fps drop-frame".
func (r Rate) String() string {
	return stringTable.Value(r)
}

// IsDropFrame reports whether timecodes at r use the drop-frame separator.
func (r Rate) IsDropFrame() bool {
	return dropFrameTable.Value(r)
}

// FromInt resolves an integer magnitude. -29 selects the drop-frame rate.
func FromInt(i int64) Rate {
	return intTable.Enum(i)
}

// FromFloat resolves a float magnitude. -29.97 selects the drop-frame rate.
func FromFloat(f float64) Rate {
	return floatTable.Enum(f)
}

// FromString resolves a display name.
func FromString(s string) Rate {
	return stringTable.Enum(s)
}

// FromDropFrame returns the first rate whose drop-frame flag equals df.
func FromDropFrame(df bool) Rate {
	return dropFrameTable.Enum(df)
}

// Lookup resolves a display name without reporting misses.
func Lookup(s string) (Rate, bool) {
	return stringTable.Lookup(s)
}

// Parse accepts a display name ("25 fps"), a bare magnitude ("25",
// "29.97") or a magnitude with a "df" suffix ("29.97df").
func Parse(s string) (Rate, error) {
	s = strings.TrimSpace(s)
	if r, ok := Lookup(s); ok {
		return r, nil
	}

	lower := strings.ToLower(s)
	drop := strings.HasSuffix(lower, "df")
	num := strings.TrimSpace(strings.TrimSuffix(lower, "df"))

	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return None, fmt.Errorf("unknown frame rate %q", s)
	}
	if drop {
		f = -f
	}
	if r, ok := floatTable.Lookup(f); ok {
		return r, nil
	}
	return None, fmt.Errorf("unknown frame rate %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rate) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid frame rate %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rate) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
