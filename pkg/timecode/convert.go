package timecode

import (
	"fmt"
	"math"
	"time"
)

// Displayer renders a human readable form including context such as the
// frame rate.
type Displayer interface {
	Display() string
}

// Resetter returns a value to its initial state.
type Resetter interface {
	Reset()
	ResetAll()
}

// IntConverter exposes a value as an integer tick count.
type IntConverter interface {
	Int64() int64
	Uint64() uint64
}

// FloatConverter exposes a value as elapsed seconds.
type FloatConverter interface {
	Float64() float64
}

var (
	_ fmt.Stringer   = Timecode{}
	_ Displayer      = Timecode{}
	_ Resetter       = (*Timecode)(nil)
	_ IntConverter   = Timecode{}
	_ FloatConverter = Timecode{}
)

// Int64 returns the tick count, clamped to the int64 range.
func (tc Timecode) Int64() int64 {
	t := tc.Ticks()
	if t > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(t)
}

// Uint64 returns the tick count.
func (tc Timecode) Uint64() uint64 {
	return tc.Ticks()
}

// Float64 returns the elapsed seconds. A rate without a magnitude yields 0.
func (tc Timecode) Float64() float64 {
	perSecond := tc.rate.Float() * SubframesPerFrame
	if perSecond == 0 {
		return 0
	}
	return float64(tc.Ticks()) / perSecond
}

// Duration returns the elapsed time rounded to the nanosecond.
func (tc Timecode) Duration() time.Duration {
	return time.Duration(math.Round(tc.Float64() * float64(time.Second)))
}

// Fields returns the textual decomposition of tc.
func (tc Timecode) Fields() Fields {
	return Fields{
		Hours:     tc.Hours(),
		Minutes:   tc.Minutes(),
		Seconds:   tc.Seconds(),
		Frames:    tc.Frames(),
		Subframes: tc.Subframes(),
		DropFrame: tc.IsDropFrame(),
		Extended:  tc.extended,
	}
}

// String renders HH:MM:SS:FF, with ';' before frames at drop-frame rates
// and a trailing .SF when extended.
func (tc Timecode) String() string {
	return FormatFields(tc.Fields())
}

// Display renders the timecode followed by its frame rate.
func (tc Timecode) Display() string {
	return tc.String() + " @ " + tc.rate.String()
}

// MarshalText implements encoding.TextMarshaler.
func (tc Timecode) MarshalText() ([]byte, error) {
	return []byte(tc.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The receiver's frame
// rate is kept unless the text is drop-frame.
func (tc *Timecode) UnmarshalText(text []byte) error {
	var opts []Option
	if !IsDropFrameString(string(text)) {
		opts = append(opts, WithRate(tc.rate))
	}
	parsed, err := Parse(string(text), opts...)
	if err != nil {
		return err
	}
	*tc = parsed
	return nil
}
