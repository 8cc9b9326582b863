// Package timecode implements a fixed-point broadcast timecode value.
//
// A Timecode holds hours, minutes, seconds, frames and subframes at a
// frame rate from package fps. One frame is 100 subframes and a subframe
// is the tick, the unit all arithmetic and comparison is done in.
// Arithmetic saturates at zero and at MaxTicks instead of wrapping.
//
// The zero value is 00:00:00:00 at the default frame rate.
package timecode

import (
	"fmt"
	"math"

	"github.com/zsiec/chrono/pkg/fps"
)

// Timecode is a position on a media timeline. It is a plain value and is
// safe to copy.
type Timecode struct {
	groups   [NumGroups]uint8
	rate     fps.Rate
	extended bool
}

// Option configures a Timecode at construction.
type Option func(*options)

type options struct {
	rate        fps.Rate
	rateSet     bool
	subframes   int
	extended    bool
	extendedSet bool
}

// WithRate sets the frame rate. Without it the default rate is used, or
// the drop-frame rate when parsing a drop-frame string.
func WithRate(r fps.Rate) Option {
	return func(o *options) {
		o.rate = r
		o.rateSet = true
	}
}

// WithSubframes adds subframes to the groups passed to New.
func WithSubframes(sf int) Option {
	return func(o *options) {
		o.subframes = sf
	}
}

// WithExtended controls whether String renders the subframes field.
func WithExtended(extended bool) Option {
	return func(o *options) {
		o.extended = extended
		o.extendedSet = true
	}
}

func buildOptions(opts []Option) options {
	o := options{rate: fps.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Zero returns 00:00:00:00 at the default frame rate.
func Zero() Timecode {
	return Timecode{rate: fps.Default()}
}

// New builds a timecode from group values, which may exceed their moduli:
// the total tick count is computed first and then decomposed.
func New(hours, minutes, seconds, frames int, opts ...Option) (Timecode, error) {
	o := buildOptions(opts)

	raw := [NumGroups]int{hours, minutes, seconds, frames, o.subframes}
	var total uint64
	for g, v := range raw {
		if v < 0 {
			return Timecode{}, fmt.Errorf("%w: %s=%d", ErrNegativeGroup, Group(g), v)
		}
		total = addSat(total, mulSat(uint64(v), UnitSize(Group(g), o.rate)))
	}

	tc := Timecode{rate: o.rate, extended: o.extended}
	tc.SetTicks(total)
	return tc, nil
}

// MustNew is like New but panics on invalid input.
func MustNew(hours, minutes, seconds, frames int, opts ...Option) Timecode {
	tc, err := New(hours, minutes, seconds, frames, opts...)
	if err != nil {
		panic(err)
	}
	return tc
}

// FromTicks builds a timecode from a total tick count.
func FromTicks(ticks uint64, opts ...Option) Timecode {
	o := buildOptions(opts)
	tc := Timecode{rate: o.rate, extended: o.extended}
	tc.SetTicks(ticks)
	return tc
}

// FromSeconds builds a timecode from elapsed seconds, rounded to the
// nearest tick.
func FromSeconds(seconds float64, opts ...Option) (Timecode, error) {
	if seconds < 0 || math.IsNaN(seconds) {
		return Timecode{}, fmt.Errorf("%w: seconds=%v", ErrNegativeGroup, seconds)
	}
	o := buildOptions(opts)
	tc := Timecode{rate: o.rate, extended: o.extended}

	ticks := math.Round(seconds * o.rate.Float() * SubframesPerFrame)
	if ticks >= float64(MaxTicks(o.rate)) {
		tc.SetTicks(MaxTicks(o.rate))
	} else {
		tc.SetTicks(uint64(ticks))
	}
	return tc, nil
}

// Parse reads HH:MM:SS:FF or HH:MM:SS:FF.SF. Each group is taken
// literally and must be below its modulus. The extended flag follows the
// input form unless WithExtended is given.
func Parse(s string, opts ...Option) (Timecode, error) {
	f, err := ParseFields(s)
	if err != nil {
		return Timecode{}, err
	}
	o := buildOptions(opts)

	tc := Timecode{rate: o.rate, extended: f.Extended}
	if !o.rateSet && f.DropFrame {
		tc.rate = fps.FPS29_97DF
	}
	if o.extendedSet {
		tc.extended = o.extended
	}

	values := f.values()
	for g := Hours; g <= Subframes; g++ {
		if values[g] >= g.Modulus() {
			return Timecode{}, &ParseError{Input: s, Offset: groupOffset(g), Err: fmt.Errorf("%w: %s=%d", ErrGroupOutOfRange, g, values[g])}
		}
		tc.groups[g] = uint8(values[g])
	}
	return tc, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string, opts ...Option) Timecode {
	tc, err := Parse(s, opts...)
	if err != nil {
		panic(err)
	}
	return tc
}

// Rate returns the frame rate the ticks are interpreted against.
func (tc Timecode) Rate() fps.Rate {
	return tc.rate
}

// SetRate changes the frame rate and keeps the group values.
func (tc *Timecode) SetRate(r fps.Rate) {
	tc.rate = r
}

// IsDropFrame reports whether the frame rate is drop-frame.
func (tc Timecode) IsDropFrame() bool {
	return tc.rate.IsDropFrame()
}

// Extended reports whether String includes subframes.
func (tc Timecode) Extended() bool {
	return tc.extended
}

// SetExtended toggles the subframes field in String.
func (tc *Timecode) SetExtended(extended bool) {
	tc.extended = extended
}

// Reset zeroes the groups and flags and keeps the frame rate.
func (tc *Timecode) Reset() {
	*tc = Timecode{rate: tc.rate}
}

// ResetAll also restores the default frame rate.
func (tc *Timecode) ResetAll() {
	*tc = Zero()
}
