package timecode

import "github.com/zsiec/chrono/pkg/fps"

// Group identifies one field of a timecode, highest first.
type Group int

const (
	Hours Group = iota
	Minutes
	Seconds
	Frames
	Subframes
)

// NumGroups is the number of fields in a timecode.
const NumGroups = 5

// SubframesPerFrame is the fixed tick resolution of one frame.
const SubframesPerFrame = 100

var groupNames = [NumGroups]string{"hours", "minutes", "seconds", "frames", "subframes"}

func (g Group) String() string {
	if g < Hours || g > Subframes {
		return "unknown"
	}
	return groupNames[g]
}

// ParseGroup resolves a group by its lower-case name.
func ParseGroup(name string) (Group, bool) {
	for i, n := range groupNames {
		if n == name {
			return Group(i), true
		}
	}
	return 0, false
}

// Modulus is the number of distinct values a group holds. Frames are
// capped at 60 regardless of the frame rate.
func (g Group) Modulus() uint64 {
	if g == Subframes {
		return SubframesPerFrame
	}
	return 60
}

// UnitSize returns the number of ticks one unit of g spans at rate r.
func UnitSize(g Group, r fps.Rate) uint64 {
	switch g {
	case Subframes:
		return 1
	case Frames:
		return SubframesPerFrame
	case Seconds:
		return r.Uint() * SubframesPerFrame
	case Minutes:
		return 60 * UnitSize(Seconds, r)
	case Hours:
		return 60 * UnitSize(Minutes, r)
	}
	return 0
}

// MaxTicks is the largest tick count with a canonical decomposition at
// rate r, one tick short of 60 hours. Groups set directly may hold more,
// since frames run to 59 at every rate; arithmetic never lowers such a
// value to MaxTicks.
//
// Rates without a magnitude can only count frames and subframes. Hours,
// minutes and seconds then span zero ticks, so a value at None holding
// 01:00:00:00 has 0 ticks and compares equal to Zero at None.
func MaxTicks(r fps.Rate) uint64 {
	if r.Uint() == 0 {
		return Frames.Modulus()*SubframesPerFrame - 1
	}
	return Hours.Modulus()*UnitSize(Hours, r) - 1
}

// SetGroup stores raw, expressed in units of g, with cascading overflow:
// g becomes raw modulo its capacity and any whole quotient replaces the
// next higher group the same way. Overflow past hours is dropped.
func (tc *Timecode) SetGroup(g Group, raw uint64) {
	if g < Hours || g > Subframes {
		return
	}
	capacity := g.Modulus()
	tc.groups[g] = uint8(raw % capacity)
	if q := raw / capacity; q > 0 && g != Hours {
		tc.SetGroup(g-1, q)
	}
}

func (tc *Timecode) SetHours(raw uint64)     { tc.SetGroup(Hours, raw) }
func (tc *Timecode) SetMinutes(raw uint64)   { tc.SetGroup(Minutes, raw) }
func (tc *Timecode) SetSeconds(raw uint64)   { tc.SetGroup(Seconds, raw) }
func (tc *Timecode) SetFrames(raw uint64)    { tc.SetGroup(Frames, raw) }
func (tc *Timecode) SetSubframes(raw uint64) { tc.SetGroup(Subframes, raw) }

// SetTicks replaces every group with the decomposition of total,
// saturated to MaxTicks.
func (tc *Timecode) SetTicks(total uint64) {
	if limit := MaxTicks(tc.rate); total > limit {
		total = limit
	}
	for g := Hours; g <= Subframes; g++ {
		unit := UnitSize(g, tc.rate)
		if unit == 0 {
			tc.groups[g] = 0
			continue
		}
		tc.groups[g] = uint8(total / unit)
		total %= unit
	}
}

// groupsMax is the tick count of every group at its maximum,
// 59:59:59:59.99.
func groupsMax(r fps.Rate) uint64 {
	var total uint64
	for g := Hours; g <= Subframes; g++ {
		total += (g.Modulus() - 1) * UnitSize(g, r)
	}
	return total
}

// spread decomposes total greedily with every group capped at its
// modulus. It holds any total up to all groups at their maximum, which is
// the most a Timecode can carry at rates up to 60 fps.
func (tc *Timecode) spread(total uint64) {
	for g := Hours; g < Subframes; g++ {
		unit := UnitSize(g, tc.rate)
		if unit == 0 {
			tc.groups[g] = 0
			continue
		}
		v := min(total/unit, g.Modulus()-1)
		tc.groups[g] = uint8(v)
		total -= v * unit
	}
	tc.groups[Subframes] = uint8(min(total, Subframes.Modulus()-1))
}

// Group returns the current value of g.
func (tc Timecode) Group(g Group) uint64 {
	if g < Hours || g > Subframes {
		return 0
	}
	return uint64(tc.groups[g])
}

func (tc Timecode) Hours() uint64     { return tc.Group(Hours) }
func (tc Timecode) Minutes() uint64   { return tc.Group(Minutes) }
func (tc Timecode) Seconds() uint64   { return tc.Group(Seconds) }
func (tc Timecode) Frames() uint64    { return tc.Group(Frames) }
func (tc Timecode) Subframes() uint64 { return tc.Group(Subframes) }

// Groups returns all five fields at once.
func (tc Timecode) Groups() (hours, minutes, seconds, frames, subframes uint64) {
	return tc.Hours(), tc.Minutes(), tc.Seconds(), tc.Frames(), tc.Subframes()
}

// Ticks returns the total elapsed subframes.
func (tc Timecode) Ticks() uint64 {
	var total uint64
	for g := Hours; g <= Subframes; g++ {
		total += uint64(tc.groups[g]) * UnitSize(g, tc.rate)
	}
	return total
}
