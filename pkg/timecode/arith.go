package timecode

import (
	"cmp"
	"fmt"
	"math/bits"
)

func addSat(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return sum
}

func mulSat(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return ^uint64(0)
	}
	return lo
}

func subSat(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// withTicks returns a copy of tc holding total. The ceiling is MaxTicks,
// or every group at its maximum once tc already lies past MaxTicks, so
// saturation never lowers a value. Totals above MaxTicks keep frames at
// or past the rate instead of being clamped.
func (tc Timecode) withTicks(total uint64) Timecode {
	cur := tc.Ticks()
	limit := MaxTicks(tc.rate)
	ceiling := limit
	if cur > limit {
		ceiling = groupsMax(tc.rate)
	}
	total = min(total, ceiling)
	switch {
	case total == cur:
	case total <= limit:
		tc.SetTicks(total)
	default:
		tc.spread(total)
	}
	return tc
}

func (tc Timecode) sameRate(o Timecode) error {
	if tc.rate != o.rate {
		return fmt.Errorf("%w: %s and %s", ErrRateMismatch, tc.rate, o.rate)
	}
	return nil
}

// Add returns tc+o, saturating at MaxTicks or at tc when tc is beyond it.
func (tc Timecode) Add(o Timecode) (Timecode, error) {
	if err := tc.sameRate(o); err != nil {
		return Timecode{}, err
	}
	return tc.AddTicks(o.Ticks()), nil
}

// Sub returns tc-o, saturating at zero.
func (tc Timecode) Sub(o Timecode) (Timecode, error) {
	if err := tc.sameRate(o); err != nil {
		return Timecode{}, err
	}
	return tc.SubTicks(o.Ticks()), nil
}

// Mul returns the tick product, saturating like Add.
func (tc Timecode) Mul(o Timecode) (Timecode, error) {
	if err := tc.sameRate(o); err != nil {
		return Timecode{}, err
	}
	return tc.MulTicks(o.Ticks()), nil
}

// Div returns the integer tick quotient. It panics with ErrDivideByZero
// when o is zero ticks.
func (tc Timecode) Div(o Timecode) (Timecode, error) {
	if err := tc.sameRate(o); err != nil {
		return Timecode{}, err
	}
	return tc.DivTicks(o.Ticks()), nil
}

func (tc Timecode) AddTicks(n uint64) Timecode { return tc.withTicks(addSat(tc.Ticks(), n)) }
func (tc Timecode) SubTicks(n uint64) Timecode { return tc.withTicks(subSat(tc.Ticks(), n)) }
func (tc Timecode) MulTicks(n uint64) Timecode { return tc.withTicks(mulSat(tc.Ticks(), n)) }

// DivTicks panics with ErrDivideByZero when n is zero.
func (tc Timecode) DivTicks(n uint64) Timecode {
	if n == 0 {
		panic(ErrDivideByZero)
	}
	return tc.withTicks(tc.Ticks() / n)
}

// Inc advances tc by one tick and returns the new value.
func (tc *Timecode) Inc() Timecode {
	*tc = tc.AddTicks(1)
	return *tc
}

// PostInc advances tc by one tick and returns the value before the step.
func (tc *Timecode) PostInc() Timecode {
	prev := *tc
	*tc = tc.AddTicks(1)
	return prev
}

// Equal reports whether both the tick count and the frame rate match.
func (tc Timecode) Equal(o Timecode) bool {
	return tc.rate == o.rate && tc.Ticks() == o.Ticks()
}

// Compare orders by tick count only; the frame rate is not consulted.
func (tc Timecode) Compare(o Timecode) int {
	return cmp.Compare(tc.Ticks(), o.Ticks())
}

// Less reports whether tc has fewer ticks than o.
func (tc Timecode) Less(o Timecode) bool {
	return tc.Compare(o) < 0
}

// EqualTicks compares against a raw tick count.
func (tc Timecode) EqualTicks(n uint64) bool {
	return tc.Ticks() == n
}

// CompareTicks orders against a raw tick count.
func (tc Timecode) CompareTicks(n uint64) int {
	return cmp.Compare(tc.Ticks(), n)
}
