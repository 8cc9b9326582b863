package rtpclock

import (
	"sync"
)

// DefaultClockRate is the RTP video clock.
const DefaultClockRate = 90000

const (
	wrapSpan = int64(1) << 32
	halfSpan = uint32(0x80000000)
)

// Mapper converts 32-bit RTP timestamps into elapsed clock units since the
// first timestamp seen, counting wraparounds.
type Mapper struct {
	clockRate uint32

	started bool
	base    uint32 // first RTP timestamp seen
	last    uint32 // highest timestamp seen in the current wrap epoch
	wraps   int
	elapsed int64 // result of the last call to Elapsed

	mu sync.RWMutex
}

// NewMapper creates a mapper for clockRate Hz; zero selects 90 kHz.
func NewMapper(clockRate uint32) *Mapper {
	if clockRate == 0 {
		clockRate = DefaultClockRate
	}
	return &Mapper{clockRate: clockRate}
}

// ClockRate returns the RTP clock rate in Hz.
func (m *Mapper) ClockRate() uint32 {
	return m.clockRate
}

// Elapsed maps ts and advances the wrap state. A backward jump of more
// than half the timestamp space is a wrap; a forward jump of more than
// half is a late packet from the previous epoch. Packets older than the
// first timestamp map to negative values.
func (m *Mapper) Elapsed(ts uint32) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		m.started = true
		m.base = ts
		m.last = ts
		m.elapsed = 0
		return 0
	}

	epoch := m.wraps
	switch {
	case ts < m.last && m.last-ts > halfSpan:
		m.wraps++
		epoch = m.wraps
		m.last = ts
	case ts > m.last && ts-m.last > halfSpan:
		epoch = m.wraps - 1
	case ts > m.last:
		m.last = ts
	}

	m.elapsed = int64(epoch)*wrapSpan + int64(ts) - int64(m.base)
	return m.elapsed
}

// Project maps ts like Elapsed without changing any state. Before the first
// timestamp it returns 0.
func (m *Mapper) Project(ts uint32) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.started {
		return 0
	}
	epoch := m.wraps
	switch {
	case ts < m.last && m.last-ts > halfSpan:
		epoch++
	case ts > m.last && ts-m.last > halfSpan:
		epoch--
	}
	return int64(epoch)*wrapSpan + int64(ts) - int64(m.base)
}

// Started reports whether a timestamp has been mapped.
func (m *Mapper) Started() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started
}

// Wraps returns the number of wraparounds detected.
func (m *Mapper) Wraps() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.wraps
}

// Plausible reports whether ts is within ten seconds ahead of the last
// timestamp. The first timestamp is always plausible.
func (m *Mapper) Plausible(ts uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.started {
		return true
	}
	delta := ts - m.last // modular
	return uint64(delta) < uint64(m.clockRate)*10
}

// Reset forgets the base timestamp and wrap count.
func (m *Mapper) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = false
	m.base = 0
	m.last = 0
	m.wraps = 0
	m.elapsed = 0
}

// MapperStats is a snapshot of the mapper state.
type MapperStats struct {
	ClockRate   uint32 `json:"clock_rate"`
	BaseRTPTime uint32 `json:"base_rtp_time"`
	LastRTPTime uint32 `json:"last_rtp_time"`
	Wraps       int    `json:"wraps"`
	Elapsed     int64  `json:"elapsed"`
}

// Stats returns the current mapper state.
func (m *Mapper) Stats() MapperStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MapperStats{
		ClockRate:   m.clockRate,
		BaseRTPTime: m.base,
		LastRTPTime: m.last,
		Wraps:       m.wraps,
		Elapsed:     m.elapsed,
	}
}
