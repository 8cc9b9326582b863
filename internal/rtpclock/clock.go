// Package rtpclock derives timecodes from RTP media timestamps.
//
// A Clock maps each packet timestamp to the media time elapsed since the
// first packet and renders it at a frame rate, optionally shifted by a
// start timecode. RTCP sender reports can anchor the clock to the time of
// day carried in their NTP timestamp.
package rtpclock

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"sync"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/zsiec/chrono/internal/logger"
	"github.com/zsiec/chrono/internal/metrics"
	"github.com/zsiec/chrono/pkg/fps"
	"github.com/zsiec/chrono/pkg/timecode"
)

var (
	// ErrSSRCMismatch is returned for packets from a different source than
	// the one the clock locked onto.
	ErrSSRCMismatch = errors.New("rtp ssrc mismatch")

	// ErrNoRate is returned when a clock is built without a frame rate.
	ErrNoRate = errors.New("frame rate required")
)

// ntpEpochOffset is the number of seconds from 1900-01-01 to 1970-01-01.
const ntpEpochOffset = 2208988800

// Option configures a Clock.
type Option func(*Clock)

// WithStart shifts every result by start.
func WithStart(start timecode.Timecode) Option {
	return func(c *Clock) {
		c.offset = start.Ticks()
	}
}

// WithExtended renders results with subframes.
func WithExtended(extended bool) Option {
	return func(c *Clock) {
		c.extended = extended
	}
}

// WithLogger reports wraparounds and SSRC changes to l.
func WithLogger(l *logger.SampledLogger) Option {
	return func(c *Clock) {
		c.logger = l
	}
}

// Clock turns the timestamps of one RTP source into timecodes.
type Clock struct {
	mapper   *Mapper
	rate     fps.Rate
	tps      uint64 // ticks per second of media time
	extended bool
	logger   *logger.SampledLogger
	label    string

	mu      sync.Mutex
	offset  uint64
	ssrc    uint32
	locked  bool
	wraps   int
	anchors int
}

// NewClock creates a clock for an RTP stream with the given clock rate
// (0 selects 90 kHz) rendering at rate.
func NewClock(clockRate uint32, rate fps.Rate, opts ...Option) (*Clock, error) {
	if rate == fps.None || !rate.Valid() {
		return nil, ErrNoRate
	}
	c := &Clock{
		mapper: NewMapper(clockRate),
		rate:   rate,
		tps:    ticksPerSecond(rate),
	}
	c.label = strconv.FormatUint(uint64(c.mapper.ClockRate()), 10)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ticksPerSecond counts ticks in one second of media time at the real
// frame rate, e.g. 2997 at 29.97 fps.
func ticksPerSecond(r fps.Rate) uint64 {
	return uint64(math.Round(r.Float() * timecode.SubframesPerFrame))
}

// Rate returns the frame rate results are rendered at.
func (c *Clock) Rate() fps.Rate {
	return c.rate
}

// Mapper exposes the underlying timestamp mapper.
func (c *Clock) Mapper() *Mapper {
	return c.mapper
}

// unitsToTicks converts clock units to ticks, rounding down and
// saturating. Negative values map to zero.
func (c *Clock) unitsToTicks(units int64) uint64 {
	if units <= 0 {
		return 0
	}
	clockRate := uint64(c.mapper.ClockRate())
	hi, lo := bits.Mul64(uint64(units), c.tps)
	if hi >= clockRate {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, clockRate)
	return q
}

func (c *Clock) render(ticks uint64) timecode.Timecode {
	c.mu.Lock()
	offset := c.offset
	c.mu.Unlock()

	total, carry := bits.Add64(offset, ticks, 0)
	if carry != 0 || total > timecode.MaxTicks(c.rate) {
		metrics.RecordSaturation("rtp")
	}
	if carry != 0 {
		total = math.MaxUint64
	}
	return timecode.FromTicks(total, timecode.WithRate(c.rate), timecode.WithExtended(c.extended))
}

// TimecodeAt maps one RTP timestamp.
func (c *Clock) TimecodeAt(ts uint32) timecode.Timecode {
	elapsed := c.mapper.Elapsed(ts)
	c.noteWraps()
	metrics.RecordRTPPacketMapped(c.label)
	return c.render(c.unitsToTicks(elapsed))
}

// Timecode maps the timestamp of pkt. The first packet locks the clock to
// its SSRC; later packets from another source are rejected.
func (c *Clock) Timecode(pkt *rtp.Packet) (timecode.Timecode, error) {
	if err := c.checkSSRC(pkt.SSRC); err != nil {
		return timecode.Timecode{}, err
	}
	return c.TimecodeAt(pkt.Timestamp), nil
}

// Unmarshal decodes a raw RTP packet and maps its timestamp.
func (c *Clock) Unmarshal(raw []byte) (timecode.Timecode, *rtp.Packet, error) {
	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(raw); err != nil {
		return timecode.Timecode{}, nil, fmt.Errorf("decode rtp packet: %w", err)
	}
	tc, err := c.Timecode(pkt)
	if err != nil {
		return timecode.Timecode{}, pkt, err
	}
	return tc, pkt, nil
}

func (c *Clock) checkSSRC(ssrc uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.locked {
		c.ssrc = ssrc
		c.locked = true
		return nil
	}
	if ssrc != c.ssrc {
		return fmt.Errorf("%w: got %d, locked to %d", ErrSSRCMismatch, ssrc, c.ssrc)
	}
	return nil
}

func (c *Clock) noteWraps() {
	wraps := c.mapper.Wraps()

	c.mu.Lock()
	added := wraps - c.wraps
	c.wraps = wraps
	c.mu.Unlock()

	for i := 0; i < added; i++ {
		metrics.IncrementRTPWraps()
	}
	if added > 0 && c.logger != nil {
		c.logger.InfoWithCategory(logger.CategoryRTPWrap, "RTP timestamp wrapped", map[string]interface{}{
			"wraps":      wraps,
			"clock_rate": c.mapper.ClockRate(),
		})
	}
}

// ApplySenderReport anchors the clock so that the RTP time of sr renders as
// the UTC time of day of its NTP timestamp. Reports from another SSRC than
// the locked one are rejected.
func (c *Clock) ApplySenderReport(sr *rtcp.SenderReport) error {
	if err := c.checkSSRC(sr.SSRC); err != nil {
		return err
	}

	if !c.mapper.Started() {
		c.mapper.Elapsed(sr.RTPTime)
	}
	elapsed := c.unitsToTicks(c.mapper.Project(sr.RTPTime))
	tod := c.timeOfDayTicks(NTPToTime(sr.NTPTime))

	offset := uint64(0)
	if tod > elapsed {
		offset = tod - elapsed
	}

	c.mu.Lock()
	c.offset = offset
	c.anchors++
	c.mu.Unlock()

	metrics.IncrementSenderReports()
	return nil
}

// ApplyRTCP decodes a compound RTCP packet and applies every sender report
// in it. It returns the number of reports applied.
func (c *Clock) ApplyRTCP(raw []byte) (int, error) {
	pkts, err := rtcp.Unmarshal(raw)
	if err != nil {
		return 0, fmt.Errorf("decode rtcp packet: %w", err)
	}

	applied := 0
	for _, p := range pkts {
		sr, ok := p.(*rtcp.SenderReport)
		if !ok {
			continue
		}
		if err := c.ApplySenderReport(sr); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (c *Clock) timeOfDayTicks(t time.Time) uint64 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	since := t.Sub(midnight)

	secs := uint64(since / time.Second)
	nanos := uint64(since % time.Second)
	return secs*c.tps + nanos*c.tps/uint64(time.Second)
}

// NTPToTime converts a 32.32 fixed-point NTP timestamp to a time.
func NTPToTime(ntp uint64) time.Time {
	secs := int64(ntp>>32) - ntpEpochOffset
	frac := ntp & 0xFFFFFFFF
	nanos := (frac * uint64(time.Second)) >> 32
	return time.Unix(secs, int64(nanos)).UTC()
}

// TimeToNTP converts t to a 32.32 fixed-point NTP timestamp.
func TimeToNTP(t time.Time) uint64 {
	secs := uint64(t.Unix() + ntpEpochOffset)
	frac := (uint64(t.Nanosecond()) << 32) / uint64(time.Second)
	return secs<<32 | frac
}

// Stats is a snapshot of a clock.
type Stats struct {
	Rate    string      `json:"rate"`
	SSRC    uint32      `json:"ssrc"`
	Offset  uint64      `json:"offset_ticks"`
	Anchors int         `json:"sender_reports"`
	Mapper  MapperStats `json:"mapper"`
}

// Stats returns the current clock state.
func (c *Clock) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Rate:    c.rate.String(),
		SSRC:    c.ssrc,
		Offset:  c.offset,
		Anchors: c.anchors,
		Mapper:  c.mapper.Stats(),
	}
}
