package logger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Log categories that can be emitted at request rate.
const (
	CategoryUnknownRate  = "unknown_rate"
	CategoryParseFailure = "parse_failure"
	CategoryRTPWrap      = "rtp_wrap"
	CategorySaturation   = "saturation"
)

// SampledLogger caps how often each category reaches the base logger.
// Categories without a sampler are always logged.
type SampledLogger struct {
	base     Logger
	mu       *sync.RWMutex
	samplers map[string]*sampler
}

type sampler struct {
	limiter *rate.Limiter
	logged  atomic.Int64
	dropped atomic.Int64
	pending atomic.Int64 // dropped since the last logged message
}

// SamplerStats holds counters for one category.
type SamplerStats struct {
	Category string `json:"category"`
	Logged   int64  `json:"logged"`
	Dropped  int64  `json:"dropped"`
}

// NewSampledLogger wraps base without any samplers.
func NewSampledLogger(base Logger) *SampledLogger {
	return &SampledLogger{
		base:     base,
		mu:       &sync.RWMutex{},
		samplers: make(map[string]*sampler),
	}
}

// NewServiceLogger returns a sampled logger configured for the categories
// the API can trigger from client input.
func NewServiceLogger(base Logger) *SampledLogger {
	return NewSampledLogger(base).
		WithSampler(CategoryUnknownRate, time.Second, 5).
		WithSampler(CategoryParseFailure, time.Second, 10).
		WithSampler(CategoryRTPWrap, 10*time.Second, 1).
		WithSampler(CategorySaturation, time.Second, 5)
}

// WithSampler allows burst messages for category and then one per every.
func (s *SampledLogger) WithSampler(category string, every time.Duration, burst int) *SampledLogger {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samplers[category] = &sampler{limiter: rate.NewLimiter(rate.Every(every), burst)}
	return s
}

func (s *SampledLogger) lookup(category string) *sampler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.samplers[category]
}

// allow reports whether a message in category may be logged and how many
// were dropped since the previous one.
func (s *SampledLogger) allow(category string) (bool, int64) {
	sm := s.lookup(category)
	if sm == nil {
		return true, 0
	}
	if !sm.limiter.Allow() {
		sm.dropped.Add(1)
		sm.pending.Add(1)
		return false, 0
	}
	sm.logged.Add(1)
	return true, sm.pending.Swap(0)
}

func (s *SampledLogger) logWithCategory(level logrus.Level, category, msg string, fields map[string]interface{}) {
	ok, dropped := s.allow(category)
	if !ok {
		return
	}
	out := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		out[k] = v
	}
	out["category"] = category
	if dropped > 0 {
		out["suppressed"] = dropped
	}
	s.base.WithFields(out).Log(level, msg)
}

func (s *SampledLogger) DebugWithCategory(category, msg string, fields map[string]interface{}) {
	s.logWithCategory(logrus.DebugLevel, category, msg, fields)
}

func (s *SampledLogger) InfoWithCategory(category, msg string, fields map[string]interface{}) {
	s.logWithCategory(logrus.InfoLevel, category, msg, fields)
}

func (s *SampledLogger) WarnWithCategory(category, msg string, fields map[string]interface{}) {
	s.logWithCategory(logrus.WarnLevel, category, msg, fields)
}

// ErrorWithCategory is never sampled.
func (s *SampledLogger) ErrorWithCategory(category, msg string, fields map[string]interface{}) {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["category"] = category
	s.base.WithFields(out).Error(msg)
}

// Stats returns the counters of every configured category.
func (s *SampledLogger) Stats() map[string]SamplerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]SamplerStats, len(s.samplers))
	for name, sm := range s.samplers {
		stats[name] = SamplerStats{
			Category: name,
			Logged:   sm.logged.Load(),
			Dropped:  sm.dropped.Load(),
		}
	}
	return stats
}

// Logger interface; derived loggers share the samplers.

func (s *SampledLogger) derive(base Logger) *SampledLogger {
	return &SampledLogger{base: base, mu: s.mu, samplers: s.samplers}
}

func (s *SampledLogger) WithFields(fields map[string]interface{}) Logger {
	return s.derive(s.base.WithFields(fields))
}

func (s *SampledLogger) WithField(key string, value interface{}) Logger {
	return s.derive(s.base.WithField(key, value))
}

func (s *SampledLogger) WithError(err error) Logger {
	return s.derive(s.base.WithError(err))
}

func (s *SampledLogger) Debug(args ...interface{}) { s.base.Debug(args...) }
func (s *SampledLogger) Info(args ...interface{}) { s.base.Info(args...) }
func (s *SampledLogger) Warn(args ...interface{}) { s.base.Warn(args...) }
func (s *SampledLogger) Error(args ...interface{}) { s.base.Error(args...) }
func (s *SampledLogger) Log(level logrus.Level, args ...interface{}) { s.base.Log(level, args...) }
func (s *SampledLogger) Debugf(format string, args ...interface{}) { s.base.Debugf(format, args...) }
func (s *SampledLogger) Infof(format string, args ...interface{}) { s.base.Infof(format, args...) }
func (s *SampledLogger) Warnf(format string, args ...interface{}) { s.base.Warnf(format, args...) }
func (s *SampledLogger) Errorf(format string, args ...interface{}) { s.base.Errorf(format, args...) }
func (s *SampledLogger) Fatal(args ...interface{}) { s.base.Fatal(args...) }
