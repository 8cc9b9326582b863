package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAdapter() (Logger, *bytes.Buffer) {
	base := logrus.New()
	var buf bytes.Buffer
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetLevel(logrus.DebugLevel)
	return NewLogrusAdapter(logrus.NewEntry(base)), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestSampledLoggerBurst(t *testing.T) {
	base, buf := newBufferedAdapter()
	s := NewSampledLogger(base).WithSampler("noisy", time.Hour, 3)

	for i := 0; i < 10; i++ {
		s.WarnWithCategory("noisy", "unknown fps format", map[string]interface{}{"i": i})
	}

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "noisy", lines[0]["category"])
	assert.Equal(t, "unknown fps format", lines[0]["msg"])

	stats := s.Stats()["noisy"]
	assert.Equal(t, int64(3), stats.Logged)
	assert.Equal(t, int64(7), stats.Dropped)
}

func TestSampledLoggerReportsSuppressed(t *testing.T) {
	base, buf := newBufferedAdapter()
	s := NewSampledLogger(base).WithSampler("wrap", 20*time.Millisecond, 1)

	s.InfoWithCategory("wrap", "first", nil)
	s.InfoWithCategory("wrap", "dropped", nil)
	s.InfoWithCategory("wrap", "dropped", nil)
	time.Sleep(40 * time.Millisecond)
	s.InfoWithCategory("wrap", "second", nil)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Nil(t, lines[0]["suppressed"])
	assert.Equal(t, float64(2), lines[1]["suppressed"])
}

func TestSampledLoggerUnconfiguredCategoryAlwaysLogs(t *testing.T) {
	base, buf := newBufferedAdapter()
	s := NewServiceLogger(base)

	for i := 0; i < 20; i++ {
		s.DebugWithCategory("other", "always", nil)
	}
	s.ErrorWithCategory(CategoryUnknownRate, "errors bypass sampling", nil)

	assert.Len(t, decodeLines(t, buf), 21)
	assert.Contains(t, s.Stats(), CategoryUnknownRate)
	assert.Contains(t, s.Stats(), CategoryRTPWrap)
}

func TestSampledLoggerDerivedSharesSamplers(t *testing.T) {
	base, buf := newBufferedAdapter()
	s := NewSampledLogger(base).WithSampler("c", time.Hour, 1)

	derived := s.WithField("component", "rtp").(*SampledLogger)
	derived.WarnWithCategory("c", "one", nil)
	s.WarnWithCategory("c", "two", nil)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "rtp", lines[0]["component"])
}
