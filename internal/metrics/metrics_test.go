package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	okBefore := testutil.ToFloat64(timecodeOperationsTotal.WithLabelValues("parse", ResultOK))
	errBefore := testutil.ToFloat64(timecodeOperationsTotal.WithLabelValues("parse", ResultError))

	RecordOperation("parse", nil)
	RecordOperation("parse", nil)
	RecordOperation("parse", errors.New("bad digit"))

	assert.Equal(t, okBefore+2, testutil.ToFloat64(timecodeOperationsTotal.WithLabelValues("parse", ResultOK)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(timecodeOperationsTotal.WithLabelValues("parse", ResultError)))
}

func TestRecordParseError(t *testing.T) {
	before := testutil.ToFloat64(timecodeParseErrorsTotal.WithLabelValues("invalid_length"))

	for i := 0; i < 3; i++ {
		RecordParseError("invalid_length")
	}

	assert.Equal(t, before+3, testutil.ToFloat64(timecodeParseErrorsTotal.WithLabelValues("invalid_length")))
}

func TestRecordSaturation(t *testing.T) {
	satBefore := testutil.ToFloat64(timecodeSaturationsTotal.WithLabelValues("add"))
	opBefore := testutil.ToFloat64(timecodeOperationsTotal.WithLabelValues("add", ResultSaturate))

	RecordSaturation("add")

	assert.Equal(t, satBefore+1, testutil.ToFloat64(timecodeSaturationsTotal.WithLabelValues("add")))
	assert.Equal(t, opBefore+1, testutil.ToFloat64(timecodeOperationsTotal.WithLabelValues("add", ResultSaturate)))
}

func TestIncrementUnknownRate(t *testing.T) {
	before := testutil.ToFloat64(unknownRatesTotal.WithLabelValues("float"))
	IncrementUnknownRate("float")
	assert.Equal(t, before+1, testutil.ToFloat64(unknownRatesTotal.WithLabelValues("float")))
}

func TestActiveMarks(t *testing.T) {
	tests := []struct {
		backend string
		count   int
	}{
		{"redis", 5},
		{"memory", 3},
		{"redis", 10},
		{"memory", 0},
	}

	for _, tt := range tests {
		SetActiveMarks(tt.backend, tt.count)
		assert.Equal(t, float64(tt.count), testutil.ToFloat64(marksActive.WithLabelValues(tt.backend)))
	}

	IncrementActiveMarks("memory")
	IncrementActiveMarks("memory")
	DecrementActiveMarks("memory")
	assert.Equal(t, float64(1), testutil.ToFloat64(marksActive.WithLabelValues("memory")))
}

func TestRecordMarksOperation(t *testing.T) {
	durations := []float64{0.0002, 0.001, 0.05}
	for _, d := range durations {
		RecordMarksOperation("redis", "create", d)
	}

	histogram := marksOperationDuration.WithLabelValues("redis", "create").(prometheus.Histogram)

	var m dto.Metric
	require.NoError(t, histogram.Write(&m))
	assert.GreaterOrEqual(t, m.Histogram.GetSampleCount(), uint64(len(durations)))
}

func TestRTPCounters(t *testing.T) {
	mappedBefore := testutil.ToFloat64(rtpPacketsMappedTotal.WithLabelValues("90000"))
	wrapsBefore := testutil.ToFloat64(rtpTimestampWrapsTotal)
	reportsBefore := testutil.ToFloat64(rtcpSenderReportsTotal)

	for i := 0; i < 4; i++ {
		RecordRTPPacketMapped("90000")
	}
	IncrementRTPWraps()
	IncrementSenderReports()
	IncrementSenderReports()

	assert.Equal(t, mappedBefore+4, testutil.ToFloat64(rtpPacketsMappedTotal.WithLabelValues("90000")))
	assert.Equal(t, wrapsBefore+1, testutil.ToFloat64(rtpTimestampWrapsTotal))
	assert.Equal(t, reportsBefore+2, testutil.ToFloat64(rtcpSenderReportsTotal))
}

func TestRateLimitMetrics(t *testing.T) {
	before := testutil.ToFloat64(rateLimitedTotal)
	IncrementRateLimited()
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimitedTotal))

	SetRateLimitClients(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(rateLimitClients))
}
