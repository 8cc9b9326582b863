package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultSaturate = "saturated"
)

var (
	// Timecode engine metrics
	timecodeOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chrono_timecode_operations_total",
		Help: "Total timecode operations served by the API",
	}, []string{"operation", "result"})

	timecodeParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chrono_timecode_parse_errors_total",
		Help: "Total rejected timecode strings by reason",
	}, []string{"reason"})

	timecodeSaturationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chrono_timecode_saturations_total",
		Help: "Total arithmetic results clamped to the representable range",
	}, []string{"operation"})

	unknownRatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chrono_fps_unknown_lookups_total",
		Help: "Total frame rate lookups that fell back to NONE",
	}, []string{"kind"})

	// Marks metrics
	marksActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chrono_marks_active",
		Help: "Number of stored timecode marks",
	}, []string{"backend"})

	marksOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chrono_marks_operation_duration_seconds",
		Help:    "Duration of mark store operations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
	}, []string{"backend", "operation"})

	// RTP clock metrics
	rtpPacketsMappedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chrono_rtp_packets_mapped_total",
		Help: "Total RTP timestamps mapped to timecodes",
	}, []string{"clock_rate"})

	rtpTimestampWrapsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chrono_rtp_timestamp_wraps_total",
		Help: "Total 32-bit RTP timestamp wraparounds observed",
	})

	rtcpSenderReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chrono_rtcp_sender_reports_total",
		Help: "Total RTCP sender reports applied to RTP clocks",
	})

	// Rate limiting
	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chrono_http_rate_limited_total",
		Help: "Total HTTP requests rejected by the rate limiter",
	})

	rateLimitClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chrono_http_rate_limit_clients",
		Help: "Number of client buckets tracked by the rate limiter",
	})
)

// RecordOperation counts one API operation and its outcome.
func RecordOperation(operation string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	timecodeOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordParseError counts a rejected timecode string.
func RecordParseError(reason string) {
	timecodeParseErrorsTotal.WithLabelValues(reason).Inc()
}

// RecordSaturation counts an arithmetic result that hit a bound.
func RecordSaturation(operation string) {
	timecodeSaturationsTotal.WithLabelValues(operation).Inc()
	timecodeOperationsTotal.WithLabelValues(operation, ResultSaturate).Inc()
}

// IncrementUnknownRate counts a catalog lookup miss.
func IncrementUnknownRate(kind string) {
	unknownRatesTotal.WithLabelValues(kind).Inc()
}

// SetActiveMarks sets the number of stored marks for a backend
func SetActiveMarks(backend string, count int) {
	marksActive.WithLabelValues(backend).Set(float64(count))
}

// IncrementActiveMarks and DecrementActiveMarks track single mark changes.
func IncrementActiveMarks(backend string) {
	marksActive.WithLabelValues(backend).Inc()
}

func DecrementActiveMarks(backend string) {
	marksActive.WithLabelValues(backend).Dec()
}

// RecordMarksOperation records the duration of a mark store call
func RecordMarksOperation(backend, operation string, seconds float64) {
	marksOperationDuration.WithLabelValues(backend, operation).Observe(seconds)
}

// RecordRTPPacketMapped counts a mapped RTP timestamp for a clock rate
func RecordRTPPacketMapped(clockRate string) {
	rtpPacketsMappedTotal.WithLabelValues(clockRate).Inc()
}

// IncrementRTPWraps counts one timestamp wraparound
func IncrementRTPWraps() {
	rtpTimestampWrapsTotal.Inc()
}

// IncrementSenderReports counts one applied sender report
func IncrementSenderReports() {
	rtcpSenderReportsTotal.Inc()
}

// IncrementRateLimited counts one rejected request
func IncrementRateLimited() {
	rateLimitedTotal.Inc()
}

// SetRateLimitClients sets the number of tracked client buckets
func SetRateLimitClients(count int) {
	rateLimitClients.Set(float64(count))
}
