package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	apperrors "github.com/zsiec/chrono/internal/errors"
	"github.com/zsiec/chrono/internal/logger"
	"github.com/zsiec/chrono/internal/metrics"
	"github.com/zsiec/chrono/pkg/fps"
	"github.com/zsiec/chrono/pkg/timecode"
	"github.com/zsiec/chrono/pkg/version"
)

// maxBodyBytes caps request bodies; RTP batches are the largest.
const maxBodyBytes = 4 << 20

// handleVersion handles the /version endpoint
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	s.writeJSON(w, r, http.StatusOK, version.GetInfo())
}

type frameRateView struct {
	Name           string  `json:"name"`
	Int            int64   `json:"int"`
	Float          float64 `json:"float"`
	DropFrame      bool    `json:"drop_frame"`
	TicksPerSecond uint64  `json:"ticks_per_second"`
	MaxTicks       uint64  `json:"max_ticks"`
	MaxTimecode    string  `json:"max_timecode"`
	Default        bool    `json:"default"`
}

// handleFrameRates lists the frame rate catalog.
func (s *Server) handleFrameRates(w http.ResponseWriter, r *http.Request) {
	rates := fps.All()
	views := make([]frameRateView, 0, len(rates))
	for _, rate := range rates {
		top := timecode.FromTicks(timecode.MaxTicks(rate), timecode.WithRate(rate), timecode.WithExtended(true))
		views = append(views, frameRateView{
			Name:           rate.String(),
			Int:            rate.Int(),
			Float:          rate.Float(),
			DropFrame:      rate.IsDropFrame(),
			TicksPerSecond: timecode.UnitSize(timecode.Seconds, rate),
			MaxTicks:       top.Ticks(),
			MaxTimecode:    top.String(),
			Default:        rate == s.defaults.rate,
		})
	}
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"rates":   views,
		"default": s.defaults.rate.String(),
	})
}

type groupsView struct {
	Hours     uint64 `json:"hours"`
	Minutes   uint64 `json:"minutes"`
	Seconds   uint64 `json:"seconds"`
	Frames    uint64 `json:"frames"`
	Subframes uint64 `json:"subframes"`
}

// timecodeView is the JSON rendering of a timecode.
type timecodeView struct {
	Timecode  string     `json:"timecode"`
	Display   string     `json:"display"`
	Rate      string     `json:"rate"`
	DropFrame bool       `json:"drop_frame"`
	Extended  bool       `json:"extended"`
	Ticks     uint64     `json:"ticks"`
	Seconds   float64    `json:"seconds"`
	Groups    groupsView `json:"groups"`
}

func viewOf(tc timecode.Timecode) timecodeView {
	h, m, sec, f, sf := tc.Groups()
	return timecodeView{
		Timecode:  tc.String(),
		Display:   tc.Display(),
		Rate:      tc.Rate().String(),
		DropFrame: tc.IsDropFrame(),
		Extended:  tc.Extended(),
		Ticks:     tc.Ticks(),
		Seconds:   tc.Float64(),
		Groups:    groupsView{Hours: h, Minutes: m, Seconds: sec, Frames: f, Subframes: sf},
	}
}

// decode reads a JSON body into v, rejecting unknown fields.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeValidation, "invalid request body: "+err.Error(), http.StatusBadRequest)
	}
	return nil
}

// resolveRate parses a rate name, falling back to the server default.
func (s *Server) resolveRate(name string) (fps.Rate, error) {
	if name == "" {
		return s.defaults.rate, nil
	}
	rate, err := fps.Parse(name)
	if err != nil {
		metrics.IncrementUnknownRate("request")
		return fps.None, apperrors.Wrap(err, apperrors.ErrorTypeValidation, err.Error(), http.StatusBadRequest).
			WithCode(apperrors.CodeUnknownRate).
			WithDetails(map[string]interface{}{"rate": name})
	}
	return rate, nil
}

// parseTimecode reads input at rateName. Without a rate, drop-frame input
// selects the drop-frame rate and anything else the server default.
func (s *Server) parseTimecode(r *http.Request, input, rateName string, extended *bool) (timecode.Timecode, error) {
	var opts []timecode.Option
	if rateName != "" || !timecode.IsDropFrameString(input) {
		rate, err := s.resolveRate(rateName)
		if err != nil {
			return timecode.Timecode{}, err
		}
		opts = append(opts, timecode.WithRate(rate))
	}
	if extended != nil {
		opts = append(opts, timecode.WithExtended(*extended))
	}

	tc, err := timecode.Parse(input, opts...)
	if err != nil {
		s.noteParseError(r, input, err)
		return timecode.Timecode{}, err
	}
	if err := s.checkStrict(tc); err != nil {
		s.noteParseError(r, input, err)
		return timecode.Timecode{}, err
	}
	return tc, nil
}

// checkStrict rejects frame counts the rate never reaches when strict mode
// is on.
func (s *Server) checkStrict(tc timecode.Timecode) error {
	if !s.defaults.strict {
		return nil
	}
	limit := uint64(math.Ceil(tc.Rate().Float()))
	if limit == 0 || tc.Frames() < limit {
		return nil
	}
	return apperrors.New(apperrors.ErrorTypeValidation, "frame count exceeds the frame rate", http.StatusBadRequest).
		WithCode(apperrors.CodeGroupOutOfRange).
		WithDetails(map[string]interface{}{
			"frames": tc.Frames(),
			"limit":  limit,
			"rate":   tc.Rate().String(),
		})
}

func parseErrorReason(err error) string {
	switch {
	case errors.Is(err, timecode.ErrInvalidLength):
		return "invalid_length"
	case errors.Is(err, timecode.ErrInvalidDigit):
		return "invalid_digit"
	case errors.Is(err, timecode.ErrInvalidSeparator):
		return "invalid_separator"
	case errors.Is(err, timecode.ErrGroupOutOfRange):
		return "group_out_of_range"
	}
	if appErr, ok := apperrors.GetAppError(err); ok && appErr.Code == apperrors.CodeGroupOutOfRange {
		return "strict_frames"
	}
	return "other"
}

func (s *Server) noteParseError(r *http.Request, input string, err error) {
	reason := parseErrorReason(err)
	metrics.RecordParseError(reason)
	s.sampled.DebugWithCategory(logger.CategoryParseFailure, "Rejected timecode", map[string]interface{}{
		"input":      input,
		"reason":     reason,
		"request_id": logger.GetRequestID(r.Context()),
	})
}

func (s *Server) noteSaturation(r *http.Request, op string, tc timecode.Timecode) {
	metrics.RecordSaturation(op)
	s.sampled.InfoWithCategory(logger.CategorySaturation, "Timecode result saturated", map[string]interface{}{
		"operation":  op,
		"result":     tc.String(),
		"rate":       tc.Rate().String(),
		"request_id": logger.GetRequestID(r.Context()),
	})
}

// writeJSON is a helper to write JSON responses
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).WithError(err).Error("Failed to encode response")
	}
}

// writeError is a helper to write error responses
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorHandler.HandleError(w, r, err)
}
