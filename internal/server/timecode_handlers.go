package server

import (
	"fmt"
	"math"
	"math/bits"
	"net/http"

	apperrors "github.com/zsiec/chrono/internal/errors"
	"github.com/zsiec/chrono/internal/metrics"
	"github.com/zsiec/chrono/pkg/fps"
	"github.com/zsiec/chrono/pkg/timecode"
)

// maxCascadeSteps bounds a single cascade request.
const maxCascadeSteps = 1000

// extended resolves an optional extended flag against the server default.
func (s *Server) extended(flag *bool) bool {
	if flag == nil {
		return s.defaults.extended
	}
	return *flag
}

type parseRequest struct {
	Timecode string `json:"timecode"`
	Rate     string `json:"rate,omitempty"`
	Extended *bool  `json:"extended,omitempty"`
}

// handleParse reads a timecode string.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tc, err := s.parseTimecode(r, req.Timecode, req.Rate, req.Extended)
	metrics.RecordOperation("parse", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, viewOf(tc))
}

type groupsRequest struct {
	Hours     int `json:"hours"`
	Minutes   int `json:"minutes"`
	Seconds   int `json:"seconds"`
	Frames    int `json:"frames"`
	Subframes int `json:"subframes"`
}

type convertRequest struct {
	Ticks    *uint64        `json:"ticks,omitempty"`
	Seconds  *float64       `json:"seconds,omitempty"`
	Groups   *groupsRequest `json:"groups,omitempty"`
	Rate     string         `json:"rate,omitempty"`
	Extended *bool          `json:"extended,omitempty"`
}

type convertResponse struct {
	timecodeView
	Saturated bool `json:"saturated"`
}

// handleConvert builds a timecode from ticks, seconds or raw group values.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tc, saturated, err := s.convert(req)
	if err != nil {
		metrics.RecordOperation("convert", err)
		s.writeError(w, r, err)
		return
	}
	if saturated {
		s.noteSaturation(r, "convert", tc)
	} else {
		metrics.RecordOperation("convert", nil)
	}
	s.writeJSON(w, r, http.StatusOK, convertResponse{timecodeView: viewOf(tc), Saturated: saturated})
}

func (s *Server) convert(req convertRequest) (timecode.Timecode, bool, error) {
	sources := 0
	for _, set := range []bool{req.Ticks != nil, req.Seconds != nil, req.Groups != nil} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return timecode.Timecode{}, false, apperrors.NewValidationError("exactly one of ticks, seconds or groups is required")
	}

	rate, err := s.resolveRate(req.Rate)
	if err != nil {
		return timecode.Timecode{}, false, err
	}
	opts := []timecode.Option{timecode.WithRate(rate), timecode.WithExtended(s.extended(req.Extended))}
	limit := timecode.MaxTicks(rate)

	switch {
	case req.Ticks != nil:
		return timecode.FromTicks(*req.Ticks, opts...), *req.Ticks > limit, nil

	case req.Seconds != nil:
		tc, err := timecode.FromSeconds(*req.Seconds, opts...)
		if err != nil {
			return timecode.Timecode{}, false, err
		}
		raw := math.Round(*req.Seconds * rate.Float() * timecode.SubframesPerFrame)
		return tc, raw > float64(limit), nil

	default:
		g := req.Groups
		tc, err := timecode.New(g.Hours, g.Minutes, g.Seconds, g.Frames, append(opts, timecode.WithSubframes(g.Subframes))...)
		if err != nil {
			return timecode.Timecode{}, false, err
		}
		return tc, groupTicks(g, rate) > float64(limit), nil
	}
}

// groupTicks sums raw group values in ticks without saturating.
func groupTicks(g *groupsRequest, rate fps.Rate) float64 {
	values := [timecode.NumGroups]int{g.Hours, g.Minutes, g.Seconds, g.Frames, g.Subframes}
	var total float64
	for i, v := range values {
		total += float64(v) * float64(timecode.UnitSize(timecode.Group(i), rate))
	}
	return total
}

type arithmeticRequest struct {
	Op       string  `json:"op"`
	Left     string  `json:"left"`
	Right    *string `json:"right,omitempty"`
	Operand  *uint64 `json:"operand,omitempty"`
	Rate     string  `json:"rate,omitempty"`
	Extended *bool   `json:"extended,omitempty"`
}

type arithmeticResponse struct {
	Op        string        `json:"op"`
	Left      timecodeView  `json:"left"`
	Right     *timecodeView `json:"right,omitempty"`
	Operand   *uint64       `json:"operand,omitempty"`
	Result    timecodeView  `json:"result"`
	Saturated bool          `json:"saturated"`

	result timecode.Timecode
}

// handleArithmetic applies add, sub, mul or div to a timecode and either
// another timecode or a raw tick operand.
func (s *Server) handleArithmetic(w http.ResponseWriter, r *http.Request) {
	var req arithmeticRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	op := "arith_" + req.Op
	resp, err := s.arithmetic(r, req)
	if err != nil {
		metrics.RecordOperation(op, err)
		s.writeError(w, r, err)
		return
	}
	if resp.Saturated {
		s.noteSaturation(r, op, resp.result)
	} else {
		metrics.RecordOperation(op, nil)
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) arithmetic(r *http.Request, req arithmeticRequest) (*arithmeticResponse, error) {
	switch req.Op {
	case "add", "sub", "mul", "div":
	default:
		return nil, apperrors.NewValidationError("op must be one of add, sub, mul, div").
			WithDetails(map[string]interface{}{"op": req.Op})
	}
	if (req.Right == nil) == (req.Operand == nil) {
		return nil, apperrors.NewValidationError("exactly one of right or operand is required")
	}

	left, err := s.parseTimecode(r, req.Left, req.Rate, req.Extended)
	if err != nil {
		return nil, err
	}
	resp := &arithmeticResponse{Op: req.Op, Left: viewOf(left)}

	var n uint64
	if req.Right != nil {
		right, err := s.parseTimecode(r, *req.Right, req.Rate, req.Extended)
		if err != nil {
			return nil, err
		}
		rv := viewOf(right)
		resp.Right = &rv
		if left.Rate() != right.Rate() {
			return nil, apperrors.FromTimecodeError(fmt.Errorf("%w: %s and %s", timecode.ErrRateMismatch, left.Rate(), right.Rate()))
		}
		n = right.Ticks()
	} else {
		n = *req.Operand
		resp.Operand = req.Operand
	}

	// Saturated reports whether the exact tick result differs from the
	// stored one.
	var result timecode.Timecode
	switch req.Op {
	case "add":
		sum, carry := bits.Add64(left.Ticks(), n, 0)
		result = left.AddTicks(n)
		resp.Saturated = carry != 0 || sum != result.Ticks()
	case "sub":
		resp.Saturated = n > left.Ticks()
		result = left.SubTicks(n)
	case "mul":
		hi, lo := bits.Mul64(left.Ticks(), n)
		result = left.MulTicks(n)
		resp.Saturated = hi != 0 || lo != result.Ticks()
	case "div":
		if n == 0 {
			return nil, apperrors.FromTimecodeError(timecode.ErrDivideByZero)
		}
		result = left.DivTicks(n)
	}
	resp.result = result
	resp.Result = viewOf(result)
	return resp, nil
}

type compareRequest struct {
	Left      string `json:"left"`
	Right     string `json:"right"`
	LeftRate  string `json:"left_rate,omitempty"`
	RightRate string `json:"right_rate,omitempty"`
}

type compareResponse struct {
	Left     timecodeView `json:"left"`
	Right    timecodeView `json:"right"`
	Equal    bool         `json:"equal"`
	Compare  int          `json:"compare"`
	Less     bool         `json:"less"`
	SameRate bool         `json:"same_rate"`
}

// handleCompare orders two timecodes by ticks. Equality also requires the
// same frame rate.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	left, err := s.parseTimecode(r, req.Left, req.LeftRate, nil)
	if err != nil {
		metrics.RecordOperation("compare", err)
		s.writeError(w, r, err)
		return
	}
	right, err := s.parseTimecode(r, req.Right, req.RightRate, nil)
	metrics.RecordOperation("compare", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, compareResponse{
		Left:     viewOf(left),
		Right:    viewOf(right),
		Equal:    left.Equal(right),
		Compare:  left.Compare(right),
		Less:     left.Less(right),
		SameRate: left.Rate() == right.Rate(),
	})
}

type cascadeStep struct {
	Group string `json:"group"`
	Value uint64 `json:"value"`
}

type cascadeRequest struct {
	Start    string        `json:"start,omitempty"`
	Rate     string        `json:"rate,omitempty"`
	Extended *bool         `json:"extended,omitempty"`
	Steps    []cascadeStep `json:"steps"`
}

type cascadeStepResult struct {
	Group  string       `json:"group"`
	Value  uint64       `json:"value"`
	Result timecodeView `json:"result"`
}

type cascadeResponse struct {
	Start  timecodeView        `json:"start"`
	Steps  []cascadeStepResult `json:"steps"`
	Result timecodeView        `json:"result"`
}

// handleCascade applies the cascading group setters in order.
func (s *Server) handleCascade(w http.ResponseWriter, r *http.Request) {
	var req cascadeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.cascade(r, req)
	metrics.RecordOperation("cascade", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) cascade(r *http.Request, req cascadeRequest) (*cascadeResponse, error) {
	if len(req.Steps) == 0 {
		return nil, apperrors.NewValidationError("at least one step is required")
	}
	if len(req.Steps) > maxCascadeSteps {
		return nil, apperrors.NewValidationError("too many steps").
			WithDetails(map[string]interface{}{"max": maxCascadeSteps})
	}

	var tc timecode.Timecode
	if req.Start != "" {
		var err error
		if tc, err = s.parseTimecode(r, req.Start, req.Rate, req.Extended); err != nil {
			return nil, err
		}
	} else {
		rate, err := s.resolveRate(req.Rate)
		if err != nil {
			return nil, err
		}
		tc = timecode.FromTicks(0, timecode.WithRate(rate), timecode.WithExtended(s.extended(req.Extended)))
	}

	resp := &cascadeResponse{Start: viewOf(tc), Steps: make([]cascadeStepResult, 0, len(req.Steps))}
	for i, step := range req.Steps {
		g, ok := timecode.ParseGroup(step.Group)
		if !ok {
			return nil, apperrors.NewValidationError("unknown timecode group").
				WithDetails(map[string]interface{}{"step": i, "group": step.Group})
		}
		tc.SetGroup(g, step.Value)
		resp.Steps = append(resp.Steps, cascadeStepResult{Group: g.String(), Value: step.Value, Result: viewOf(tc)})
	}
	resp.Result = viewOf(tc)
	return resp, nil
}
