package server

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	apperrors "github.com/zsiec/chrono/internal/errors"
	"github.com/zsiec/chrono/internal/marks"
	"github.com/zsiec/chrono/internal/metrics"
)

// markError maps store errors onto API errors.
func markError(err error) error {
	switch {
	case errors.Is(err, marks.ErrMarkNotFound):
		return apperrors.Wrap(err, apperrors.ErrorTypeNotFound, "mark not found", http.StatusNotFound)
	case errors.Is(err, marks.ErrMarkExists):
		return apperrors.NewConflictError(err.Error()).WithCause(err)
	case errors.Is(err, marks.ErrInvalidMark):
		return apperrors.Wrap(err, apperrors.ErrorTypeValidation, err.Error(), http.StatusBadRequest)
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.NewServiceDownError("mark store").WithCause(err)
}

type markList struct {
	Marks []*marks.Mark `json:"marks"`
	Count int           `json:"count"`
}

// handleListMarks lists marks ordered by position. The optional from and
// to query parameters are timecodes bounding the range, inclusive.
func (s *Server) handleListMarks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")

	var (
		list []*marks.Mark
		err  error
	)
	if from == "" && to == "" {
		list, err = s.marks.List(r.Context())
	} else {
		var lo, hi uint64 = 0, math.MaxUint64
		if from != "" {
			tc, perr := s.parseTimecode(r, from, q.Get("rate"), nil)
			if perr != nil {
				s.writeError(w, r, perr)
				return
			}
			lo = tc.Ticks()
		}
		if to != "" {
			tc, perr := s.parseTimecode(r, to, q.Get("rate"), nil)
			if perr != nil {
				s.writeError(w, r, perr)
				return
			}
			hi = tc.Ticks()
		}
		if lo > hi {
			s.writeError(w, r, apperrors.NewValidationError("from is after to"))
			return
		}
		list, err = s.marks.Range(r.Context(), lo, hi)
	}
	if err != nil {
		s.writeError(w, r, markError(err))
		return
	}
	s.writeJSON(w, r, http.StatusOK, markList{Marks: list, Count: len(list)})
}

type markRequest struct {
	Name     *string `json:"name,omitempty"`
	Timecode *string `json:"timecode,omitempty"`
	Rate     string  `json:"rate,omitempty"`
}

// handleCreateMark stores a new mark.
func (s *Server) handleCreateMark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name == nil || req.Timecode == nil {
		s.writeError(w, r, apperrors.NewValidationError("name and timecode are required"))
		return
	}

	tc, err := s.parseTimecode(r, *req.Timecode, req.Rate, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m := marks.NewMark(*req.Name, tc)
	if err := s.marks.Create(r.Context(), m); err != nil {
		metrics.RecordOperation("mark_create", err)
		s.writeError(w, r, markError(err))
		return
	}
	metrics.RecordOperation("mark_create", nil)

	w.Header().Set("Location", "/api/v1/marks/"+m.ID)
	s.writeJSON(w, r, http.StatusCreated, m)
}

// handleGetMark returns one mark.
func (s *Server) handleGetMark(w http.ResponseWriter, r *http.Request) {
	m, err := s.marks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, markError(err))
		return
	}
	s.writeJSON(w, r, http.StatusOK, m)
}

// handleUpdateMark renames a mark or moves it to a new timecode. A rate
// without a timecode re-reads the stored timecode at that rate.
func (s *Server) handleUpdateMark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.marks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, markError(err))
		return
	}

	if req.Name != nil {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.Timecode != nil || req.Rate != "" {
		input, rate := m.Timecode, m.Rate.String()
		if req.Timecode != nil {
			input = *req.Timecode
		}
		if req.Rate != "" {
			rate = req.Rate
		}
		tc, err := s.parseTimecode(r, input, rate, nil)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		m.SetTimecode(tc)
	}

	if err := s.marks.Update(r.Context(), m); err != nil {
		metrics.RecordOperation("mark_update", err)
		s.writeError(w, r, markError(err))
		return
	}
	metrics.RecordOperation("mark_update", nil)
	s.writeJSON(w, r, http.StatusOK, m)
}

// handleDeleteMark removes a mark.
func (s *Server) handleDeleteMark(w http.ResponseWriter, r *http.Request) {
	if err := s.marks.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, markError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
