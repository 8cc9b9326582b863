package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zsiec/chrono/internal/errors"
	"github.com/zsiec/chrono/internal/marks"
	"github.com/zsiec/chrono/pkg/fps"
)

// markServers runs fn against a server backed by each mark store.
func markServers(t *testing.T, fn func(t *testing.T, h http.Handler)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, newTestServer(t, nil).Handler())
	})
	t.Run("redis", func(t *testing.T) {
		_, client := setupTestRedis(t)
		store := marks.NewRedisStore(client, testLogger(), "test:marks:", 0)
		s, err := New(testConfig(), testLogger(), store, client)
		require.NoError(t, err)
		fn(t, s.Handler())
	})
}

func createMark(t *testing.T, h http.Handler, name, tc, rate string) *marks.Mark {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/v1/marks", markRequest{Name: &name, Timecode: &tc, Rate: rate})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var m marks.Mark
	decodeBody(t, rr, &m)
	assert.Equal(t, "/api/v1/marks/"+m.ID, rr.Header().Get("Location"))
	return &m
}

func TestMarksCRUD(t *testing.T) {
	markServers(t, func(t *testing.T, h http.Handler) {
		m := createMark(t, h, "  opening titles ", "00:00:10:00", "")
		assert.NotEmpty(t, m.ID)
		assert.Equal(t, "opening titles", m.Name)
		assert.Equal(t, fps.FPS25, m.Rate)
		assert.Equal(t, uint64(25000), m.Ticks)
		assert.False(t, m.CreatedAt.IsZero())

		rr := do(t, h, http.MethodGet, "/api/v1/marks/"+m.ID, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var got marks.Mark
		decodeBody(t, rr, &got)
		assert.Equal(t, m.ID, got.ID)
		assert.Equal(t, "00:00:10:00", got.Timecode)

		name := "act one"
		tc := "00:01:00:00.50"
		rr = do(t, h, http.MethodPut, "/api/v1/marks/"+m.ID, markRequest{Name: &name, Timecode: &tc})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		decodeBody(t, rr, &got)
		assert.Equal(t, "act one", got.Name)
		assert.Equal(t, "00:01:00:00.50", got.Timecode)
		assert.Equal(t, uint64(150050), got.Ticks)

		rr = do(t, h, http.MethodDelete, "/api/v1/marks/"+m.ID, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = do(t, h, http.MethodGet, "/api/v1/marks/"+m.ID, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, apperrors.ErrorTypeNotFound, errorOf(t, rr).Type)

		rr = do(t, h, http.MethodDelete, "/api/v1/marks/"+m.ID, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestMarksListAndRange(t *testing.T) {
	markServers(t, func(t *testing.T, h http.Handler) {
		createMark(t, h, "c", "00:00:30:00", "")
		createMark(t, h, "a", "00:00:10:00", "")
		createMark(t, h, "b", "00:00:20:00", "")

		rr := do(t, h, http.MethodGet, "/api/v1/marks", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var list markList
		decodeBody(t, rr, &list)
		require.Equal(t, 3, list.Count)
		assert.Equal(t, "a", list.Marks[0].Name)
		assert.Equal(t, "b", list.Marks[1].Name)
		assert.Equal(t, "c", list.Marks[2].Name)

		rr = do(t, h, http.MethodGet, "/api/v1/marks?from=00:00:15:00&to=00:00:30:00", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		decodeBody(t, rr, &list)
		require.Equal(t, 2, list.Count)
		assert.Equal(t, "b", list.Marks[0].Name)
		assert.Equal(t, "c", list.Marks[1].Name)

		rr = do(t, h, http.MethodGet, "/api/v1/marks?from=00:00:25:00", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		decodeBody(t, rr, &list)
		assert.Equal(t, 1, list.Count)

		rr = do(t, h, http.MethodGet, "/api/v1/marks?from=00:00:30:00&to=00:00:10:00", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = do(t, h, http.MethodGet, "/api/v1/marks?to=garbage", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestMarkRateChange(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	m := createMark(t, h, "cue", "00:00:01:00", "")
	assert.Equal(t, uint64(2500), m.Ticks)

	rr := do(t, h, http.MethodPut, "/api/v1/marks/"+m.ID, markRequest{Rate: "30 fps"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got marks.Mark
	decodeBody(t, rr, &got)
	assert.Equal(t, fps.FPS30, got.Rate)
	assert.Equal(t, "00:00:01:00", got.Timecode)
	assert.Equal(t, uint64(3000), got.Ticks)
}

func TestMarkDropFrame(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	m := createMark(t, h, "df", "00:00:01;00", "")
	assert.Equal(t, fps.FPS29_97DF, m.Rate)
	assert.Equal(t, "00:00:01;00", m.Timecode)
	assert.Equal(t, uint64(2900), m.Ticks)
}

func TestMarkValidation(t *testing.T) {
	h := newTestServer(t, nil).Handler()

	name := "x"
	tc := "00:00:00:00"
	blank := "   "

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing name", markRequest{Timecode: &tc}},
		{"missing timecode", markRequest{Name: &name}},
		{"blank name", markRequest{Name: &blank, Timecode: &tc}},
		{"bad timecode", `{"name":"x","timecode":"00:00"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/api/v1/marks", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}

	rr := do(t, h, http.MethodPut, "/api/v1/marks/missing", markRequest{Name: &name})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMarksStoreUnavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	s, err := New(testConfig(), testLogger(), marks.NewRedisStore(client, testLogger(), "test:marks:", 0), client)
	require.NoError(t, err)
	h := s.Handler()

	mr.Close()
	rr := do(t, h, http.MethodGet, "/api/v1/marks", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, apperrors.ErrorTypeServiceDown, errorOf(t, rr).Type)
}

func TestMarkErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		typ    apperrors.ErrorType
	}{
		{"not found", fmt.Errorf("mark a: %w", marks.ErrMarkNotFound), http.StatusNotFound, apperrors.ErrorTypeNotFound},
		{"exists", fmt.Errorf("mark a: %w", marks.ErrMarkExists), http.StatusConflict, apperrors.ErrorTypeConflict},
		{"invalid", fmt.Errorf("%w: name is required", marks.ErrInvalidMark), http.StatusBadRequest, apperrors.ErrorTypeValidation},
		{"backend", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, apperrors.ErrorTypeServiceDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := apperrors.GetAppError(markError(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.status, got.HTTPStatus)
			assert.Equal(t, tt.typ, got.Type)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
