package server

import (
	"errors"
	"net/http"

	apperrors "github.com/zsiec/chrono/internal/errors"
	"github.com/zsiec/chrono/internal/metrics"
	"github.com/zsiec/chrono/internal/rtpclock"
)

// maxRTPPackets bounds one batch.
const maxRTPPackets = 10000

const (
	codeInvalidRTP   = "INVALID_RTP"
	codeInvalidRTCP  = "INVALID_RTCP"
	codeSSRCMismatch = "SSRC_MISMATCH"
)

type rtpRequest struct {
	ClockRate uint32   `json:"clock_rate"`
	Rate      string   `json:"rate,omitempty"`
	Start     string   `json:"start,omitempty"`
	Extended  *bool    `json:"extended,omitempty"`
	Packets   [][]byte `json:"packets"`        // base64 RTP packets in arrival order
	RTCP      [][]byte `json:"rtcp,omitempty"` // base64 compound RTCP packets applied first
}

type rtpPacketView struct {
	Index       int          `json:"index"`
	Sequence    uint16       `json:"sequence"`
	Timestamp   uint32       `json:"timestamp"`
	SSRC        uint32       `json:"ssrc"`
	PayloadType uint8        `json:"payload_type"`
	Marker      bool         `json:"marker"`
	Timecode    timecodeView `json:"timecode"`
}

type rtpResponse struct {
	ClockRate     uint32          `json:"clock_rate"`
	Rate          string          `json:"rate"`
	SenderReports int             `json:"sender_reports"`
	Packets       []rtpPacketView `json:"packets"`
	Stats         rtpclock.Stats  `json:"stats"`
}

// handleRTPTimecode maps a batch of RTP packets from one source to
// timecodes. Sender reports in the rtcp list anchor the clock to the time
// of day.
func (s *Server) handleRTPTimecode(w http.ResponseWriter, r *http.Request) {
	var req rtpRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.mapRTP(r, req)
	metrics.RecordOperation("rtp", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) mapRTP(r *http.Request, req rtpRequest) (*rtpResponse, error) {
	if len(req.Packets) == 0 {
		return nil, apperrors.NewValidationError("at least one packet is required")
	}
	if len(req.Packets) > maxRTPPackets {
		return nil, apperrors.NewValidationError("too many packets").
			WithDetails(map[string]interface{}{"max": maxRTPPackets})
	}

	rate, err := s.resolveRate(req.Rate)
	if err != nil {
		return nil, err
	}
	opts := []rtpclock.Option{
		rtpclock.WithExtended(s.extended(req.Extended)),
		rtpclock.WithLogger(s.sampled),
	}
	if req.Start != "" {
		start, err := s.parseTimecode(r, req.Start, rate.String(), nil)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rtpclock.WithStart(start))
	}

	clock, err := rtpclock.NewClock(req.ClockRate, rate, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeValidation, err.Error(), http.StatusBadRequest)
	}

	resp := &rtpResponse{
		ClockRate: clock.Mapper().ClockRate(),
		Rate:      rate.String(),
		Packets:   make([]rtpPacketView, 0, len(req.Packets)),
	}

	for i, raw := range req.RTCP {
		n, err := clock.ApplyRTCP(raw)
		if err != nil {
			return nil, packetError(err, "rtcp", i)
		}
		resp.SenderReports += n
	}

	for i, raw := range req.Packets {
		tc, pkt, err := clock.Unmarshal(raw)
		if err != nil {
			return nil, packetError(err, "packet", i)
		}
		resp.Packets = append(resp.Packets, rtpPacketView{
			Index:       i,
			Sequence:    pkt.SequenceNumber,
			Timestamp:   pkt.Timestamp,
			SSRC:        pkt.SSRC,
			PayloadType: pkt.PayloadType,
			Marker:      pkt.Marker,
			Timecode:    viewOf(tc),
		})
	}

	resp.Stats = clock.Stats()
	return resp, nil
}

// packetError reports which entry of the packet or rtcp list failed.
func packetError(err error, kind string, index int) error {
	details := map[string]interface{}{kind: index}
	if errors.Is(err, rtpclock.ErrSSRCMismatch) {
		return apperrors.Wrap(err, apperrors.ErrorTypeUnprocessable, err.Error(), http.StatusUnprocessableEntity).
			WithCode(codeSSRCMismatch).
			WithDetails(details)
	}
	code := codeInvalidRTP
	if kind == "rtcp" {
		code = codeInvalidRTCP
	}
	return apperrors.Wrap(err, apperrors.ErrorTypeValidation, err.Error(), http.StatusBadRequest).
		WithCode(code).
		WithDetails(details)
}
