package server

import (
	"net/http"

	"github.com/me/portalkeep/pkg/model"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	snap := s.status.Snapshot()

	resp := model.SessionStatus{
		Checked:       snap.Checked,
		Interval:      snap.Interval.String(),
		Notified:      snap.Notified,
		NotifyEnabled: snap.NotifyEnabled,
	}
	if snap.Checked {
		last := snap.LastCheck.UTC()
		next := last.Add(snap.Interval)
		resp.LastCheck = &last
		resp.NextCheck = &next
	}
	respondOK(w, reqID, resp)
}
