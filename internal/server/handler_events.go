package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/portalkeep/pkg/model"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}

	opts, apiErr := parseListOptions(r)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	events, total, err := s.store.ListEvents(r.Context(), opts)
	if err != nil {
		s.logger.Error("list events", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{
			Code:    model.ErrInternal,
			Message: "failed to list events",
		})
		return
	}
	if events == nil {
		events = []*model.Event{}
	}

	opts.Clamp()
	respondList(w, reqID, events, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(events) < total,
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}

	id := chi.URLParam(r, "id")
	ev, err := s.store.GetEvent(r.Context(), id)
	if err != nil {
		s.logger.Error("get event", "id", id, "error", err)
		respondError(w, reqID, http.StatusInternalServerError, &model.APIError{
			Code:    model.ErrInternal,
			Message: "failed to load event",
		})
		return
	}
	if ev == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("Event", id))
		return
	}
	respondOK(w, reqID, ev)
}

func (s *Server) requireStore(w http.ResponseWriter, reqID string) bool {
	if s.store != nil {
		return true
	}
	respondError(w, reqID, http.StatusServiceUnavailable, &model.APIError{
		Code:    model.ErrUnavailable,
		Message: "event history is disabled (store.path not set)",
	})
	return false
}

func parseListOptions(r *http.Request) (model.ListOptions, *model.APIError) {
	opts := model.DefaultListOptions()
	q := r.URL.Query()
	var details []model.FieldError

	kind, ok := model.ParseEventKind(q.Get("kind"))
	if !ok {
		details = append(details, model.FieldError{Field: "kind", Message: "must be probe, login or notify"})
	}
	opts.Kind = kind

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, model.FieldError{Field: "limit", Message: "expected int"})
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, model.FieldError{Field: "offset", Message: "expected int"})
		}
		opts.Offset = n
	}

	if len(details) > 0 {
		return opts, model.NewValidationError("Invalid query", details...)
	}
	return opts, nil
}
