package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "portalkeep API",
		Version:     "v1",
		Description: "Captive portal session status and check history",
		Endpoints: []endpointInfo{
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
			{"/api/v1/status", []string{"GET"}, "Portal session state"},
			{"/api/v1/events", []string{"GET"}, "Probe, login and notification history. Accepts ?kind=, ?limit=, ?offset="},
			{"/api/v1/events/{id}", []string{"GET"}, "Single history event"},
		},
	})
}
