package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/resourcevault/internal/core"
	"github.com/JonMunkholm/resourcevault/internal/logging"
)

// maxJSONBody bounds create and update request bodies.
const maxJSONBody = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

type createRequest struct {
	URL      string `json:"url"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

type updateRequest struct {
	IsActive *bool `json:"is_active"`
}

// handleRoot identifies the API.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "Resource Manager API"})
}

// handleCreateResource stores one resource from a JSON body.
func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := s.service.CreateResource(r.Context(), core.ResourceDraft{
		URL:      req.URL,
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, res)
}

// handleListResources returns every resource as a JSON array.
func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := s.service.ListResources(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resources)
}

// handleUpdateResource sets is_active on one resource.
func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.IsActive == nil {
		respondError(w, r, errMissingIsActive)
		return
	}

	res, err := s.service.SetActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, res)
}

// handleDeleteResource removes one resource.
func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteResource(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "resource deleted"})
}

// handleImport creates resources from a url:login:password text payload.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := readImportPayload(w, r, s.cfg.Import.MaxFileSize)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.service.Import(r.Context(), raw)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string                   `json:"status"`
	Imports core.ImportLimiterStatus `json:"imports"`
}

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Imports: s.service.ImportStatus()}
	status := http.StatusOK

	if err := s.service.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, r, status, resp)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidJSON, err)
	}
	return nil
}
