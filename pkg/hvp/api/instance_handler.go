package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/page"
)

// InstanceHandler handles content instance, library and feature endpoints
type InstanceHandler struct {
	service hvp.Service
}

func NewInstanceHandler(service hvp.Service) *InstanceHandler {
	return &InstanceHandler{service: service}
}

// Routes returns the router for instance endpoints
func (h *InstanceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/instances", h.CreateInstance)
	r.Get("/instances/{id}", h.GetInstance)
	r.Put("/instances/{id}", h.UpdateInstance)
	r.Delete("/instances/{id}", h.DeleteInstance)
	r.Put("/instances/{id}/libraries", h.SetLibraries)
	r.Get("/instances/{id}/assets", h.GetAssets)
	r.Get("/instances/{id}/view", h.View)
	r.Post("/libraries", h.SaveLibrary)
	r.Get("/libraries/{id}", h.GetLibrary)
	r.Get("/features/{feature}", h.GetFeature)
	return r
}

// CreateInstanceRequest is the body of POST /instances
type CreateInstanceRequest struct {
	Name      string `json:"name"`
	Course    int64  `json:"course"`
	UploadKey string `json:"upload_key,omitempty"`
}

// CreateInstanceResponse reports the new id. PackageError is set when the row
// was created but its package could not be saved.
type CreateInstanceResponse struct {
	ID           int64  `json:"id"`
	PackageError string `json:"package_error,omitempty"`
}

// UpdateInstanceRequest is the body of PUT /instances/{id}
type UpdateInstanceRequest struct {
	Name          string `json:"name"`
	Course        int64  `json:"course"`
	JSONContent   string `json:"json_content"`
	MainLibraryID int64  `json:"main_library_id"`
	EmbedType     string `json:"embed_type"`
	UploadKey     string `json:"upload_key,omitempty"`
}

// UpdateInstanceResponse mirrors hvp.UpdateResult
type UpdateInstanceResponse struct {
	RowUpdated     bool   `json:"row_updated"`
	PackageUpdated bool   `json:"package_updated"`
	PackageError   string `json:"package_error,omitempty"`
}

// ViewResponse is the JSON form of a rendered view
type ViewResponse struct {
	Requirements page.Snapshot `json:"requirements"`
	Settings     *hvp.Settings `json:"settings"`
}

// FeatureResponse answers a feature query
type FeatureResponse struct {
	Feature   string      `json:"feature"`
	Supported hvp.Support `json:"supported"`
}

// CreateInstance creates a content instance and saves its package
func (h *InstanceHandler) CreateInstance(w http.ResponseWriter, r *http.Request) {
	var req CreateInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateInstance(r.Context(), hvp.CreateInstanceRequest{
		Name:      req.Name,
		Course:    req.Course,
		UploadKey: req.UploadKey,
	})
	resp := CreateInstanceResponse{ID: id}
	if err != nil {
		var pkgErr *hvp.PackageError
		if !errors.As(err, &pkgErr) {
			slog.Error("Failed to create instance", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.PackageError = pkgErr.Err.Error()
	}

	slog.Info("Instance created", "id", id)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// GetInstance returns a content instance joined with its main library
func (h *InstanceHandler) GetInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	instance, err := h.service.GetInstance(r.Context(), id)
	if err != nil {
		writeError(w, "Failed to get instance", err)
		return
	}
	render.JSON(w, r, instance)
}

// UpdateInstance updates the row and, when an upload is given, the package
func (h *InstanceHandler) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.UpdateInstance(r.Context(), hvp.UpdateInstanceRequest{
		Instance: &hvp.ContentInstance{
			ID:            id,
			Name:          req.Name,
			Course:        req.Course,
			JSONContent:   req.JSONContent,
			MainLibraryID: req.MainLibraryID,
			EmbedType:     req.EmbedType,
		},
		UploadKey: req.UploadKey,
	})
	if err != nil {
		writeError(w, "Failed to update instance", err)
		return
	}

	resp := UpdateInstanceResponse{
		RowUpdated:     result.RowUpdated,
		PackageUpdated: result.PackageUpdated,
	}
	if result.PackageErr != nil {
		resp.PackageError = result.PackageErr.Error()
	}
	render.JSON(w, r, resp)
}

// DeleteInstance removes a content instance and its package
func (h *InstanceHandler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteInstance(r.Context(), id)
	if err != nil {
		writeError(w, "Failed to delete instance", err)
		return
	}
	if !deleted {
		http.Error(w, hvp.ErrInstanceNotFound.Error(), http.StatusNotFound)
		return
	}

	slog.Info("Instance deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// SetLibraries replaces the libraries a content instance uses
func (h *InstanceHandler) SetLibraries(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var usages []hvp.LibraryUsage
	if err := json.NewDecoder(r.Body).Decode(&usages); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.SetContentLibraries(r.Context(), id, usages); err != nil {
		writeError(w, "Failed to set libraries", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAssets returns the asset manifest of a content instance
func (h *InstanceHandler) GetAssets(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	manifest, err := h.service.ResolveAssetPaths(r.Context(), id)
	if err != nil {
		writeError(w, "Failed to resolve assets", err)
		return
	}
	render.JSON(w, r, manifest)
}

// View renders the page requirements of a content instance. The embed query
// parameter selects the embed type (default div); format=html returns the
// head and footer markup instead of JSON.
func (h *InstanceHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	instance, err := h.service.GetInstance(r.Context(), id)
	if err != nil {
		writeError(w, "Failed to get instance", err)
		return
	}

	embed := hvp.EmbedType(r.URL.Query().Get("embed"))
	if embed == "" {
		embed = hvp.EmbedDiv
	}

	reqs := page.New()
	settings, err := h.service.AddScriptsAndStyles(r.Context(), instance, embed, reqs)
	if err != nil {
		writeError(w, "Failed to assemble settings", err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		var buf bytes.Buffer
		if err := reqs.WriteHead(&buf); err != nil {
			writeError(w, "Failed to write page head", err)
			return
		}
		if err := reqs.WriteFooter(&buf); err != nil {
			writeError(w, "Failed to write page footer", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
		return
	}

	render.JSON(w, r, ViewResponse{Requirements: reqs.Snapshot(), Settings: settings})
}

// SaveLibrary registers a library or updates the one with the same name
func (h *InstanceHandler) SaveLibrary(w http.ResponseWriter, r *http.Request) {
	var library hvp.LibraryRecord
	if err := json.NewDecoder(r.Body).Decode(&library); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if library.Library.MachineName == "" {
		http.Error(w, "Machine name is required", http.StatusBadRequest)
		return
	}

	id, err := h.service.SaveLibrary(r.Context(), &library)
	if err != nil {
		writeError(w, "Failed to save library", err)
		return
	}

	slog.Info("Library saved", "id", id, "machine_name", library.Library.MachineName)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]int64{"id": id})
}

// GetLibrary returns a registered library
func (h *InstanceHandler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	library, err := h.service.GetLibrary(r.Context(), id)
	if err != nil {
		writeError(w, "Failed to get library", err)
		return
	}
	render.JSON(w, r, library)
}

// GetFeature answers whether the module supports a host feature
func (h *InstanceHandler) GetFeature(w http.ResponseWriter, r *http.Request) {
	feature := chi.URLParam(r, "feature")
	render.JSON(w, r, FeatureResponse{
		Feature:   feature,
		Supported: h.service.Supports(hvp.Feature(feature)),
	})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		slog.Error("Invalid ID", "id", idStr, "error", err)
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, hvp.ErrInstanceNotFound),
		errors.Is(err, hvp.ErrLibraryNotFound),
		errors.Is(err, hvp.ErrUploadNotFound),
		errors.Is(err, hvp.ErrObjectNotFound):
		status = http.StatusNotFound
	default:
		slog.Error(msg, "error", err)
	}
	http.Error(w, err.Error(), status)
}
