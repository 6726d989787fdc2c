package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/packagestore"
)

// PackageHandler stages package uploads and serves installed package files
type PackageHandler struct {
	store *packagestore.Store
	blobs hvp.BlobStore
}

func NewPackageHandler(store *packagestore.Store, blobs hvp.BlobStore) *PackageHandler {
	return &PackageHandler{store: store, blobs: blobs}
}

// Routes returns the router for upload endpoints
func (h *PackageHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/uploads", h.Upload)
	return r
}

// FileRoutes returns the router serving package files, meant to be mounted at
// the files path the runtime loads from (e.g. /mod/hvp/files).
func (h *PackageHandler) FileRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/*", h.ServeFile)
	return r
}

// UploadResponse carries the key of a staged upload
type UploadResponse struct {
	UploadKey string `json:"upload_key"`
	Files     int    `json:"files"`
}

// Upload stages a multipart upload. Every file part is stored under its form
// field name, which is its path inside the package (content/content.json,
// Foo-1.0/foo.js).
func (h *PackageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		slog.Error("Invalid multipart request", "error", err)
		http.Error(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	var files []packagestore.File
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Error("Failed to read upload", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, part); err != nil {
			part.Close()
			slog.Error("Failed to read upload", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		files = append(files, packagestore.File{Path: part.FormName(), Body: &buf})
		part.Close()
	}

	if len(files) == 0 {
		http.Error(w, "Upload has no files", http.StatusBadRequest)
		return
	}

	key, err := h.store.Stage(r.Context(), files)
	if err != nil {
		writeError(w, "Failed to stage upload", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, UploadResponse{UploadKey: key, Files: len(files)})
}

// ServeFile streams an installed package file
func (h *PackageHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key := path.Clean("/" + chi.URLParam(r, "*"))[1:]
	if key == "" {
		http.Error(w, "File path is required", http.StatusBadRequest)
		return
	}
	if !packagestore.Installed(key) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	rc, err := h.blobs.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, hvp.ErrObjectNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to read file", "key", key, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("Failed to stream file", "key", key, "error", err)
	}
}
