package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/timonlabs/studyshare/internal/auth"
	"github.com/timonlabs/studyshare/internal/models"
	"github.com/timonlabs/studyshare/internal/store"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ContentStore defines the interface for content persistence.
type ContentStore interface {
	List(ctx context.Context, contentType string) ([]models.Content, error)
	GetByID(ctx context.Context, id string) (*models.Content, error)
	Insert(ctx context.Context, doc *models.Content) (string, error)
	Update(ctx context.Context, id string, req *models.UpdateContentRequest) (*models.Content, error)
	Delete(ctx context.Context, id string) error
}

// FileStore defines the interface for uploaded-file storage.
type FileStore interface {
	Save(ctx context.Context, data []byte, originalName string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds content HTTP handlers.
type Handler struct {
	store ContentStore
	files FileStore
}

func NewHandler(store ContentStore, files FileStore) *Handler {
	return &Handler{store: store, files: files}
}

// List returns all content newest-first, optionally filtered by ?type=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		log.Printf("content list: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get returns a single content item.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"message":"Content not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("content get: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Create stores an inline code or notes item. The author always comes from
// the authenticated identity, never from the request body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"Access token required"}`, http.StatusUnauthorized)
		return
	}

	var req models.CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Description == "" {
		http.Error(w, `{"message":"Title and description are required"}`, http.StatusBadRequest)
		return
	}
	if !models.ValidContentType(req.Type) {
		http.Error(w, `{"message":"Invalid content type"}`, http.StatusBadRequest)
		return
	}

	item := &models.Content{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Content:     req.Content,
		Author:      claims.Username,
	}
	if _, err := h.store.Insert(r.Context(), item); err != nil {
		log.Printf("content create: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Content created successfully",
		"content": item,
	})
}

// Upload stores a multipart file and creates a files-type item pointing at
// it. Oversize uploads are rejected before anything is persisted.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"Access token required"}`, http.StatusUnauthorized)
		return
	}

	// The extra MiB covers multipart framing and the form fields.
	r.Body = http.MaxBytesReader(w, r.Body, store.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(store.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, `{"message":"File too large"}`, http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, `{"message":"Invalid multipart body"}`, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"message":"No file uploaded"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > store.MaxUploadSize {
		http.Error(w, `{"message":"File too large"}`, http.StatusRequestEntityTooLarge)
		return
	}

	title := r.FormValue("title")
	description := r.FormValue("description")
	if title == "" || description == "" {
		http.Error(w, `{"message":"Title and description are required"}`, http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("content upload: read: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}

	key, err := h.files.Save(r.Context(), data, header.Filename)
	if errors.Is(err, store.ErrFileTooLarge) {
		http.Error(w, `{"message":"File too large"}`, http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		log.Printf("content upload: save: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}

	item := &models.Content{
		Title:       title,
		Description: description,
		Type:        models.TypeFiles,
		FilePath:    key,
		FileName:    header.Filename,
		Author:      claims.Username,
	}
	if _, err := h.store.Insert(r.Context(), item); err != nil {
		log.Printf("content upload: insert: %v", err)
		if rerr := h.files.Remove(r.Context(), key); rerr != nil {
			log.Printf("content upload: remove orphan %s: %v", key, rerr)
		}
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "File uploaded successfully",
		"content": item,
	})
}

// Update applies a partial overwrite of title/description/type/content.
// Uploaded file bytes are not replaceable; re-upload creates a new item.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Type != nil && !models.ValidContentType(*req.Type) {
		http.Error(w, `{"message":"Invalid content type"}`, http.StatusBadRequest)
		return
	}

	item, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"message":"Content not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("content update: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Content updated successfully",
		"content": item,
	})
}

// Delete removes the record first, then best-effort removes any backing
// file. An orphaned file is invisible to clients; a dangling record would
// not be.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.store.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"message":"Content not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("content delete: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"message":"Content not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("content delete: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}

	if item.FilePath != "" {
		if err := h.files.Remove(r.Context(), item.FilePath); err != nil {
			log.Printf("content delete: remove file %s: %v", item.FilePath, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Content deleted successfully"})
}

// Download streams a files-type item with its original filename.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"message":"File not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("content download: %v", err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if item.Type != models.TypeFiles || item.FilePath == "" {
		http.Error(w, `{"message":"File not found"}`, http.StatusNotFound)
		return
	}

	rc, size, err := h.files.Open(r.Context(), item.FilePath)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"message":"File not found on server"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("content download: open %s: %v", item.FilePath, err)
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.FileName))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("content download: stream %s: %v", item.FilePath, err)
	}
}
