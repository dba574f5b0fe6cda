package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/timonlabs/studyshare/internal/auth"
	"github.com/timonlabs/studyshare/internal/models"
	"github.com/timonlabs/studyshare/internal/store"
)

// --- fakes ---

type fakeContentStore struct {
	mu    sync.Mutex
	items []models.Content
}

// add seeds an item directly, bypassing Insert's timestamping.
func (f *fakeContentStore) add(item models.Content) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	f.items = append(f.items, item)
}

func (f *fakeContentStore) List(ctx context.Context, contentType string) ([]models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Content{}
	for _, item := range f.items {
		if contentType != "" && contentType != "all" && item.Type != contentType {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeContentStore) GetByID(ctx context.Context, id string) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID.Hex() == id {
			cp := item
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeContentStore) Insert(ctx context.Context, doc *models.Content) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now()
	f.items = append(f.items, *doc)
	return doc.ID.Hex(), nil
}

func (f *fakeContentStore) Update(ctx context.Context, id string, req *models.UpdateContentRequest) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID.Hex() != id {
			continue
		}
		if req.Title != nil {
			f.items[i].Title = *req.Title
		}
		if req.Description != nil {
			f.items[i].Description = *req.Description
		}
		if req.Type != nil {
			f.items[i].Type = *req.Type
		}
		if req.Content != nil {
			f.items[i].Content = *req.Content
		}
		cp := f.items[i]
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeContentStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID.Hex() == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeFileStore struct {
	mu    sync.Mutex
	files map[string][]byte
	n     int
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string][]byte{}}
}

func (f *fakeFileStore) Save(ctx context.Context, data []byte, originalName string) (string, error) {
	if len(data) > store.MaxUploadSize {
		return "", store.ErrFileTooLarge
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	key := fmt.Sprintf("%d-%s", f.n, originalName)
	f.files[key] = append([]byte(nil), data...)
	return key, nil
}

func (f *fakeFileStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, 0, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (f *fakeFileStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	return nil
}

// --- helpers ---

var adminClaims = &auth.Claims{UserID: "u-1", Username: "admin", Role: models.RoleAdmin}

// newTestRouter mounts the handler the way cmd/server does. When claims is
// non-nil every request carries that identity, standing in for the auth
// middleware (which has its own tests).
func newTestRouter(cs ContentStore, fs FileStore, claims *auth.Claims) http.Handler {
	h := NewHandler(cs, fs)
	r := chi.NewRouter()
	if claims != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.WithIdentity(req.Context(), claims)))
			})
		})
	}
	r.Get("/api/content", h.List)
	r.Get("/api/content/{id}", h.Get)
	r.Get("/api/download/{id}", h.Download)
	r.Post("/api/content", h.Create)
	r.Post("/api/content/upload", h.Upload)
	r.Put("/api/content/{id}", h.Update)
	r.Delete("/api/content/{id}", h.Delete)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

type contentResponse struct {
	Message string         `json:"message"`
	Content models.Content `json:"content"`
}

// --- list / get ---

func TestListFiltersByTypeNewestFirst(t *testing.T) {
	cs := &fakeContentStore{}
	base := time.Now()
	cs.add(models.Content{Title: "old code", Type: models.TypeCode, CreatedAt: base.Add(-2 * time.Hour)})
	cs.add(models.Content{Title: "notes", Type: models.TypeNotes, CreatedAt: base.Add(-time.Hour)})
	cs.add(models.Content{Title: "new code", Type: models.TypeCode, CreatedAt: base})

	r := newTestRouter(cs, newFakeFileStore(), nil)
	w := doJSON(t, r, http.MethodGet, "/api/content?type=code", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var items []models.Content
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "new code", items[0].Title)
	assert.Equal(t, "old code", items[1].Title)
}

func TestGetNotFound(t *testing.T) {
	r := newTestRouter(&fakeContentStore{}, newFakeFileStore(), nil)
	w := doJSON(t, r, http.MethodGet, "/api/content/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Content not found")
}

// --- create ---

func TestCreateAndGetRoundTrip(t *testing.T) {
	cs := &fakeContentStore{}
	r := newTestRouter(cs, newFakeFileStore(), adminClaims)

	w := doJSON(t, r, http.MethodPost, "/api/content", models.CreateContentRequest{
		Title:       "Intro",
		Description: "d",
		Type:        models.TypeNotes,
		Content:     "hello",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created contentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "admin", created.Content.Author)

	w = doJSON(t, r, http.MethodGet, "/api/content/"+created.Content.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Content
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Intro", got.Title)
	assert.Equal(t, "d", got.Description)
	assert.Equal(t, models.TypeNotes, got.Type)
	assert.Equal(t, "hello", got.Content)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		req  models.CreateContentRequest
	}{
		{"missing title", models.CreateContentRequest{Description: "d", Type: models.TypeCode}},
		{"missing description", models.CreateContentRequest{Title: "t", Type: models.TypeCode}},
		{"unknown type", models.CreateContentRequest{Title: "t", Description: "d", Type: "video"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeContentStore{}, newFakeFileStore(), adminClaims)
			w := doJSON(t, r, http.MethodPost, "/api/content", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateWithoutIdentity(t *testing.T) {
	r := newTestRouter(&fakeContentStore{}, newFakeFileStore(), nil)
	w := doJSON(t, r, http.MethodPost, "/api/content", models.CreateContentRequest{
		Title: "t", Description: "d", Type: models.TypeCode,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- upload / download ---

func TestUploadAndDownload(t *testing.T) {
	cs := &fakeContentStore{}
	fs := newFakeFileStore()
	r := newTestRouter(cs, fs, adminClaims)

	body, contentType := multipartBody(t, map[string]string{
		"title": "Paper", "description": "d",
	}, "hello.txt", []byte("hello world"))

	req := httptest.NewRequest(http.MethodPost, "/api/content/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created contentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.TypeFiles, created.Content.Type)
	assert.Equal(t, "hello.txt", created.Content.FileName)
	require.NotEmpty(t, created.Content.FilePath)
	assert.Len(t, fs.files, 1)

	dw := doJSON(t, r, http.MethodGet, "/api/download/"+created.Content.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, dw.Code)
	assert.Equal(t, "hello world", dw.Body.String())
	assert.Contains(t, dw.Header().Get("Content-Disposition"), "hello.txt")
}

func TestUploadWithoutFile(t *testing.T) {
	r := newTestRouter(&fakeContentStore{}, newFakeFileStore(), adminClaims)

	body, contentType := multipartBody(t, map[string]string{
		"title": "Paper", "description": "d",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/content/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No file uploaded")
}

func TestUploadTooLarge(t *testing.T) {
	cs := &fakeContentStore{}
	fs := newFakeFileStore()
	r := newTestRouter(cs, fs, adminClaims)

	body, contentType := multipartBody(t, map[string]string{
		"title": "Big", "description": "d",
	}, "big.bin", make([]byte, store.MaxUploadSize+1))

	req := httptest.NewRequest(http.MethodPost, "/api/content/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, fs.files, "nothing may be persisted for a rejected upload")
	assert.Empty(t, cs.items)
}

func TestDownloadWrongType(t *testing.T) {
	cs := &fakeContentStore{}
	cs.add(models.Content{Title: "notes", Type: models.TypeNotes, Content: "x", CreatedAt: time.Now()})
	id := cs.items[0].ID.Hex()

	r := newTestRouter(cs, newFakeFileStore(), nil)
	w := doJSON(t, r, http.MethodGet, "/api/download/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "File not found")
}

func TestDownloadMissingBackingFile(t *testing.T) {
	cs := &fakeContentStore{}
	cs.add(models.Content{
		Title: "gone", Type: models.TypeFiles,
		FilePath: "1-gone.txt", FileName: "gone.txt", CreatedAt: time.Now(),
	})
	id := cs.items[0].ID.Hex()

	r := newTestRouter(cs, newFakeFileStore(), nil)
	w := doJSON(t, r, http.MethodGet, "/api/download/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "File not found on server")
}

// --- update ---

func TestUpdatePartial(t *testing.T) {
	cs := &fakeContentStore{}
	cs.add(models.Content{
		Title: "Old", Description: "keep me", Type: models.TypeNotes,
		Content: "body", CreatedAt: time.Now(),
	})
	id := cs.items[0].ID.Hex()

	r := newTestRouter(cs, newFakeFileStore(), adminClaims)
	w := doJSON(t, r, http.MethodPut, "/api/content/"+id, map[string]string{"title": "New"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp contentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "New", resp.Content.Title)
	assert.Equal(t, "keep me", resp.Content.Description)
	assert.Equal(t, "body", resp.Content.Content)
}

func TestUpdateNotFound(t *testing.T) {
	r := newTestRouter(&fakeContentStore{}, newFakeFileStore(), adminClaims)
	w := doJSON(t, r, http.MethodPut, "/api/content/"+primitive.NewObjectID().Hex(), map[string]string{"title": "New"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- delete ---

func TestDeleteRemovesBackingFile(t *testing.T) {
	cs := &fakeContentStore{}
	fs := newFakeFileStore()
	key, err := fs.Save(context.Background(), []byte("data"), "doc.pdf")
	require.NoError(t, err)
	cs.add(models.Content{
		Title: "Doc", Type: models.TypeFiles,
		FilePath: key, FileName: "doc.pdf", CreatedAt: time.Now(),
	})
	id := cs.items[0].ID.Hex()

	r := newTestRouter(cs, fs, adminClaims)
	w := doJSON(t, r, http.MethodDelete, "/api/content/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, fs.files)

	w = doJSON(t, r, http.MethodGet, "/api/content/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/download/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteNotFound(t *testing.T) {
	r := newTestRouter(&fakeContentStore{}, newFakeFileStore(), adminClaims)
	w := doJSON(t, r, http.MethodDelete, "/api/content/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
