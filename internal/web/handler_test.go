package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/biblary/internal/adapter"
	"github.com/matsen/biblary/internal/author"
	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/entry"
	"github.com/matsen/biblary/internal/storage"
	"github.com/matsen/biblary/internal/testutil"
)

// fixture is a BibTeX-backed bibliography with filesystem storage.
type fixture struct {
	bibPath string
	store   *storage.FileSystem
	handler http.Handler
}

func newFixture(t *testing.T, withStorage bool, cfg HandlerConfig) *fixture {
	t.Helper()
	f := &fixture{bibPath: testutil.WriteBibTeX(t, testutil.BasicBibTeX)}
	if withStorage {
		f.store = storage.NewFileSystem(filepath.Join(t.TempDir(), "files"))
	}

	cfg.Bibliography = func() (*bibliography.Bibliography, error) {
		if f.store == nil {
			return bibliography.New(adapter.NewBibTeX(f.bibPath), nil)
		}
		return bibliography.New(adapter.NewBibTeX(f.bibPath), f.store)
	}
	f.handler = NewHandler(cfg).Routes()
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) putFile(t *testing.T, id string, ft storage.FileType, data []byte) {
	t.Helper()
	e, err := entry.New("article", id)
	require.NoError(t, err)
	require.NoError(t, f.store.PutFile(bytes.NewReader(data), e, ft))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp.Code
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "upload.pdf")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHandler_Index(t *testing.T) {
	matcher, err := author.NewMatcher([]string{`A\. Einstein`}, "main-author")
	require.NoError(t, err)
	f := newFixture(t, true, HandlerConfig{MainAuthors: matcher})
	f.putFile(t, "einstein1905", storage.Manuscript, []byte("%PDF-1.4"))

	w := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	epr := strings.Index(body, `id="epr1935"`)
	schrodinger := strings.Index(body, `id="schrodinger1926"`)
	einstein := strings.Index(body, `id="einstein1905"`)
	require.True(t, epr >= 0 && schrodinger >= 0 && einstein >= 0, body)
	assert.True(t, epr < schrodinger && schrodinger < einstein, "entries should be sorted by year, most recent first")

	assert.Contains(t, body, `<span class="author main-author">A. Einstein</span>`)
	assert.Contains(t, body, `<span class="author">E. Schrödinger</span>`)
	assert.Contains(t, body, `href="/file/einstein1905/manuscript"`)
	assert.NotContains(t, body, `href="/file/einstein1905/preprint"`)
}

func TestHandler_Index_LoadError(t *testing.T) {
	h := NewHandler(HandlerConfig{Bibliography: func() (*bibliography.Bibliography, error) {
		return nil, errors.New("boom")
	}})

	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "load_failed", errorCode(t, w))
}

func TestHandler_ListEntries(t *testing.T) {
	f := newFixture(t, true, HandlerConfig{})
	f.putFile(t, "epr1935", storage.Preprint, []byte("%PDF-1.4"))

	w := f.do(httptest.NewRequest(http.MethodGet, "/entries.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var entries []struct {
		Identifier string          `json:"identifier"`
		Year       int             `json:"year"`
		Files      map[string]bool `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "epr1935", entries[0].Identifier)
	assert.True(t, entries[0].Files["preprint"])
	assert.False(t, entries[0].Files["manuscript"])
	assert.Equal(t, 1905, entries[2].Year)
}

func TestHandler_GetFile(t *testing.T) {
	f := newFixture(t, true, HandlerConfig{})
	content := testutil.MinimalPDF("manuscript")
	f.putFile(t, "einstein1905", storage.Manuscript, content)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{"existing file", "/file/einstein1905/manuscript", http.StatusOK, ""},
		{"invalid file type", "/file/einstein1905/thesis", http.StatusBadRequest, "invalid_file_type"},
		{"unknown entry", "/file/nobody/manuscript", http.StatusNotFound, "not_found"},
		{"missing file", "/file/einstein1905/preprint", http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorCode(t, w))
				return
			}
			assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="manuscript.pdf"`, w.Header().Get("Content-Disposition"))
			assert.Equal(t, content, w.Body.Bytes())
		})
	}
}

func TestHandler_GetFile_NoStorage(t *testing.T) {
	f := newFixture(t, false, HandlerConfig{})

	w := f.do(httptest.NewRequest(http.MethodGet, "/file/einstein1905/manuscript", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "not_configured", errorCode(t, w))
}

func TestHandler_AddEntry(t *testing.T) {
	f := newFixture(t, false, HandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/entries",
		strings.NewReader("@book{bohr1934, author = {Bohr, Niels}, title = {Atomic Theory}, year = 1934}"))
	req.Header.Set("Content-Type", "application/x-bibtex")
	w := f.do(req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created entry.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "bohr1934", created.Identifier)
	assert.Equal(t, []string{"Niels Bohr"}, created.Author)

	reloaded, err := bibliography.New(adapter.NewBibTeX(f.bibPath), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Len())
	assert.True(t, reloaded.Has("bohr1934"))
}

func TestHandler_AddEntry_Form(t *testing.T) {
	f := newFixture(t, false, HandlerConfig{})

	form := url.Values{"content": {"@misc{note2020, title = {A note}, year = 2020}"}}
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data, err := os.ReadFile(f.bibPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "@misc{note2020,")
}

func TestHandler_AddEntry_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"duplicate", "@article{einstein1905, title = {Again}}", http.StatusConflict, "duplicate_entry"},
		{"unparseable", "invalid", http.StatusBadRequest, "parse_failed"},
		{"bad year", "@article{x, year = {soon}}", http.StatusBadRequest, "parse_failed"},
		{"empty", "  ", http.StatusBadRequest, "empty_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false, HandlerConfig{})
			before, err := os.ReadFile(f.bibPath)
			require.NoError(t, err)

			w := f.do(httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(tt.body)))

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, errorCode(t, w))

			after, err := os.ReadFile(f.bibPath)
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after), "bibliography should be unchanged")
		})
	}
}

func TestHandler_PutFile(t *testing.T) {
	f := newFixture(t, true, HandlerConfig{})
	content := testutil.MinimalPDF("doi:10.1103/PhysRev.47.777")

	body, contentType := multipartBody(t, "content", content)
	req := httptest.NewRequest(http.MethodPost, "/file/epr1935/preprint", body)
	req.Header.Set("Content-Type", contentType)
	w := f.do(req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp FileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "epr1935", resp.Identifier)
	assert.Equal(t, storage.Preprint, resp.FileType)
	assert.Equal(t, len(content), resp.Size)

	e, err := entry.New("article", "epr1935")
	require.NoError(t, err)
	stored, err := f.store.GetFile(e, storage.Preprint)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestHandler_PutFile_RawBody(t *testing.T) {
	f := newFixture(t, true, HandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/file/einstein1905/supplementary", bytes.NewReader(testutil.MinimalPDF("data")))
	req.Header.Set("Content-Type", "application/pdf")
	w := f.do(req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHandler_PutFile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		data     []byte
		wantCode int
		wantErr  string
	}{
		{"not a pdf", "/file/epr1935/manuscript", []byte("plain text"), http.StatusBadRequest, "invalid_pdf"},
		{"unknown entry", "/file/nobody/manuscript", testutil.MinimalPDF("x"), http.StatusNotFound, "not_found"},
		{"invalid file type", "/file/epr1935/slides", testutil.MinimalPDF("x"), http.StatusBadRequest, "invalid_file_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true, HandlerConfig{})
			body, contentType := multipartBody(t, "content", tt.data)
			req := httptest.NewRequest(http.MethodPost, tt.path, body)
			req.Header.Set("Content-Type", contentType)

			w := f.do(req)

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, errorCode(t, w))
		})
	}
}

func TestHandler_UploadRateLimit(t *testing.T) {
	f := newFixture(t, false, HandlerConfig{UploadRate: 0.001, UploadBurst: 1})

	first := f.do(httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader("@misc{one}")))
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := f.do(httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader("@misc{two}")))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate_limited", errorCode(t, second))

	index := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, index.Code, "reads are not rate limited")
}

func TestHandler_Health(t *testing.T) {
	f := newFixture(t, false, HandlerConfig{})
	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
