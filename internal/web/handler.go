// Package web serves a bibliography over HTTP: an HTML index, a JSON listing,
// file downloads and uploads of entries and files.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/matsen/biblary/internal/adapter"
	"github.com/matsen/biblary/internal/author"
	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/entry"
	"github.com/matsen/biblary/internal/pdf"
	"github.com/matsen/biblary/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// Factory builds the bibliography for a single request.
type Factory func() (*bibliography.Bibliography, error)

// Handler provides the HTTP endpoints.
type Handler struct {
	open           Factory
	authors        *author.Matcher
	limiter        *rate.Limiter
	maxUploadBytes int64
	index          *template.Template
}

// HandlerConfig configures the handler.
type HandlerConfig struct {
	// Bibliography opens the bibliography; it is called once per request (required).
	Bibliography Factory
	// MainAuthors highlights main authors in the index (optional).
	MainAuthors *author.Matcher
	// UploadRate and UploadBurst limit entry and file uploads. Zero disables the limit.
	UploadRate  float64
	UploadBurst int
	// MaxUploadBytes caps request bodies of uploads (default 32 MiB).
	MaxUploadBytes int64
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// FileResponse is the body returned after a file upload.
type FileResponse struct {
	Identifier string           `json:"identifier"`
	FileType   storage.FileType `json:"file_type"`
	Size       int              `json:"size"`
	DOI        string           `json:"doi,omitempty"` // DOI found in the document
}

// NewHandler creates a handler from cfg.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		open:           cfg.Bibliography,
		authors:        cfg.MainAuthors,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = 32 << 20
	}
	if cfg.UploadRate > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(cfg.UploadRate), max(cfg.UploadBurst, 1))
	}

	h.index = template.Must(template.New("index.html").Funcs(template.FuncMap{
		"authorClass": h.authors.Class,
	}).ParseFS(templateFS, "templates/index.html"))

	return h
}

// Routes returns an http.Handler with all routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /entries.json", h.ListEntries)
	mux.HandleFunc("POST /entries", h.limit(h.AddEntry))
	mux.HandleFunc("GET /file/{identifier}/{file_type}", h.GetFile)
	mux.HandleFunc("POST /file/{identifier}/{file_type}", h.limit(h.PutFile))
	mux.HandleFunc("GET /health", h.Health)

	return logRequests(mux)
}

// Index renders all entries, most recent first.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	entries, ok := h.annotatedEntries(w)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.index.Execute(&buf, map[string]any{"Entries": entries}); err != nil {
		h.writeError(w, http.StatusInternalServerError, "render_failed", "Failed to render index", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// ListEntries returns all entries, most recent first, as JSON.
// GET /entries.json
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, ok := h.annotatedEntries(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// AddEntry parses an entry from the body, or from the "content" form field,
// adds it to the bibliography and saves.
// POST /entries
func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	text, err := h.entryText(w, r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Failed to read entry", err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		h.writeError(w, http.StatusBadRequest, "empty_body", "No entry content provided", "")
		return
	}

	bib, ok := h.bibliography(w)
	if !ok {
		return
	}
	defer adapter.Close(bib.Adapter())

	e, err := bib.AddText(text)
	switch {
	case err == nil:
	case bibliography.IsParsing(err), errors.Is(err, entry.ErrMissingField):
		h.writeError(w, http.StatusBadRequest, "parse_failed", "Failed to parse entry", err.Error())
		return
	case bibliography.IsDuplicate(err):
		h.writeError(w, http.StatusConflict, "duplicate_entry", "Entry already exists", err.Error())
		return
	default:
		h.writeError(w, http.StatusInternalServerError, "add_failed", "Failed to add entry", err.Error())
		return
	}

	if err := bib.Save(); err != nil {
		h.writeError(w, http.StatusInternalServerError, "save_failed", "Failed to save bibliography", err.Error())
		return
	}

	slog.Info("Added entry", "identifier", e.Identifier)
	h.writeJSON(w, http.StatusCreated, e)
}

// GetFile serves the stored file of an entry as a PDF attachment.
// GET /file/{identifier}/{file_type}
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	bib, e, ft, ok := h.resolveFile(w, r)
	if !ok {
		return
	}

	content, err := bib.Storage().GetFile(e, ft)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found",
				fmt.Sprintf("The requested file `%s:%s` does not exist.", e.Identifier, ft), "")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "read_failed", "Failed to read file", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, ft))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// PutFile stores an uploaded PDF for an entry. The document is read from the
// multipart field "content" or, for application/pdf requests, the raw body.
// POST /file/{identifier}/{file_type}
func (h *Handler) PutFile(w http.ResponseWriter, r *http.Request) {
	bib, e, ft, ok := h.resolveFile(w, r)
	if !ok {
		return
	}

	data, err := h.fileContent(w, r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_body", "Failed to read file", err.Error())
		return
	}
	if err := pdf.Validate(data); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_pdf", "Uploaded file is not a PDF", err.Error())
		return
	}

	doi, err := pdf.ExtractDOI(data)
	if err != nil {
		slog.Debug("DOI extraction failed", "identifier", e.Identifier, "error", err)
	}
	if doi != "" && e.DOI != nil && !pdf.SameDOI(doi, *e.DOI) {
		slog.Warn("Uploaded file DOI does not match entry", "identifier", e.Identifier, "entry_doi", *e.DOI, "file_doi", doi)
	}

	content, err := storage.Content(data)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_content", "Unsupported upload content", err.Error())
		return
	}
	if err := bib.Storage().PutFile(content, e, ft); err != nil {
		h.writeError(w, http.StatusInternalServerError, "store_failed", "Failed to store file", err.Error())
		return
	}

	slog.Info("Stored file", "identifier", e.Identifier, "file_type", ft, "size", len(data))
	h.writeJSON(w, http.StatusCreated, FileResponse{Identifier: e.Identifier, FileType: ft, Size: len(data), DOI: doi})
}

// Health reports that the server is up.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// === Helpers ===

func (h *Handler) bibliography(w http.ResponseWriter) (*bibliography.Bibliography, bool) {
	if h.open == nil {
		h.writeError(w, http.StatusInternalServerError, "not_configured", "No bibliography has been configured.", "")
		return nil, false
	}
	bib, err := h.open()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "load_failed", "Failed to load bibliography", err.Error())
		return nil, false
	}
	return bib, true
}

func (h *Handler) annotatedEntries(w http.ResponseWriter) ([]bibliography.AnnotatedEntry, bool) {
	bib, ok := h.bibliography(w)
	if !ok {
		return nil, false
	}
	defer adapter.Close(bib.Adapter())

	entries, err := bib.Annotated(bibliography.ByYear, true)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "storage_failed", "Failed to check files", err.Error())
		return nil, false
	}
	return entries, true
}

// resolveFile loads the bibliography and checks, in order, that storage is
// configured, the file type is valid and the entry exists.
func (h *Handler) resolveFile(w http.ResponseWriter, r *http.Request) (*bibliography.Bibliography, *entry.Entry, storage.FileType, bool) {
	bib, ok := h.bibliography(w)
	if !ok {
		return nil, nil, "", false
	}
	adapter.Close(bib.Adapter()) // entries are in memory; file routes never save

	if bib.Storage() == nil {
		h.writeError(w, http.StatusInternalServerError, "not_configured", "No file storage has been configured.", "")
		return nil, nil, "", false
	}

	ft, err := storage.ParseFileType(r.PathValue("file_type"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_file_type",
			fmt.Sprintf("The requested file type `%s` is invalid.", r.PathValue("file_type")), "")
		return nil, nil, "", false
	}

	id := r.PathValue("identifier")
	e, ok := bib.Get(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "not_found",
			fmt.Sprintf("The requested bibliographic entry `%s` does not exist.", id), "")
		return nil, nil, "", false
	}

	return bib, e, ft, true
}

func (h *Handler) entryText(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mediaType := r.Header.Get("Content-Type")
	if strings.HasPrefix(mediaType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(mediaType, "multipart/form-data") {
		if strings.HasPrefix(mediaType, "multipart/") {
			if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
				return "", err
			}
		}
		return r.FormValue("content"), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (h *Handler) fileContent(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return nil, err
		}
		f, _, err := r.FormFile("content")
		if err != nil {
			return nil, fmt.Errorf("reading field content: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	return io.ReadAll(r.Body)
}

// limit rejects requests beyond the configured upload rate.
func (h *Handler) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			h.writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many uploads, try again later", "")
			return
		}
		next(w, r)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}
