package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"summarize-pro/internal/domain/entity"
	"summarize-pro/internal/handler/http/respond"
	"summarize-pro/internal/usecase/summary"
)

// multipartMemory is the part of a multipart upload kept in memory; the rest
// spills to temporary files. The body limit middleware bounds the total.
const multipartMemory = 8 << 20

var uploadExtensions = map[string]bool{".txt": true, ".md": true}

// SummaryService is implemented by *summary.Service.
type SummaryService interface {
	Summarize(ctx context.Context, req summary.Request) (*entity.Summary, error)
	SummarizeURL(ctx context.Context, url string, style entity.Style) (*entity.Summary, error)
}

// SummaryHandler serves the /api/v1/summarize endpoints.
type SummaryHandler struct {
	Svc SummaryService
}

// Text handles POST /api/v1/summarize/text.
func (h SummaryHandler) Text(w http.ResponseWriter, r *http.Request) {
	h.plain(w, r, entity.ClassText)
}

// Multilingual handles POST /api/v1/summarize/multilingual.
func (h SummaryHandler) Multilingual(w http.ResponseWriter, r *http.Request) {
	h.plain(w, r, entity.ClassMultilingual)
}

func (h SummaryHandler) plain(w http.ResponseWriter, r *http.Request, class entity.ContentClass) {
	var req textRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.run(w, r, summary.Request{
		Class:        class,
		Text:         req.Text,
		Style:        entity.Style(req.SummaryStyle),
		CustomPrompt: req.CustomPrompt,
	})
}

// Document handles POST /api/v1/summarize/document. It accepts either a JSON body
// or a multipart form whose "files" parts are .txt or .md documents.
func (h SummaryHandler) Document(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req documentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		var files []string
		if req.Filename != "" {
			files = []string{req.Filename}
		}
		h.run(w, r, summary.Request{
			Class:          entity.ClassDocument,
			Text:           req.Text,
			Style:          entity.Style(req.SummaryStyle),
			CustomPrompt:   req.CustomPrompt,
			FilesProcessed: files,
		})
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, badForm(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	text, files, err := readUploads(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.run(w, r, summary.Request{
		Class:          entity.ClassDocument,
		Text:           text,
		Style:          entity.Style(r.FormValue("summary_style")),
		CustomPrompt:   r.FormValue("custom_prompt"),
		FilesProcessed: files,
	})
}

// URL handles POST /api/v1/summarize/url.
func (h SummaryHandler) URL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		writeError(w, &entity.ValidationError{Field: "url", Message: "url is required"})
		return
	}
	if err := entity.ValidateURL(url); err != nil {
		writeError(w, err)
		return
	}
	style, err := entity.ParseStyle(req.SummaryStyle)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.Svc.SummarizeURL(r.Context(), url, style)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toSummaryResponse(result))
}

// YouTube handles POST /api/v1/summarize/youtube. The caller supplies the video
// transcript; url and title are recorded as the source.
func (h SummaryHandler) YouTube(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.run(w, r, summary.Request{
		Class:        entity.ClassTranscript,
		Text:         req.Transcript,
		Style:        entity.Style(req.SummaryStyle),
		CustomPrompt: req.CustomPrompt,
		SourceURL:    strings.TrimSpace(req.URL),
		SourceTitle:  strings.TrimSpace(req.Title),
	})
}

func (h SummaryHandler) run(w http.ResponseWriter, r *http.Request, req summary.Request) {
	result, err := h.Svc.Summarize(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toSummaryResponse(result))
}

// readUploads concatenates the "files" parts in upload order.
func readUploads(r *http.Request) (string, []string, error) {
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return "", nil, &entity.ValidationError{Field: "files", Message: "at least one file is required"}
	}

	var (
		parts []string
		names []string
	)
	for _, fh := range headers {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !uploadExtensions[ext] {
			return "", nil, &entity.ValidationError{
				Field:   "files",
				Message: fmt.Sprintf("unsupported file type %q: only .txt and .md are accepted", ext),
			}
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return "", nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		if content := strings.TrimSpace(string(data)); content != "" {
			parts = append(parts, content)
			names = append(names, filepath.Base(fh.Filename))
		}
	}
	if len(parts) == 0 {
		return "", nil, &entity.ValidationError{Field: "files", Message: "no text could be extracted from the uploaded files"}
	}
	return strings.Join(parts, "\n\n"), names, nil
}

// decodeJSON decodes a single JSON object from the request body. Unknown fields
// are ignored; a body over the size limit surfaces as *http.MaxBytesError.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return tooLarge
		}
		if errors.Is(err, io.EOF) {
			return &entity.ValidationError{Field: "body", Message: "request body is required"}
		}
		return &entity.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}

func badForm(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return tooLarge
	}
	return &entity.ValidationError{Field: "body", Message: "invalid multipart form"}
}
