package api

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
)

const defaultContentType = "application/octet-stream"

var saneRE = regexp.MustCompile(`^[-_.A-Za-z0-9]+$`)

// sanitize returns s when it is plain ASCII letters, digits, '-', '_' or
// '.', and the empty string otherwise.
func sanitize(s string) string {
	if saneRE.MatchString(s) {
		return s
	}
	return ""
}

// sanitizeContentType applies sanitize to both halves of type/subtype.
func sanitizeContentType(s string) string {
	major, minor, ok := strings.Cut(s, "/")
	if !ok || sanitize(major) == "" || sanitize(minor) == "" {
		return ""
	}
	return s
}

// SaveDataHandler echoes posted content back as a download, so a browser
// can save data it generated itself.
type SaveDataHandler struct {
	maxBytes int64
}

// NewSaveDataHandler creates a new save_data handler.
func NewSaveDataHandler(maxBytes int64) *SaveDataHandler {
	return &SaveDataHandler{maxBytes: maxBytes}
}

// HandleSave handles POST /save_data with form fields content, filename
// and content_type.
func (h *SaveDataHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_data"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, op, ErrPayloadTooLarge)
			return
		}
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	contentType := defaultContentType
	if v := r.PostForm.Get("content_type"); v != "" {
		contentType = sanitizeContentType(v)
		if contentType == "" {
			contentType = defaultContentType
		}
	}
	disposition := "attachment"
	if name := sanitize(r.PostForm.Get("filename")); name != "" {
		disposition += `; filename="` + name + `"`
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(r.PostForm.Get("content")))
}
