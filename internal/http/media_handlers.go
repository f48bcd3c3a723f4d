package httpapi

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"keep-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// readUpload parses a multipart body with a single "file" part. The form
// limit leaves headroom over the bucket cap so oversize files reach the
// bucket policy and get a 413 instead of a parse error.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (services.Upload, multipart.File, bool) {
	limit := maxBytes + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "File too large")
			return services.Upload{}, nil, false
		}
		WriteError(w, http.StatusBadRequest, "File is empty")
		return services.Upload{}, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "File is empty")
		return services.Upload{}, nil, false
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return services.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}, file, true
}

func formValue(r *http.Request, key string) *string {
	value := strings.TrimSpace(r.FormValue(key))
	if value == "" {
		return nil
	}
	return &value
}

func (s *Server) ListPhotos(w http.ResponseWriter, r *http.Request) {
	items, err := s.Inventory.ListPhotos(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]PhotoDTO{"items": mapSlice(items, toPhotoDTO)})
}

func (s *Server) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	upload, file, ok := readUpload(w, r, s.Inventory.Photos.MaxBytes)
	if !ok {
		return
	}
	defer file.Close()
	input := services.PhotoInput{Description: formValue(r, "description")}
	photo, err := s.Inventory.UploadPhoto(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"), input, upload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toPhotoDTO(photo))
}

func (s *Server) SetPrimaryPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := s.Inventory.SetPrimaryPhoto(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "photoId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toPhotoDTO(photo))
}

func (s *Server) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.Inventory.DeletePhoto(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "photoId")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublicPhoto streams from the public photo bucket. Photo ids are
// unguessable, so no principal is required.
func (s *Server) PublicPhoto(w http.ResponseWriter, r *http.Request) {
	body, photo, err := s.Inventory.OpenPublicPhoto(r.Context(), chi.URLParam(r, "photoId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer body.Close()
	w.Header().Set("Cache-Control", "public, max-age=86400")
	s.streamObject(w, r, body, photo.ContentType, photo.FileSize, "")
}

func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	items, err := s.Inventory.ListDocuments(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string][]DocumentDTO{"items": mapSlice(items, toDocumentDTO)})
}

func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	upload, file, ok := readUpload(w, r, s.Inventory.Documents.MaxBytes)
	if !ok {
		return
	}
	defer file.Close()
	input := services.DocumentInput{
		Name:         strings.TrimSpace(r.FormValue("name")),
		Description:  formValue(r, "description"),
		DocumentType: strings.TrimSpace(r.FormValue("documentType")),
	}
	if input.Name == "" {
		input.Name = upload.Filename
	}
	document, err := s.Inventory.UploadDocument(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "assetId"), input, upload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toDocumentDTO(document))
}

func (s *Server) DocumentContent(w http.ResponseWriter, r *http.Request) {
	body, document, err := s.Inventory.OpenDocument(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "documentId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer body.Close()
	w.Header().Set("Cache-Control", "private, no-store")
	s.streamObject(w, r, body, document.ContentType, document.FileSize, document.Name)
}

func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Inventory.DeleteDocument(r.Context(), CurrentPrincipal(r), chi.URLParam(r, "documentId")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) streamObject(w http.ResponseWriter, r *http.Request, body io.Reader, contentType string, size int64, filename string) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if filename != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filename}))
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.Log.Warn("object stream interrupted", zap.String("path", r.URL.Path), zap.Error(err))
	}
}
