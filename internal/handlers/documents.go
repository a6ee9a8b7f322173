package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"procurement/internal/access"
	"procurement/internal/files"
	"procurement/internal/logger"
	"procurement/models"

	"go.uber.org/zap"
)

// multipartOverhead запас на заголовки и поля формы сверх самого файла
const multipartOverhead = 1 << 20

// UploadDocumentHandler принимает multipart: file, entity_type, entity_id
func (h *Handler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, badRequest("File too large"))
			return
		}
		h.fail(w, r, badRequest("No file uploaded"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, badRequest("No file uploaded"))
		return
	}
	defer file.Close()
	if header.Size > h.opts.MaxUploadBytes {
		h.fail(w, r, badRequest("File too large"))
		return
	}

	rawType, rawID := r.FormValue("entity_type"), r.FormValue("entity_id")
	if rawType == "" || rawID == "" {
		h.fail(w, r, badRequest("Entity type and ID are required"))
		return
	}
	entityType, err := models.ParseEntityType(rawType)
	if err != nil {
		h.fail(w, r, badRequest("Invalid entity type"))
		return
	}
	entityID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || entityID <= 0 {
		h.fail(w, r, badRequest("Invalid entity ID"))
		return
	}
	if err := h.authorize(r, access.ResourceDocument, access.ActionCreate, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}

	contentType, err := files.DetectContentType(file)
	if err != nil || contentType == "" {
		contentType = header.Header.Get("Content-Type")
	}

	ctx := r.Context()
	key := files.NewKey(header.Filename)
	size, err := h.Files.Save(ctx, key, file, contentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	doc := &models.Document{
		EntityType:   entityType,
		EntityID:     entityID,
		Filename:     key,
		OriginalName: header.Filename,
		FilePath:     key,
		FileSize:     size,
		MimeType:     contentType,
	}
	if err := h.Store.CreateDocument(ctx, doc); err != nil {
		// запись не создана, файл без записи не нужен
		if rmErr := h.Files.Remove(ctx, key); rmErr != nil {
			logger.FromContext(ctx, h.Log).Warn("orphan upload left in storage",
				zap.String("key", key), zap.Error(rmErr))
		}
		h.fail(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.DocumentUploaded(size)
	}
	writeJSON(w, http.StatusCreated, envelope{"message": "Document uploaded successfully", "document": doc})
}

func (h *Handler) GetDocumentsByEntityHandler(w http.ResponseWriter, r *http.Request) {
	entityType, err := models.ParseEntityType(chiParam(r, "entity_type"))
	if err != nil {
		h.fail(w, r, badRequest("Invalid entity type"))
		return
	}
	entityID, err := parseID(r, "entity_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.authorize(r, access.ResourceDocument, access.ActionListByParent, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}

	docs, err := h.Store.GetDocumentsByEntity(r.Context(), entityType, entityID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Documents retrieved successfully", "documents": docs})
}

func (h *Handler) loadDocument(r *http.Request, act access.Action) (*models.Document, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return nil, err
	}
	doc, err := h.Store.GetDocument(r.Context(), id)
	if err != nil {
		return nil, lookupErr(err, "Document")
	}
	if err := h.authorize(r, access.ResourceDocument, act, access.Subject{}); err != nil {
		return nil, err
	}
	return doc, nil
}

func (h *Handler) DownloadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.loadDocument(r, access.ActionRead)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	content, err := h.Files.Open(r.Context(), doc.FilePath)
	if err != nil {
		if errors.Is(err, files.ErrFileNotFound) {
			err = notFound("File")
		}
		h.fail(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.OriginalName}))
	if doc.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		logger.FromContext(r.Context(), h.Log).Warn("download interrupted",
			zap.Int64("document_id", doc.ID), zap.Error(err))
	}
}

// DeleteDocumentHandler сначала файл, потом запись. Если файл удалить не удалось, запись остаётся.
func (h *Handler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.loadDocument(r, access.ActionDelete)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.Files.Remove(ctx, doc.FilePath); err != nil && !errors.Is(err, files.ErrFileNotFound) {
		h.fail(w, r, err)
		return
	}
	if _, err := h.Store.DeleteDocument(ctx, doc.ID); err != nil {
		h.fail(w, r, lookupErr(err, "Document"))
		return
	}
	writeMessage(w, http.StatusOK, "Document deleted successfully")
}
