package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"media-pipeline/internal/ingest"
	"media-pipeline/internal/repository"
	service "media-pipeline/internal/services"
	utils "media-pipeline/internal/utis"
)

type Handler struct {
	svc *service.PipelineService
}

func NewHandler(svc *service.PipelineService) *Handler {
	return &Handler{svc: svc}
}

// POST /ingest (multipart/form-data 'files', form 'coll', 'startIndex')
// Runs the client pipeline server-side: classify, probe, compress, create
// documents, store, finalize. Siblings of a failed file still go through.
func (h *Handler) Ingest(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "multipart form required")
	}
	coll := c.FormValue("coll")
	if coll == "" {
		return utils.JSONError(c, fiber.StatusBadRequest, "coll missing")
	}
	startIndex, _ := strconv.Atoi(c.FormValue("startIndex"))

	headers := form.File["files"]
	if len(headers) == 0 {
		return utils.JSONError(c, fiber.StatusBadRequest, "files missing")
	}

	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readAll(fh)
		if err != nil {
			return utils.JSONError(c, fiber.StatusInternalServerError, utils.ErrInvalidFile.Error())
		}
		files = append(files, ingest.File{
			Name:     fh.Filename,
			Bytes:    data,
			MimeType: fh.Header.Get("Content-Type"),
		})
	}

	staged, stageErr := h.svc.Stage(c.Context(), coll, startIndex, files)
	var batchErr *ingest.BatchError
	if stageErr != nil && !errors.As(stageErr, &batchErr) {
		return utils.JSONError(c, fiber.StatusInternalServerError, stageErr.Error())
	}

	items := make([]interface{}, 0, len(staged))
	for _, st := range staged {
		if err := h.svc.FinalizeUpload(c.Context(), st.Item, st.Data); err != nil {
			return utils.JSONError(c, fiber.StatusInternalServerError, utils.ErrUploadFailed.Error())
		}
		items = append(items, st.Item)
	}

	payload := fiber.Map{"items": items}
	if batchErr != nil {
		// one generic notice; succeeded siblings are already through
		payload["notice"] = batchErr.Error()
	}
	return utils.JSONSuccess(c, fiber.StatusCreated, payload)
}

// POST /upload-complete (multipart 'file', form 'uid')
// The external transport's completion callback for an already-staged item.
func (h *Handler) UploadComplete(c *fiber.Ctx) error {
	uid := c.FormValue("uid")
	if uid == "" {
		return utils.JSONError(c, fiber.StatusBadRequest, "uid missing")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "file missing")
	}
	data, err := readAll(fh)
	if err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, utils.ErrInvalidFile.Error())
	}

	item, err := h.svc.GetByUID(c.Context(), uid)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.JSONError(c, fiber.StatusNotFound, utils.ErrItemNotFound.Error())
	}
	if err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, err.Error())
	}

	if err := h.svc.FinalizeUpload(c.Context(), item, data); err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, utils.ErrUploadFailed.Error())
	}
	return utils.JSONSuccess(c, fiber.StatusOK, item)
}

// GET /items/:uid
func (h *Handler) GetItem(c *fiber.Ctx) error {
	item, err := h.svc.GetByUID(c.Context(), c.Params("uid"))
	if errors.Is(err, repository.ErrNotFound) {
		return utils.JSONError(c, fiber.StatusNotFound, utils.ErrItemNotFound.Error())
	}
	if err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, err.Error())
	}
	return utils.JSONSuccess(c, fiber.StatusOK, item)
}

// GET /items/:uid/url -> presigned URL for the original
func (h *Handler) GetSignedURL(c *fiber.Ctx) error {
	url, err := h.svc.SignedURL(c.Context(), c.Params("uid"))
	if errors.Is(err, repository.ErrNotFound) {
		return utils.JSONError(c, fiber.StatusNotFound, utils.ErrItemNotFound.Error())
	}
	if err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, err.Error())
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"url": url})
}

// DELETE /items/:uid. Fan-out first, document second.
func (h *Handler) DeleteItem(c *fiber.Ctx) error {
	err := h.svc.Delete(c.Context(), c.Params("uid"))
	if errors.Is(err, repository.ErrNotFound) {
		return utils.JSONError(c, fiber.StatusNotFound, utils.ErrItemNotFound.Error())
	}
	if err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, err.Error())
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"deleted": c.Params("uid")})
}

// GET /progress. The batch-complete predicate plus raw counters.
func (h *Handler) Progress(c *fiber.Ctx) error {
	read, readTotal, processed, processedTotal := h.svc.Progress().Snapshot()
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{
		"read":            read,
		"readingTotal":    readTotal,
		"processed":       processed,
		"processingTotal": processedTotal,
		"done":            h.svc.Progress().Done(),
	})
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
