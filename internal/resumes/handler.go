package resumes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"resumind-backend/internal/pipeline"
	"resumind-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires the HTTP surface to the service and the pipeline.
type Handler struct {
	Svc      *Service
	Pipeline *pipeline.Controller

	// inFlight guards against a second concurrent submission from this
	// process. It belongs to this layer, not the pipeline.
	inFlight atomic.Bool
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, ctrl *pipeline.Controller) *Handler {
	return &Handler{Svc: svc, Pipeline: ctrl}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.submit)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.get)
	rg.GET("/resumes/:id/file", h.file)
	rg.GET("/resumes/:id/image", h.image)
	rg.DELETE("/resumes/:id", h.delete)
	rg.DELETE("/resumes", h.wipe)
}

func (h *Handler) submit(c *gin.Context) {
	if !h.inFlight.CompareAndSwap(false, true) {
		respond.Error(c, http.StatusConflict, "submission_in_progress", "another submission is being processed", nil)
		return
	}
	defer h.inFlight.Store(false)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	in := pipeline.SubmitInput{
		Document:       document,
		FileName:       fileHeader.Filename,
		CompanyName:    c.PostForm("company_name"),
		JobTitle:       c.PostForm("job_title"),
		JobDescription: c.PostForm("job_description"),
	}

	id, err := h.Pipeline.Submit(c.Request.Context(), in)
	if err != nil {
		var perr *pipeline.Error
		if errors.As(err, &perr) {
			respond.Error(c, statusForKind(perr.Kind), string(perr.Kind), perr.Message(), gin.H{
				"stage": string(perr.Stage),
			})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}

	respond.JSON(c, http.StatusCreated, submitResponse{ID: id})
}

func (h *Handler) list(c *gin.Context) {
	recs, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list resumes", nil)
		return
	}
	respond.OK(c, toListResponse(recs))
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load resume", nil)
		return
	}
	respond.OK(c, toResponse(rec))
}

func (h *Handler) file(c *gin.Context) {
	h.stream(c, h.Svc.OpenResume, "application/pdf")
}

func (h *Handler) image(c *gin.Context) {
	h.stream(c, h.Svc.OpenImage, "image/jpeg")
}

func (h *Handler) stream(c *gin.Context, open func(ctx context.Context, id string) (io.ReadCloser, error), contentType string) {
	rc, err := open(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to open artifact", nil)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, rc)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to delete resume", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) wipe(c *gin.Context) {
	if err := h.Svc.Wipe(c.Request.Context()); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to wipe resumes", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func statusForKind(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindConversion, pipeline.KindMalformedResponse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
