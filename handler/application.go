package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/AnTengye/jobtracker/middleware"
	"github.com/AnTengye/jobtracker/pkg/apperr"
	"github.com/AnTengye/jobtracker/service"
	"github.com/gin-gonic/gin"
)

// multipart parts above this size are spooled to disk
const maxFormMemory = 8 << 20

type ApplicationHandler struct {
	apps *service.ApplicationService
}

func NewApplicationHandler(apps *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps}
}

type StatusRequest struct {
	Status string `json:"status"`
}

func applicationID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("Application not found")
	}
	return id, nil
}

// readApplicationForm parses a multipart (or urlencoded) application form.
// The returned cleanup closes the uploaded file, if any.
func readApplicationForm(c *gin.Context) (service.ApplicationInput, func(), error) {
	noop := func() {}

	err := c.Request.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = c.Request.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return service.ApplicationInput{}, noop, err
		}
		return service.ApplicationInput{}, noop, apperr.InvalidInput("Invalid form data")
	}

	in := service.ApplicationInput{
		Company:         c.Request.FormValue("company"),
		ApplicationDate: c.Request.FormValue("application_date"),
		Status:          c.Request.FormValue("status"),
		InterviewDate:   c.Request.FormValue("interview_date"),
		AcceptedDate:    c.Request.FormValue("accepted_date"),
		RejectedDate:    c.Request.FormValue("rejected_date"),
		CoverLetter:     c.Request.FormValue("cover_letter"),
	}

	file, header, err := c.Request.FormFile("cv")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, noop, nil
	case err != nil:
		return in, noop, apperr.InvalidInput("Invalid CV upload")
	case header.Filename == "":
		file.Close()
		return in, noop, nil
	}

	in.CV = &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return in, func() { file.Close() }, nil
}

// List returns the caller's applications, latest first
func (h *ApplicationHandler) List(c *gin.Context) {
	apps, err := h.apps.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	id, err := applicationID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	app, err := h.apps.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Create handles the multipart application form
func (h *ApplicationHandler) Create(c *gin.Context) {
	in, cleanup, err := readApplicationForm(c)
	defer cleanup()
	if err != nil {
		respondError(c, err)
		return
	}

	app, err := h.apps.Create(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) Update(c *gin.Context) {
	id, err := applicationID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	in, cleanup, err := readApplicationForm(c)
	defer cleanup()
	if err != nil {
		respondError(c, err)
		return
	}

	app, err := h.apps.Update(c.Request.Context(), middleware.GetUserID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, err := applicationID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidInput("No data provided"))
		return
	}

	app, err := h.apps.UpdateStatus(c.Request.Context(), middleware.GetUserID(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	id, err := applicationID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.apps.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application deleted successfully"})
}

// Download streams a CV owned by the caller as an attachment
func (h *ApplicationHandler) Download(c *gin.Context) {
	filename := c.Param("filename")

	rc, err := h.apps.OpenCV(c.Request.Context(), middleware.GetUserID(c), filename)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	})
}

func (h *ApplicationHandler) Stats(c *gin.Context) {
	stats, err := h.apps.Stats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
