package v1

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-api/internal/services"
	"github.com/adanyl0v/go-task-api/internal/storage"
)

const (
	imageFormField = "image"
	// multipartOverhead leaves room for boundaries and part headers on
	// top of the file itself.
	multipartOverhead = 1 << 20
)

func (h *handlerImpl) HandleUploadTaskImage(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}
	taskID, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	fileHeader, ok := h.singleImage(c)
	if !ok {
		return
	}

	contentType, ok := storage.ImageContentType(fileHeader.Filename)
	if !ok {
		h.logger.Debug().
			Str("filename", fileHeader.Filename).
			Msg("rejected non-image upload")
		h.abort(c, newBadRequestError(msgInvalidFileType))
		return
	}
	if fileHeader.Size > h.opts.MaxUploadSize {
		h.abort(c, newRequestEntityTooLargeError(msgFileTooLarge))
		return
	}

	// The task must exist before anything is written to storage.
	_, err := h.tasks.GetTask(c, userID, taskID)
	if err != nil {
		h.abortTaskError(c, err)
		return
	}

	name, err := storage.NewObjectName(fileHeader.Filename)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate object name")
		h.abortInternal(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to open uploaded file")
		h.abortInternal(c, err)
		return
	}
	defer func() { _ = file.Close() }()

	err = h.storage.Save(c, name, file, fileHeader.Size, contentType)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to store image")
		h.abortInternal(c, err)
		return
	}

	imagePath := storage.PublicPath(name)
	task, previous, err := h.tasks.SetTaskImage(c, services.SetTaskImageParams{
		ID:        taskID,
		UserID:    userID,
		ImagePath: imagePath,
	})
	if err != nil {
		h.removeStoredImage(c, imagePath)
		h.abortTaskError(c, err)
		return
	}

	if previous != "" && previous != imagePath {
		h.removeStoredImage(c, previous)
	}

	h.logger.Info().
		Str("task_id", taskID).
		Str("image", imagePath).
		Msg("uploaded task image")
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

// singleImage extracts exactly one file from the image form field.
func (h *handlerImpl) singleImage(c *gin.Context) (*multipart.FileHeader, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadSize+multipartOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.abort(c, newRequestEntityTooLargeError(msgFileTooLarge))
			return nil, false
		}

		h.logger.Debug().
			Err(err).
			Msg("failed to parse multipart form")
		h.abort(c, newBadRequestError(msgNoFileUploaded))
		return nil, false
	}

	files := form.File[imageFormField]
	switch {
	case len(files) == 0:
		h.abort(c, newBadRequestError(msgNoFileUploaded))
		return nil, false
	case len(files) > 1:
		h.abort(c, newBadRequestError(msgTooManyFiles))
		return nil, false
	}
	return files[0], true
}

// HandleServeUpload redirects to a short-lived URL of the stored object.
// It is mounted only for backends that implement storage.URLSigner.
func (h *handlerImpl) HandleServeUpload(c *gin.Context) {
	signer, ok := h.storage.(storage.URLSigner)
	if !ok {
		h.abort(c, newNotFoundError(msgRouteNotFound))
		return
	}

	name := strings.TrimPrefix(c.Param("name"), "/")
	url, err := signer.SignedURL(c, name)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			h.abort(c, newNotFoundError(msgRouteNotFound))
			return
		}

		h.logger.Error().
			Err(err).
			Str("name", name).
			Msg("failed to sign upload url")
		h.abortInternal(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}
