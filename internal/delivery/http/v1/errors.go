package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Message IDs of the translation catalog.
const (
	msgAuthHeaderRequired   = "authHeaderRequired"
	msgInvalidToken         = "invalidToken"
	msgSessionNotFound      = "sessionNotFound"
	msgUserAlreadyExists    = "userAlreadyExists"
	msgInvalidCredentials   = "invalidCredentials"
	msgInvalidRefreshToken  = "invalidRefreshToken"
	msgInvalidRequestBody   = "invalidRequestBody"
	msgInvalidQuery         = "invalidQuery"
	msgInvalidTaskID        = "invalidTaskID"
	msgTaskNotFound         = "taskNotFound"
	msgTaskDeleted          = "taskDeleted"
	msgTitleRequired        = "titleRequired"
	msgTitleTooLong         = "titleTooLong"
	msgInvalidStatus        = "invalidStatus"
	msgInvalidSort          = "invalidSort"
	msgInvalidPage          = "invalidPage"
	msgPageOutOfRange       = "pageOutOfRange"
	msgInvalidLimit         = "invalidLimit"
	msgEmailRequired        = "emailRequired"
	msgInvalidEmail         = "invalidEmail"
	msgPasswordRequired     = "passwordRequired"
	msgPasswordTooShort     = "passwordTooShort"
	msgPasswordTooLong      = "passwordTooLong"
	msgRefreshTokenRequired = "refreshTokenRequired"
	msgNoFileUploaded       = "noFileUploaded"
	msgTooManyFiles         = "tooManyFiles"
	msgInvalidFileType      = "invalidFileType"
	msgFileTooLarge         = "fileTooLarge"
	msgRouteNotFound        = "routeNotFound"
	msgInternalServerError  = "internalServerError"
)

type apiError struct {
	Code      int
	MessageID string
}

func newAPIError(code int, messageID string) apiError {
	return apiError{
		Code:      code,
		MessageID: messageID,
	}
}

func newBadRequestError(messageID string) apiError {
	return newAPIError(http.StatusBadRequest, messageID)
}

func newUnauthorizedError(messageID string) apiError {
	return newAPIError(http.StatusUnauthorized, messageID)
}

func newForbiddenError(messageID string) apiError {
	return newAPIError(http.StatusForbidden, messageID)
}

func newNotFoundError(messageID string) apiError {
	return newAPIError(http.StatusNotFound, messageID)
}

func newConflictError(messageID string) apiError {
	return newAPIError(http.StatusConflict, messageID)
}

func newRequestEntityTooLargeError(messageID string) apiError {
	return newAPIError(http.StatusRequestEntityTooLarge, messageID)
}

func (h *handlerImpl) abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": h.localize(c, err.MessageID)})
}

// abortInternal replies 500. The cause reaches the client only when
// the handler was built with ExposeErrors.
func (h *handlerImpl) abortInternal(c *gin.Context, cause error) {
	_ = c.Error(cause)

	message := h.localize(c, msgInternalServerError)
	if h.opts.ExposeErrors && cause != nil {
		message = cause.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": message})
}

func (h *handlerImpl) localize(c *gin.Context, messageID string) string {
	return h.translator.Localize(getLang(c), messageID)
}
