package v1

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/adanyl0v/go-task-api/internal/models"
)

var registerValidatorsOnce sync.Once

func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		// trimmax bounds the length of what is stored, not of the raw input.
		_ = v.RegisterValidation("trimmax", func(fl validator.FieldLevel) bool {
			limit, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) <= limit
		})
		_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			return models.TaskStatus(fl.Field().String()).IsValid()
		})
	})
}

// validationMessageID maps the first failed rule of a binding error to a
// catalog message. Anything that is not a validation error means the
// payload itself could not be decoded and yields fallback.
func validationMessageID(err error, fallback string) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fallback
	}

	fe := errs[0]
	switch fe.StructField() {
	case "Title":
		if fe.Tag() == "trimmax" {
			return msgTitleTooLong
		}
		return msgTitleRequired
	case "Status":
		return msgInvalidStatus
	case "Page":
		return msgInvalidPage
	case "Limit":
		return msgInvalidLimit
	case "Email":
		if fe.Tag() == "required" {
			return msgEmailRequired
		}
		return msgInvalidEmail
	case "Password":
		switch fe.Tag() {
		case "required":
			return msgPasswordRequired
		case "min":
			return msgPasswordTooShort
		default:
			return msgPasswordTooLong
		}
	case "RefreshToken":
		return msgRefreshTokenRequired
	}
	return fallback
}
