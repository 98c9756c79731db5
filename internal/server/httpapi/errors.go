package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/gofiber/fiber/v2"
)

const msgInternal = "internal server error"

// statusFor maps an error returned by a handler or middleware to the
// response status and the message the client is allowed to see.
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, common.ErrorInvalidInput), errors.Is(err, common.ErrInsufficientStock):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrMissingCredential),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, err.Error()
	case errors.As(err, &fe):
		switch fe.Code {
		case http.StatusMethodNotAllowed:
			return fe.Code, "method not allowed"
		case http.StatusNotFound:
			return fe.Code, "not found"
		case http.StatusInternalServerError:
			return fe.Code, msgInternal
		}
		return fe.Code, fe.Message
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *HTTPServer) errorHandler(c *fiber.Ctx, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed",
			"path", c.Path(), "error", err.Error())
	}
	return c.Status(code).JSON(fiber.Map{"success": false, "error": msg})
}
