package httpapi

import (
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/logging"
	"github.com/dmitrijs2005/salesdesk/internal/server/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"

	localsIdentity = "identity"
)

func (s *HTTPServer) requestID(c *fiber.Ctx) error {
	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDHeader, id)
	c.SetUserContext(logging.ContextWithRequestID(c.UserContext(), id))
	return c.Next()
}

// requestLogger writes one line per request. Errors are rendered here so
// the logged status is the one the client receives.
func (s *HTTPServer) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := s.errorHandler(c, err); herr != nil {
			return herr
		}
	}

	s.logger.Info(c.UserContext(), "request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start).String(),
	)
	return nil
}

// requireAuth is the bearer-token gate in front of every protected route.
func (s *HTTPServer) requireAuth(c *fiber.Ctx) error {
	id, err := s.svc.Users.Verify(c.Get(common.AuthorizationHeaderName))
	if err != nil {
		return err
	}
	c.Locals(localsIdentity, id)
	return c.Next()
}

// streamAuth is requireAuth for EventSource clients, which cannot set
// headers: a ?token= query parameter stands in for a missing header.
func (s *HTTPServer) streamAuth(c *fiber.Ctx) error {
	header := c.Get(common.AuthorizationHeaderName)
	if header == "" && c.Query("token") != "" {
		header = common.BearerPrefix + c.Query("token")
	}
	id, err := s.svc.Users.Verify(header)
	if err != nil {
		return err
	}
	c.Locals(localsIdentity, id)
	return c.Next()
}

func identityOf(c *fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(localsIdentity).(*auth.Identity)
	return id
}

func userIDOf(c *fiber.Ctx) int64 {
	if id := identityOf(c); id != nil {
		return id.UserID
	}
	return 0
}
