package httpapi

import (
	"fmt"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// parseBody decodes a JSON request body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: invalid body", common.ErrorInvalidInput)
	}
	return nil
}

func (r credentialsRequest) values() (string, string, error) {
	if r.Username == nil || r.Password == nil {
		return "", "", fmt.Errorf("%w: username and password are required", common.ErrorInvalidInput)
	}
	return *r.Username, *r.Password, nil
}

func tokenBody(pair *services.TokenPair) fiber.Map {
	return fiber.Map{
		"success":       true,
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}
}

func (s *HTTPServer) login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	username, password, err := req.values()
	if err != nil {
		return err
	}

	pair, user, err := s.svc.Users.Login(c.UserContext(), username, password)
	if err != nil {
		return err
	}

	body := tokenBody(pair)
	body["user"] = toUser(user)
	return c.JSON(body)
}

func (s *HTTPServer) register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	username, password, err := req.values()
	if err != nil {
		return err
	}

	user, err := s.svc.Users.Register(c.UserContext(), username, password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "user": toUser(user)})
}

func (s *HTTPServer) refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.RefreshToken == nil {
		return fmt.Errorf("%w: refresh_token is required", common.ErrorInvalidInput)
	}

	pair, err := s.svc.Users.RefreshToken(c.UserContext(), *req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(tokenBody(pair))
}

func (s *HTTPServer) logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.RefreshToken == nil {
		return fmt.Errorf("%w: refresh_token is required", common.ErrorInvalidInput)
	}

	if err := s.svc.Users.Logout(c.UserContext(), *req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *HTTPServer) verify(c *fiber.Ctx) error {
	id, err := s.svc.Users.Verify(c.Get(common.AuthorizationHeaderName))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "valid": true, "user": id})
}

func (s *HTTPServer) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "status": "ok"})
}
