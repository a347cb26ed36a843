package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/users"
)

// UserRequest is the body of POST /admin/users and PUT /admin/users/:username.
type UserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserResponse is a user as exposed over the API. Password hashes stay in
// the store.
type UserResponse struct {
	Username string    `json:"username"`
	Role     rbac.Role `json:"role"`
}

// handleListUsers returns all users.
func (s *Server) handleListUsers(c *fiber.Ctx) error {
	list, err := s.users.List(c.Context())
	if err != nil {
		s.logger.Error("user list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list users"})
	}

	out := make([]UserResponse, len(list))
	for i, user := range list {
		out[i] = UserResponse{Username: user.Username, Role: user.Role}
	}

	return c.JSON(out)
}

// handleCreateUser adds a new user.
func (s *Server) handleCreateUser(c *fiber.Ctx) error {
	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "username and password are required"})
	}

	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("unknown role %q", req.Role)})
	}

	user, err := s.users.Create(c.Context(), req.Username, req.Password, role)
	if err != nil {
		if errors.Is(err, users.ErrExists) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: "user already exists"})
		}
		s.logger.Error("user create failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to create user"})
	}

	s.logger.Info("user created",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return c.Status(fiber.StatusCreated).JSON(UserResponse{Username: user.Username, Role: user.Role})
}

// handleUpdateUser changes a user's role and optionally their password.
func (s *Server) handleUpdateUser(c *fiber.Ctx) error {
	username := c.Params("username")

	var req UserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("unknown role %q", req.Role)})
	}

	user, err := s.users.Update(c.Context(), username, req.Password, role)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "user not found"})
		}
		s.logger.Error("user update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to update user"})
	}

	return c.JSON(UserResponse{Username: user.Username, Role: user.Role})
}

// handleDeleteUser removes a user.
func (s *Server) handleDeleteUser(c *fiber.Ctx) error {
	username := c.Params("username")

	if err := s.users.Delete(c.Context(), username); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "user not found"})
		}
		s.logger.Error("user delete failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete user"})
	}

	return c.JSON(fiber.Map{"message": fmt.Sprintf("user %q deleted", username)})
}
