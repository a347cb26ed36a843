package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/answer"
	"github.com/canopyhq/rolechat/pkg/rbac"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the grounded answer plus the sources it drew from.
type ChatResponse struct {
	Answer     string             `json:"answer"`
	References []answer.Reference `json:"references"`
	Role       rbac.Role          `json:"role"`
}

// LoginResponse confirms a credential check and reports the caller's role.
type LoginResponse struct {
	Message string    `json:"message"`
	Role    rbac.Role `json:"role"`
}

// handleLogin verifies credentials (requireUser already did the work) and
// returns the caller's role so clients can shape their UI.
func (s *Server) handleLogin(c *fiber.Ctx) error {
	user := s.principal(c)
	return c.JSON(LoginResponse{
		Message: fmt.Sprintf("Welcome %s!", user.Username),
		Role:    user.Role,
	})
}

// handleChat runs the full question-to-answer pipeline: role-scoped
// retrieval, then grounded generation over whatever survived the score
// threshold.
func (s *Server) handleChat(c *fiber.Ctx) error {
	user := s.principal(c)

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	results, err := s.retriever.Retrieve(c.Context(), req.Message, user.Role, s.config.TopK)
	if err != nil {
		if errors.Is(err, rbac.ErrUnauthorized) {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "role not authorized for retrieval"})
		}
		s.logger.Error("retrieval failed",
			zap.String("username", user.Username),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "retrieval failed"})
	}

	generated, err := s.generator.Generate(c.Context(), req.Message, user.Role, results)
	if err != nil {
		s.logger.Error("answer generation failed",
			zap.String("username", user.Username),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "answer generation failed"})
	}

	refs := generated.References
	if refs == nil {
		refs = []answer.Reference{}
	}

	return c.JSON(ChatResponse{
		Answer:     generated.Text,
		References: refs,
		Role:       user.Role,
	})
}
