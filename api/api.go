package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/answer"
	"github.com/canopyhq/rolechat/pkg/indexer"
	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/retrieval"
	"github.com/canopyhq/rolechat/pkg/users"
	"github.com/canopyhq/rolechat/pkg/vector"
)

// Server is the HTTP server for the rolechat system. Every route except
// /ping requires HTTP Basic authentication against the user store; the
// authenticated principal's role scopes all retrieval behind /chat.
type Server struct {
	config    Config
	users     users.Store
	retriever *retrieval.Retriever
	generator *answer.Generator
	indexer   *indexer.Indexer
	driver    vector.Driver
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a new API server. All collaborators are injected so the
// same wiring serves both the real binary and the handler tests.
func NewServer(
	config Config,
	store users.Store,
	retriever *retrieval.Retriever,
	generator *answer.Generator,
	ix *indexer.Indexer,
	driver vector.Driver,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	if config.TopK <= 0 {
		config.TopK = retrieval.DefaultTopK
	}

	s := &Server{
		config:    config,
		users:     store,
		retriever: retriever,
		generator: generator,
		indexer:   ix,
		driver:    driver,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)

	authed := app.Group("", s.requireUser)
	authed.Get("/login", s.handleLogin)
	authed.Post("/chat", s.handleChat)

	index := app.Group("/admin/index", s.requireUser, s.requireRole(rbac.RoleAdmin, rbac.RoleCLevel))
	index.Post("/init", s.handleIndexInit)
	index.Post("/documents", s.handleIndexDocuments)
	index.Get("/stats", s.handleIndexStats)
	index.Delete("/clear", s.handleIndexClear)
	index.Post("/reindex", s.handleIndexReindex)

	admin := app.Group("/admin/users", s.requireUser, s.requireRole(rbac.RoleAdmin))
	admin.Get("/", s.handleListUsers)
	admin.Post("/", s.handleCreateUser)
	admin.Put("/:username", s.handleUpdateUser)
	admin.Delete("/:username", s.handleDeleteUser)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}
