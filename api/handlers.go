package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/indexer"
	"github.com/canopyhq/rolechat/pkg/rbac"
)

// IndexRunResponse reports what an indexing run ingested.
type IndexRunResponse struct {
	Message       string            `json:"message"`
	FilesIndexed  int               `json:"files_indexed"`
	FilesSkipped  int               `json:"files_skipped"`
	TotalChunks   int               `json:"total_chunks"`
	ChunksPerRole map[rbac.Role]int `json:"chunks_per_role"`
	DurationMS    int64             `json:"duration_ms"`
}

// IndexStatsResponse describes the current index contents.
type IndexStatsResponse struct {
	Collection string            `json:"collection"`
	Total      int               `json:"total_chunks"`
	PerRole    map[rbac.Role]int `json:"chunks_per_role"`
	Dimensions int               `json:"dimensions"`
}

// handleIndexInit (re)creates the vector store collection.
func (s *Server) handleIndexInit(c *fiber.Ctx) error {
	if err := s.indexer.Init(c.Context()); err != nil {
		s.logger.Error("vector store init failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to initialize vector store"})
	}

	return c.JSON(fiber.Map{"message": "vector store initialized"})
}

// handleIndexDocuments walks the corpus and indexes every supported document.
func (s *Server) handleIndexDocuments(c *fiber.Ctx) error {
	report, err := s.indexer.IndexAll(c.Context())
	if err != nil {
		s.logger.Error("indexing run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "indexing failed"})
	}

	return c.JSON(indexRunResponse("document indexing completed", report))
}

// handleIndexStats reports per-role and total chunk counts.
func (s *Server) handleIndexStats(c *fiber.Ctx) error {
	stats, err := s.driver.Stats(c.Context())
	if err != nil {
		s.logger.Error("stats query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get index stats"})
	}

	return c.JSON(IndexStatsResponse{
		Collection: stats.Collection,
		Total:      stats.Total,
		PerRole:    stats.PerRole,
		Dimensions: stats.Dimensions,
	})
}

// handleIndexClear removes every record from the vector store.
func (s *Server) handleIndexClear(c *fiber.Ctx) error {
	if err := s.driver.Clear(c.Context()); err != nil {
		s.logger.Error("vector store clear failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to clear vector store"})
	}

	return c.JSON(fiber.Map{"message": "vector store cleared"})
}

// handleIndexReindex clears the store and runs a fresh indexing pass.
func (s *Server) handleIndexReindex(c *fiber.Ctx) error {
	report, err := s.indexer.Reindex(c.Context())
	if err != nil {
		s.logger.Error("reindexing run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "reindexing failed"})
	}

	return c.JSON(indexRunResponse("document reindexing completed", report))
}

func indexRunResponse(message string, report *indexer.Report) IndexRunResponse {
	return IndexRunResponse{
		Message:       message,
		FilesIndexed:  report.FilesIndexed,
		FilesSkipped:  report.FilesSkipped,
		TotalChunks:   report.Chunks,
		ChunksPerRole: report.ChunksPerRole,
		DurationMS:    report.Duration.Milliseconds(),
	}
}
