package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rithanya654/Generic-RAG/internal/queue"
	mid "github.com/Rithanya654/Generic-RAG/internal/server/middleware"
	"github.com/Rithanya654/Generic-RAG/internal/storage"
	"github.com/Rithanya654/Generic-RAG/pkg/graph"
	"github.com/Rithanya654/Generic-RAG/pkg/query"
)

func (s *Server) registerRoutes(e *echo.Echo) {
	api := e.Group("/api")
	if s.cfg.APISecret != "" {
		api.Use(mid.Auth(s.cfg.APISecret))
	}

	api.POST("/query", s.postQuery)
	api.POST("/index", s.postIndex)
	api.POST("/upload", s.postUpload)
	api.DELETE("/documents", s.deleteDocument)
	api.GET("/facts", s.getFacts)
	api.GET("/stats", s.getStats)
}

type queryRequest struct {
	DocID    string `json:"doc_id"`
	Question string `json:"question" validate:"required"`
}

func (s *Server) postQuery(c echo.Context) error {
	req := new(queryRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.DocID == "" {
		req.DocID = "doc-1"
	}

	result, err := query.Global(c.Request().Context(), s.store, s.ai, req.DocID, req.Question)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

type indexRequest struct {
	DocID string `json:"doc_id"`
	Path  string `json:"path" validate:"required"`
	Clear bool   `json:"clear"`
}

func (s *Server) postIndex(c echo.Context) error {
	if s.ch == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "no job queue configured"})
	}

	req := new(indexRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	jobID, err := queue.PublishIndexJob(s.ch, req.DocID, req.Path, req.Clear)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID})
}

// postUpload stores a pre-parsed document in the bucket and enqueues its
// index job in one step.
func (s *Server) postUpload(c echo.Context) error {
	if s.ch == nil || s.s3 == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "no upload storage configured"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing file"})
	}
	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable file"})
	}
	defer src.Close()

	key := fileHeader.Filename
	if err := storage.PutFile(c.Request().Context(), s.s3, key, fileHeader.Filename, src); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	docID := c.FormValue("doc_id")
	if docID == "" {
		docID = graph.DocIDFromPath(key)
	}
	clear := c.FormValue("clear") == "true"

	jobID, err := queue.PublishIndexJob(s.ch, docID, "s3://"+key, clear)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"job_id": jobID, "doc_id": docID})
}

// deleteDocument removes a document's graph and, when a path is given, its
// uploaded object.
func (s *Server) deleteDocument(c echo.Context) error {
	docID := c.QueryParam("doc")
	if docID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "doc is required"})
	}

	if path := c.QueryParam("path"); path != "" {
		if s.s3 == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "no upload storage configured"})
		}
		if err := storage.DeleteFile(c.Request().Context(), s.s3, storage.KeyFromPath(path)); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	if err := s.store.ClearDocument(c.Request().Context(), docID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted", "doc_id": docID})
}

func (s *Server) getFacts(c echo.Context) error {
	docID := c.QueryParam("doc")
	if docID == "" {
		docID = "doc-1"
	}
	result, err := query.Facts(c.Request().Context(), s.store, docID, c.QueryParam("metric"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getStats(c echo.Context) error {
	docID := c.QueryParam("doc")
	if docID == "" {
		docID = "doc-1"
	}
	stats, err := s.store.Stats(c.Request().Context(), docID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}
