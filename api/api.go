package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/noticeharvest/archive"
	"github.com/pevans/noticeharvest/notice"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

var errArchiveDisabled = errors.New("run archive is not configured")

// RunStore is the part of the archive the API reads from.
type RunStore interface {
	ListRuns(limit int) ([]archive.Run, error)
	GetRun(runID uuid.UUID) (*archive.Run, error)
}

// Server serves the harvested notices over HTTP.
type Server struct {
	resultPath string
	runs       RunStore
}

// NewServer creates a server for the result file at resultPath. runs may be
// nil, in which case the run endpoints report the archive as unavailable.
func NewServer(resultPath string, runs RunStore) *Server {
	return &Server{
		resultPath: resultPath,
		runs:       runs,
	}
}

// SetupRouter configures the Gin router with all notice API routes.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/api/notices.json", s.HandleNotices)

	v1 := router.Group("/api/v1")
	v1.GET("/runs", s.HandleListRuns)
	v1.GET("/runs/:id", s.HandleGetRun)

	return router
}

// ListRunsResponse represents the response for GET /api/v1/runs.
type ListRunsResponse struct {
	Runs  []archive.Run `json:"runs"`
	Total int           `json:"total"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// handleError maps domain errors to HTTP responses.
func (s *Server) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notice.ErrNoResult), errors.Is(err, archive.ErrRunNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.Is(err, errArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, errorResponse("unavailable", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to process request"))
	}
}

// HandleNotices handles GET /api/notices.json.
func (s *Server) HandleNotices(c *gin.Context) {
	result, err := notice.ReadFile(s.resultPath)
	if err != nil {
		s.handleError(c, err)
		return
	}

	// Same encoding as the harvester's output file
	var buf bytes.Buffer
	if err := notice.Encode(&buf, result); err != nil {
		s.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// HandleListRuns handles GET /api/v1/runs.
func (s *Server) HandleListRuns(c *gin.Context) {
	if s.runs == nil {
		s.handleError(c, errArchiveDisabled)
		return
	}

	limit := defaultRunLimit
	if limitParam := c.Query("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, errorResponse("validation_error", "limit must be a positive integer"))
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if runs == nil {
		runs = []archive.Run{}
	}

	c.JSON(http.StatusOK, ListRunsResponse{
		Runs:  runs,
		Total: len(runs),
	})
}

// HandleGetRun handles GET /api/v1/runs/{id}.
func (s *Server) HandleGetRun(c *gin.Context) {
	if s.runs == nil {
		s.handleError(c, errArchiveDisabled)
		return
	}

	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", "Invalid run ID"))
		return
	}

	run, err := s.runs.GetRun(runID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}
