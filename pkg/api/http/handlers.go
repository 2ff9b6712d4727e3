package http

import (
	"errors"
	"net/http"

	"github.com/aescanero/plexo/internal/application/orchestrator"
	"github.com/aescanero/plexo/pkg/plugin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunRequest represents an orchestration run request. Plugins may be
// nil to run every loaded plugin.
type RunRequest struct {
	Plugins []string                  `json:"plugins"`
	Options map[string]plugin.Options `json:"options"`
}

// RunResponse represents an orchestration run response.
type RunResponse struct {
	RunID   string   `json:"run_id"`
	Jobs    []string `json:"jobs"`
	Started bool     `json:"started"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"busy":   s.orchestrator.Busy(),
		"jobs":   len(s.orchestrator.JobNames()),
	})
}

// handleRun launches an orchestration run.
func (s *Server) handleRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	runID, err := s.orchestrator.Run(c.Request.Context(), req.Plugins, req.Options)
	if err != nil {
		var unsatisfied *orchestrator.UnsatisfiedDependencyError
		if errors.As(err, &unsatisfied) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error: ErrorDetail{
					Code:    "UNSATISFIED_DEPENDENCY",
					Message: unsatisfied.Error(),
					Details: gin.H{
						"plugin":  unsatisfied.Plugin,
						"missing": unsatisfied.Missing,
					},
				},
			})
			return
		}

		s.logger.Error("run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "RUN_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, RunResponse{
		RunID:   runID,
		Jobs:    s.orchestrator.JobNames(),
		Started: true,
	})
}

// handleListJobs lists currently tracked jobs.
func (s *Server) handleListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"jobs": s.orchestrator.JobNames(),
		"busy": s.orchestrator.Busy(),
	})
}

// handleGetJob returns one tracked job.
func (s *Server) handleGetJob(c *gin.Context) {
	name := c.Param("name")

	job, ok := s.orchestrator.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "JOB_NOT_FOUND",
				Message: "No tracked job with that name",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":       job.Name,
		"run_id":     job.RunID,
		"alive":      job.Alive(),
		"started_at": job.StartedAt,
	})
}

// handleKillJob forcefully terminates one tracked job.
func (s *Server) handleKillJob(c *gin.Context) {
	name := c.Param("name")

	if !s.orchestrator.Kill(name) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "JOB_NOT_FOUND",
				Message: "No tracked job with that name",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":   name,
		"killed": true,
	})
}

// handleWait blocks until no tracked job remains alive.
func (s *Server) handleWait(c *gin.Context) {
	if err := s.orchestrator.Block(c.Request.Context()); err != nil {
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: ErrorDetail{
				Code:    "WAIT_ABORTED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"busy": false,
		"jobs": s.orchestrator.JobNames(),
	})
}

// handleStatus reports whether any job is running.
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"busy": s.orchestrator.Busy(),
	})
}

// handleResults returns the result registry snapshot.
func (s *Server) handleResults(c *gin.Context) {
	results, err := s.orchestrator.Results(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to read results", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "RESULTS_UNAVAILABLE",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}

// handleReset clears the result registry.
func (s *Server) handleReset(c *gin.Context) {
	if err := s.orchestrator.Reset(c.Request.Context()); err != nil {
		s.logger.Error("failed to reset results", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "RESET_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reset": true,
	})
}

// handleListPlugins lists default and loaded plugin names.
func (s *Server) handleListPlugins(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"defaults": s.orchestrator.DefaultNames(),
		"loaded":   s.orchestrator.LoadedNames(),
	})
}
