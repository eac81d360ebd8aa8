package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/harun/kspar/internal/tracing"
	"github.com/harun/kspar/pkg/pipeline"
	"github.com/harun/kspar/pkg/product"
)

const maxRequestBytes = 1 << 20

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCreateSession registers a new session with every agent app. An empty
// body uses the configured session context.
func (s *Server) handleCreateSession(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.abort(c, NewValidationError("Failed to read request body", err.Error()))
		return
	}

	sessionContext := s.sessionContext
	if len(strings.TrimSpace(string(body))) > 0 {
		sessionContext = nil
		if err := json.Unmarshal(body, &sessionContext); err != nil {
			s.abort(c, NewValidationError("Session context must be a JSON object", err.Error()))
			return
		}
	}

	sessionID := pipeline.NewSessionID()
	if err := s.pipeline.RegisterSession(c.Request.Context(), sessionID, sessionContext); err != nil {
		s.abort(c, NewRuntimeError("session registration", err))
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{SessionID: sessionID})
}

// handleRunPipeline runs the pipeline on the raw record in the body. Without a
// session_id query parameter a fresh session is registered first.
func (s *Server) handleRunPipeline(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.abort(c, NewValidationError("Failed to read request body", err.Error()))
		return
	}

	raw, err := product.DecodeRaw(body, ".json")
	if err != nil {
		var validationErr *product.ValidationError
		if errors.As(err, &validationErr) {
			s.abort(c, NewValidationError("Product record failed validation", validationErr.Problems))
			return
		}
		s.abort(c, NewValidationError("Invalid product record", err.Error()))
		return
	}

	ctx := c.Request.Context()
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = pipeline.NewSessionID()
		if err := s.pipeline.RegisterSession(ctx, sessionID, s.sessionContext); err != nil {
			s.abort(c, NewRuntimeError("session registration", err))
			return
		}
	}

	logger := tracing.LoggerFromContext(tracing.WithSessionID(ctx, sessionID), s.logger)
	logger.Info().Str("product", raw.ProductName).Msg("Running pipeline")

	result, err := s.pipeline.Run(ctx, sessionID, raw)
	if err != nil {
		apiErr := classify("pipeline run", err)
		apiErr.Details = gin.H{"cause": err.Error(), "result": result}
		s.abort(c, apiErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes))
}
