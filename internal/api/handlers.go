package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/FranksOps/sitefind/internal/pipeline"
	"github.com/gin-gonic/gin"
)

const (
	statusMessage  = "Site search API backed by ScraperAPI"
	noResultsError = "no results found"
)

type statusResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	HasAPIKey bool   `json:"hasApiKey"`
}

type searchRequest struct {
	Domain string `json:"domain"`
	Query  string `json:"query"`
}

// searchResponse is the result envelope. Error is null on success.
type searchResponse struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Error       *string `json:"error"`
}

func failure(msg string) searchResponse {
	return searchResponse{Error: &msg}
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Status:    "ok",
		Message:   statusMessage,
		HasAPIKey: s.searcher.HasCredentials(),
	})
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": pipeline.ErrMissingInput.Error()})
		return
	}
	domain := strings.TrimSpace(req.Domain)
	query := strings.TrimSpace(req.Query)

	out, err := s.searcher.Run(c.Request.Context(), domain, query)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if !out.Found {
		c.JSON(http.StatusOK, failure(noResultsError))
		return
	}
	c.JSON(http.StatusOK, searchResponse{
		URL:         out.Best.URL,
		Title:       out.Best.Title,
		Description: out.Best.Snippet,
	})
}

// writeError maps pipeline failures onto status codes and bodies.
func (s *Server) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var statusErr *pipeline.UpstreamStatusError
	var fetchErr *pipeline.FetchError
	switch {
	case errors.Is(err, pipeline.ErrMissingInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pipeline.ErrMissingCredentials):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.As(err, &statusErr):
		c.JSON(http.StatusInternalServerError, failure(statusErr.Error()))
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusInternalServerError, failure("error: "+fetchErr.Message))
	default:
		c.JSON(http.StatusInternalServerError, failure("error: "+err.Error()))
	}
}
