package web

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"go.uber.org/zap"

	"github.com/Raj-Vaghela/AI-Architect/database"
	apperrors "github.com/Raj-Vaghela/AI-Architect/errors"
)

type modelSearchRequest struct {
	Query         string   `json:"query" binding:"required"`
	PipelineTag   string   `json:"pipeline_tag"`
	LicenseFilter []string `json:"license_filter"`
}

type packageSearchRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) searchModels(c *gin.Context) {
	var req modelSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must not be empty"})
		return
	}

	filters := database.ModelFilters{
		PipelineTag:   req.PipelineTag,
		LicenseFilter: req.LicenseFilter,
	}
	resp, err := s.service.SearchModels(c.Request.Context(), req.Query, filters)
	if err != nil {
		s.fail(c, "model search failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) searchCompute(c *gin.Context) {
	var filters database.ComputeFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.service.SearchCompute(c.Request.Context(), filters)
	if err != nil {
		s.fail(c, "compute search failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) searchPackages(c *gin.Context) {
	var req packageSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.service.SearchPackages(c.Request.Context(), req.Query)
	if err != nil {
		s.fail(c, "package search failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// report serves the latest build report rendered as HTML.
func (s *Server) report(c *gin.Context) {
	raw, err := os.ReadFile(s.config.ReportPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.String(http.StatusNotFound, "no build report yet")
			return
		}
		s.fail(c, "could not read build report", err)
		return
	}
	html := markdown.ToHTML(raw, nil, nil)
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	switch {
	case apperrors.IsInvalidInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsRateLimited(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream service is rate limiting, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
