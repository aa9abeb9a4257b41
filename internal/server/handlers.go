package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/internal/study"
	"github.com/sky-flux/vocab/store"
)

const maxBodySize = 64 << 10 // 64KB

type wordRequest struct {
	Term    string `json:"term" binding:"required"`
	Meaning string `json:"meaning"`
}

type reviewRequest struct {
	Correct    *bool    `json:"correct" binding:"required"`
	Confidence *float64 `json:"confidence"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   msg,
	})
}

// failErr maps store errors onto HTTP statuses.
func (s *Server) failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, "word not found")
	case errors.Is(err, store.ErrDuplicate):
		fail(c, http.StatusConflict, "word already exists")
	case errors.Is(err, store.ErrInvalidWord), errors.Is(err, store.ErrInvalidLog):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, study.ErrIncompleteHistory):
		fail(c, http.StatusConflict, err.Error())
	default:
		s.log.Error("request failed", "path", c.FullPath(), "err", err)
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStudy(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	due, err := s.svc.Due(c.Request.Context(), limit)
	if err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, due)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

func (s *Server) handleListWords(c *gin.Context) {
	words, err := s.svc.Words(c.Request.Context())
	if err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, words)
}

func (s *Server) handleCreateWord(c *gin.Context) {
	var req wordRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := s.svc.AddWord(c.Request.Context(), req.Term, req.Meaning)
	if err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, w)
}

func (s *Server) handleGetWord(c *gin.Context) {
	w, err := s.svc.Word(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}

func (s *Server) handleRenameWord(c *gin.Context) {
	var req wordRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := s.svc.RenameWord(c.Request.Context(), c.Param("id"), req.Term, req.Meaning)
	if err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}

func (s *Server) handleDeleteWord(c *gin.Context) {
	id := c.Param("id")
	if err := s.svc.DeleteWord(c.Request.Context(), id); err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id})
}

// handleReview records an answer. Confidence defaults to 1 and must lie in [0, 1].
func (s *Server) handleReview(c *gin.Context) {
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}
	confidence := 1.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	if err := vocab.ValidateQuality(confidence); err != nil {
		fail(c, http.StatusBadRequest, "confidence must be between 0 and 1")
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.svc.Review(ctx, id, *req.Correct, confidence); err != nil {
		s.failErr(c, err)
		return
	}
	w, err := s.svc.Word(ctx, id)
	if err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}

// handleReschedule replays a word's review history with the current weights.
func (s *Server) handleReschedule(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.svc.Reschedule(ctx, id); err != nil {
		s.failErr(c, err)
		return
	}
	w, err := s.svc.Word(ctx, id)
	if err != nil {
		s.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, w)
}
