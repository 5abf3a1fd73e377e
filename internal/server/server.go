// Package server exposes the resolver chain over HTTP for previewing how
// transcripts will be phonemized.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaz8081/ttsdict/internal/normalize"
	"github.com/chaz8081/ttsdict/internal/phoneme"
	"github.com/chaz8081/ttsdict/internal/resolve"
)

// Resolver is the part of *resolve.Chain the server needs.
type Resolver interface {
	ResolveAll(words []string) [][]phoneme.Phoneme
}

// PhonemizeRequest is the body of POST /api/phonemize.
type PhonemizeRequest struct {
	Text string `json:"text" binding:"required"`
}

// WordResult is the resolution of one word.
type WordResult struct {
	Word     string `json:"word"`
	Phonemes string `json:"phonemes"`
	Resolved bool   `json:"resolved"`
}

// PhonemizeResponse is the reply to POST /api/phonemize.
type PhonemizeResponse struct {
	Transcript string       `json:"transcript"`
	Phonemes   string       `json:"phonemes"`
	Words      []WordResult `json:"words"`
}

// Server serves phonemization previews. Requests are resolved one at a
// time.
type Server struct {
	resolver Resolver
	mu       sync.Mutex
	engine   *gin.Engine
}

// New builds a server around r.
func New(r Resolver) *Server {
	s := &Server{resolver: r}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", s.handleHealth)
	engine.POST("/api/phonemize", s.handlePhonemize)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePhonemize(c *gin.Context) {
	var req PhonemizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}

	text := normalize.Normalize(req.Text)
	words := normalize.Words(text)
	if len(words) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text has no words after normalization"})
		return
	}

	s.mu.Lock()
	perWord := s.resolver.ResolveAll(words)
	s.mu.Unlock()

	resp := PhonemizeResponse{
		Transcript: text,
		Phonemes:   phoneme.Render(resolve.Join(perWord)),
		Words:      make([]WordResult, len(words)),
	}
	for i, w := range words {
		resp.Words[i] = WordResult{
			Word:     w,
			Phonemes: phoneme.Render(perWord[i]),
			Resolved: perWord[i] != nil,
		}
	}
	c.JSON(http.StatusOK, resp)
}
