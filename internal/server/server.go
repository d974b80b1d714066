// Package server exposes the pipeline and the assistant over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/pipeline"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/rag"
)

// Runner runs the pipeline.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Assistant answers questions and manages the chat context.
type Assistant interface {
	Ask(ctx context.Context, question string) (rag.Reply, error)
	ClearContext(ctx context.Context) error
	HistoryText(ctx context.Context) (string, error)
	ChatData() ([]rag.ChatFile, error)
}

// Config configures a Server.
type Config struct {
	CSVPath        string
	ChartPath      string
	AllowedOrigins []string
	Port           int
}

// Server is the HTTP front end.
type Server struct {
	runner    Runner
	assistant Assistant
	logger    *slog.Logger
	engine    *gin.Engine
	cfg       Config
	// mu serializes work that writes the pipeline and chat files.
	mu sync.Mutex
}

// New builds a Server and registers its routes.
func New(cfg Config, runner Runner, assistant Assistant, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		runner:    runner,
		assistant: assistant,
		logger:    logger,
		cfg:       cfg,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger(), s.cors())
	s.engine = engine
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/status", s.handleStatus)
	s.engine.POST("/run_pipeline", s.handleRunPipeline)
	s.engine.POST("/chat", s.handleChat)
	s.engine.POST("/clear_context", s.handleClearContext)
	s.engine.GET("/get_pipeline_report", s.handlePipelineReport)
	s.engine.GET("/get_pipeline_chart", s.handlePipelineChart)
	s.engine.GET("/get_chat_history", s.handleChatHistory)
	s.engine.GET("/get_chat_data", s.handleChatData)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (slices.Contains(s.cfg.AllowedOrigins, origin) || slices.Contains(s.cfg.AllowedOrigins, "*")) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
