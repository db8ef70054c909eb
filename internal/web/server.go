// Package web serves the JSON API, the chart page and the live websocket feed.
package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"MarketLens/internal/analyzer"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
	"MarketLens/internal/window"
)

// Service is the analysis surface the handlers need.
type Service interface {
	Analyze(ctx context.Context, symbol string) (*analyzer.Analysis, error)
	AnalyzeDays(ctx context.Context, symbol string, days int) (*analyzer.Analysis, error)
	DaysFor(lb window.Lookback) int
	Ask(ctx context.Context, symbol, question string) (notifier.Mode, string, error)
}

// Server wires the HTTP routes.
type Server struct {
	addr   string
	svc    Service
	rec    recorder.Recorder
	hub    *Hub
	router *gin.Engine
	log    zerolog.Logger
}

func NewServer(addr string, svc Service, rec recorder.Recorder, hub *Hub, log zerolog.Logger) *Server {
	if hub == nil {
		hub = NewHub(log)
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	s := &Server{addr: addr, svc: svc, rec: rec, hub: hub, router: router, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	s.router.GET("/ws", gin.WrapF(s.hub.ServeWS))
	s.router.GET("/chart/:symbol", s.handleChartPage)

	api := s.router.Group("/api")
	api.GET("/snapshot/:symbol", s.handleSnapshot)
	api.GET("/narrative/:symbol", s.handleNarrative)
	api.GET("/chart/:symbol", s.handleChart)
	api.GET("/history/:symbol", s.handleHistory)
	api.GET("/indicators", s.handleIndicators)
	api.POST("/ask", s.handleAsk)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().Str("method", c.Request.Method).Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).Dur("took", time.Since(start)).Msg("http request")
	}
}

// writeError maps pipeline errors to status codes.
func (s *Server) writeError(c *gin.Context, symbol string, err error) {
	switch {
	case model.IsNotEnoughData(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": model.NotEnoughDataMsg, "symbol": symbol})
	case errors.Is(err, model.ErrUnknownPayload):
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider returned an unrecognized payload", "symbol": symbol})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out", "symbol": symbol})
	default:
		s.log.Error().Err(err).Str("symbol", symbol).Msg("request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "data provider unavailable", "symbol": symbol})
	}
}

func symbolParam(c *gin.Context) string {
	return model.CanonicalSymbol(c.Param("symbol"))
}

func (s *Server) handleSnapshot(c *gin.Context) {
	sym := symbolParam(c)
	res, err := s.svc.Analyze(c.Request.Context(), sym)
	if err != nil {
		s.writeError(c, sym, err)
		return
	}
	c.JSON(http.StatusOK, res.Snapshot)
}

func (s *Server) handleNarrative(c *gin.Context) {
	sym := symbolParam(c)
	res, err := s.svc.Analyze(c.Request.Context(), sym)
	if err != nil {
		if model.IsNotEnoughData(err) {
			c.String(http.StatusUnprocessableEntity, model.NotEnoughDataMsg)
			return
		}
		s.writeError(c, sym, err)
		return
	}
	c.String(http.StatusOK, res.Snapshot.Narrative)
}

// analyzeWindow runs the pipeline with enough history for the lookback
// query parameter and returns the selected, resampled frame.
func (s *Server) analyzeWindow(c *gin.Context) (*model.Frame, window.Lookback, bool) {
	sym := symbolParam(c)
	lb, err := window.ParseLookback(c.Query("lookback"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, lb, false
	}
	res, err := s.svc.AnalyzeDays(c.Request.Context(), sym, s.svc.DaysFor(lb))
	if err != nil {
		s.writeError(c, sym, err)
		return nil, lb, false
	}
	frame, err := window.Select(res.Frame, lb.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, lb, false
	}
	return frame, lb, true
}

func (s *Server) handleChart(c *gin.Context) {
	frame, lb, ok := s.analyzeWindow(c)
	if !ok {
		return
	}
	var names []string
	if q := c.Query("indicators"); q != "" {
		for _, n := range strings.Split(q, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	payload, err := analyzer.BuildChart(frame, names)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload.Symbol = symbolParam(c)
	payload.Lookback = lb.Key
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleChartPage(c *gin.Context) {
	frame, lb, ok := s.analyzeWindow(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := renderChart(&buf, frame, lb.Key); err != nil {
		s.log.Error().Err(err).Str("symbol", frame.Symbol).Msg("render chart")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleHistory(c *gin.Context) {
	sym := symbolParam(c)
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}
	entries, err := s.rec.Recent(c.Request.Context(), sym, limit)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", sym).Msg("load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if entries == nil {
		entries = []recorder.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"symbol": sym, "entries": entries})
}

func (s *Server) handleIndicators(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"indicators": model.IndicatorNames()})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req struct {
		Symbol   string `json:"symbol" binding:"required"`
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sym := model.CanonicalSymbol(req.Symbol)
	mode, answer, err := s.svc.Ask(c.Request.Context(), sym, req.Question)
	if err != nil {
		s.writeError(c, sym, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": sym, "mode": mode, "answer": answer})
}
