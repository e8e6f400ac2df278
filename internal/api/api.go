// Package api exposes batch runs over HTTP.
package api

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/AnyUserName/imgbatch/internal/batch"
	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/profile"
)

// Options configures a Server.
type Options struct {
	Addr     string
	Fs       afero.Fs
	Codec    core.Codec
	Profiles *profile.Dir
	Workers  int
}

// Server is the REST surface for starting, polling and cancelling runs.
type Server struct {
	opts   Options
	router *gin.Engine
	server *http.Server

	mu   sync.Mutex
	runs map[uuid.UUID]*run
}

type run struct {
	id       uuid.UUID
	profile  string
	started  time.Time
	engine   *batch.Engine
	finished atomic.Bool
	canceled atomic.Bool
}

func (r *run) state() string {
	switch {
	case r.finished.Load() && r.canceled.Load():
		return "cancelled"
	case r.finished.Load():
		return "finished"
	default:
		return "running"
	}
}

// NewServer creates a server. Call Start to listen or use Handler directly.
func NewServer(opts Options) *Server {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		opts:   opts,
		router: router,
		runs:   make(map[uuid.UUID]*run),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/profiles", s.getProfiles)

		runs := v1.Group("/runs")
		runs.GET("", s.getRuns)
		runs.POST("", s.startRun)
		runs.GET("/:id", s.getRun)
		runs.GET("/:id/log", s.getRunLog)
		runs.POST("/:id/cancel", s.cancelRun)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.WithField("addr", s.opts.Addr).Info("api listening")
	return s.server.ListenAndServe()
}

// Stop cancels running batches and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for _, r := range s.runs {
		r.engine.Cancel()
	}
	s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("api request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

func (s *Server) getProfiles(c *gin.Context) {
	names, err := s.opts.Profiles.Names()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"dir": s.opts.Profiles.Path(), "profiles": names})
}

// StartRequest selects a profile and optionally overrides its inputs.
type StartRequest struct {
	Profile   string   `json:"profile" binding:"required"`
	Files     []string `json:"files,omitempty"`
	OutputDir string   `json:"output_dir,omitempty"`
}

func (s *Server) startRun(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := s.opts.Profiles.Load(req.Profile)
	if cfg.IsEmpty() {
		c.JSON(http.StatusNotFound, gin.H{"error": "cannot read profile " + req.Profile})
		return
	}
	if len(req.Files) > 0 {
		cfg.FileList = req.Files
	}
	if req.OutputDir != "" {
		cfg.OutputDir = req.OutputDir
	}
	cfg, err := cfg.Absolute()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := cfg.Validate(s.opts.Fs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r := &run{
		id:      uuid.New(),
		profile: req.Profile,
		started: time.Now(),
		engine: batch.NewEngine(cfg, batch.Options{
			Fs:      s.opts.Fs,
			Codec:   s.opts.Codec,
			Workers: s.opts.Workers,
		}),
	}

	s.mu.Lock()
	s.runs[r.id] = r
	s.mu.Unlock()

	r.engine.PreLoad()
	r.engine.Compute(context.Background())
	go func() {
		r.engine.Wait()
		r.engine.PostLoad()
		r.finished.Store(true)
		log.WithFields(log.Fields{
			"run":      r.id,
			"failures": r.engine.NumFailures(),
		}).Info("run finished")
	}()

	c.JSON(http.StatusAccepted, gin.H{"id": r.id, "files": len(cfg.FileList)})
}

func (s *Server) lookup(c *gin.Context) *run {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return nil
	}
	s.mu.Lock()
	r, ok := s.runs[id]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return nil
	}
	return r
}

// RunStatus is the JSON view of a run.
type RunStatus struct {
	ID         uuid.UUID `json:"id"`
	Profile    string    `json:"profile"`
	State      string    `json:"state"`
	Started    time.Time `json:"started"`
	Total      int       `json:"total"`
	Processed  int       `json:"processed"`
	Failures   int       `json:"failures"`
	Results    []string  `json:"results"`
	Collisions []string  `json:"collisions,omitempty"`
}

func (r *run) status() RunStatus {
	results := r.engine.ResultList()
	if results == nil {
		results = []string{}
	}
	return RunStatus{
		ID:         r.id,
		Profile:    r.profile,
		State:      r.state(),
		Started:    r.started,
		Total:      r.engine.NumItems(),
		Processed:  r.engine.NumProcessed(),
		Failures:   r.engine.NumFailures(),
		Results:    results,
		Collisions: r.engine.Collisions(),
	}
}

func (s *Server) getRuns(c *gin.Context) {
	s.mu.Lock()
	out := make([]RunStatus, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.status())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	c.JSON(http.StatusOK, out)
}

func (s *Server) getRun(c *gin.Context) {
	if r := s.lookup(c); r != nil {
		c.JSON(http.StatusOK, r.status())
	}
}

func (s *Server) getRunLog(c *gin.Context) {
	if r := s.lookup(c); r != nil {
		lines := r.engine.Log()
		if lines == nil {
			lines = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"id": r.id, "log": lines})
	}
}

func (s *Server) cancelRun(c *gin.Context) {
	r := s.lookup(c)
	if r == nil {
		return
	}
	if !r.finished.Load() {
		r.canceled.Store(true)
		r.engine.Cancel()
	}
	c.JSON(http.StatusAccepted, gin.H{"id": r.id, "state": r.state()})
}
