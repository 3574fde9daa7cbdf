// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"github.com/mohdmuqsith/muq-bot-rag/internal/annotate"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/usecases"
)

const maxUploadMemory = 32 << 20

// Server is the JSON API over a single session. One mutex serialises every
// request that touches the session. Health reads a published snapshot so it
// answers while a build or model call holds the mutex.
type Server struct {
	pipeline  *usecases.Pipeline
	ask       *usecases.AskUseCase
	addr      string
	log       logr.Logger
	startedAt time.Time

	mu      sync.Mutex
	session *usecases.Session
	info    atomic.Pointer[sessionInfo]
}

type sessionInfo struct {
	ID          string
	Fingerprint string
}

// NewServer creates a new HTTP server.
func NewServer(pipeline *usecases.Pipeline, ask *usecases.AskUseCase, addr string, log logr.Logger) *Server {
	s := &Server{
		pipeline:  pipeline,
		ask:       ask,
		addr:      addr,
		log:       log.WithName("http"),
		startedAt: time.Now(),
		session:   usecases.NewSession(),
	}
	s.publish()
	return s
}

// publish snapshots the session for health checks. Callers hold mu, except
// NewServer.
func (s *Server) publish() {
	s.info.Store(&sessionInfo{ID: s.session.ID, Fingerprint: s.session.Fingerprint()})
}

// LoadKnowledgeBase replaces the session's knowledge base, e.g. after a
// directory rebuild.
func (s *Server) LoadKnowledgeBase(res *usecases.BuildResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Load(res)
	s.publish()
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxUploadMemory
	router.Use(requestLogger(s.log), gin.Recovery(), cors())

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/knowledge-base", s.handleUpload)
	api.POST("/query", s.handleQuery)
	api.GET("/history", s.handleHistory)
	api.DELETE("/session", s.handleResetSession)

	return router
}

// Start runs the HTTP server until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second, // builds and model calls are slow
	}

	s.log.Info("server starting", "addr", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type buildResponse struct {
	Session     string            `json:"session"`
	Fingerprint string            `json:"fingerprint"`
	FromCache   bool              `json:"from_cache"`
	Chunks      int               `json:"chunks"`
	Failures    []failureResponse `json:"failures,omitempty"`
}

type failureResponse struct {
	Document string `json:"document"`
	Error    string `json:"error"`
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

type resultResponse struct {
	Index    int     `json:"index"`
	Text     string  `json:"text"`
	Distance float32 `json:"distance"`
	Score    float64 `json:"score"`
}

type queryResponse struct {
	Answer  string            `json:"answer"`
	Results []resultResponse  `json:"results"`
	Triples   []annotate.Triple `json:"triples"`
	Relations []string          `json:"relations"`
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleHealth(c *gin.Context) {
	info := s.info.Load()
	respondOK(c, gin.H{
		"status":         "ok",
		"session":        info.ID,
		"knowledge_base": info.Fingerprint,
		"uptime_sec":     int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, "expected multipart form")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		respondError(c, http.StatusBadRequest, CodeBadRequest, "no files uploaded")
		return
	}

	docs := make(entities.DocumentSet, 0, len(files))
	for _, fh := range files {
		doc, err := readUpload(fh)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		docs = append(docs, doc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.pipeline.BuildOrLoad(c.Request.Context(), docs)
	if err != nil {
		if errors.Is(err, entities.ErrNoExtractableText) {
			respondError(c, http.StatusUnprocessableEntity, CodeUnprocessable, err.Error())
			return
		}
		s.log.Error(err, "building knowledge base", "documents", len(docs))
		respondError(c, http.StatusBadGateway, CodeUpstream, err.Error())
		return
	}
	s.session.Load(res)
	s.publish()

	out := buildResponse{
		Session:     s.session.ID,
		Fingerprint: res.Fingerprint,
		FromCache:   res.FromCache,
		Chunks:      res.Chunks,
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, failureResponse{Document: f.Document, Error: f.Err.Error()})
	}
	respondOK(c, out)
}

func readUpload(fh *multipart.FileHeader) (entities.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return entities.Document{}, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return entities.Document{}, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	return entities.NewDocument(fh.Filename, content), nil
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, "invalid request payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	answer, err := s.ask.Ask(c.Request.Context(), s.session, req.Query)
	switch {
	case errors.Is(err, entities.ErrEmptyKnowledgeBase):
		respondError(c, http.StatusConflict, CodeNoKnowledgeBase, "upload documents first")
		return
	case errors.Is(err, usecases.ErrEmptyQuery):
		respondError(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error(err, "answering query", "session", s.session.ID)
		respondError(c, http.StatusBadGateway, CodeUpstream, err.Error())
		return
	}

	out := queryResponse{Answer: answer.Text, Triples: []annotate.Triple{}, Relations: []string{}}
	for _, r := range answer.Results {
		out.Results = append(out.Results, resultResponse{
			Index:    r.Chunk.Index,
			Text:     r.Chunk.Text,
			Distance: r.Distance,
			Score:    r.Score,
		})
		for _, t := range annotate.Triples(r.Chunk.Text) {
			out.Triples = append(out.Triples, t)
			out.Relations = append(out.Relations, annotate.Relation(t.Subject, t.Predicate, t.Object))
		}
	}
	respondOK(c, out)
}

func (s *Server) handleHistory(c *gin.Context) {
	s.mu.Lock()
	history := s.session.History()
	s.mu.Unlock()

	out := make([]messageResponse, len(history))
	for i, m := range history {
		out[i] = messageResponse{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
	}
	respondOK(c, out)
}

func (s *Server) handleResetSession(c *gin.Context) {
	s.mu.Lock()
	s.session = usecases.NewSession()
	id := s.session.ID
	s.publish()
	s.mu.Unlock()

	respondOK(c, gin.H{"session": id})
}

func requestLogger(log logr.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.V(1).Info("request", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "duration", time.Since(start))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
