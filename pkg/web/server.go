package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/ritzau/patchc/pkg/compile"
	"github.com/ritzau/patchc/pkg/logging"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/patchfile"
	"github.com/ritzau/patchc/pkg/pubsub"
	"github.com/ritzau/patchc/pkg/settings"
	"github.com/ritzau/patchc/pkg/target"
)

// maxPatchBytes bounds the size of a posted patch.
const maxPatchBytes = 4 << 20

// CompileResponse is the JSON answer of POST /api/compile
type CompileResponse struct {
	ID       string         `json:"id"`
	OK       bool           `json:"ok"`
	Code     string         `json:"code,omitempty"`
	Error    string         `json:"error,omitempty"`
	FailedIn string         `json:"failedIn,omitempty"`
	Stats    *compile.Stats `json:"stats,omitempty"`
}

// NodeInfo describes a registered node type for GET /api/nodes
type NodeInfo struct {
	Type         string          `json:"type"`
	Sink         bool            `json:"sink"`
	Inlets       []model.Portlet `json:"inlets"`
	Outlets      []model.Portlet `json:"outlets"`
	Capabilities []string        `json:"capabilities"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	registry  *node.Registry
	publisher *pubsub.SSEPublisher
}

// NewServer creates a compile service for the node types in registry.
func NewServer(registry *node.Registry) *Server {
	publisher := pubsub.NewSSEPublisher()

	// New subscribers get the latest compilation only
	publisher.ConfigureTopic(pubsub.TopicCompile, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		registry:  registry,
		publisher: publisher,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/compile", s.handleCompile).Methods("POST")
	s.router.HandleFunc("/api/targets", s.handleTargets).Methods("GET")
	s.router.HandleFunc("/api/nodes", s.handleNodes).Methods("GET")
	s.router.HandleFunc("/api/nodes/{type}", s.handleNode).Methods("GET")
	s.router.HandleFunc("/api/subscribe/compile", s.handleSubscribeCompile).Methods("GET")
}

// Handler returns the HTTP handler of the service.
func (s *Server) Handler() http.Handler {
	return s.router
}

// PublishCompile announces a compilation of source to subscribers of
// /api/subscribe/compile.
func (s *Server) PublishCompile(source string, res compile.Result) error {
	status := pubsub.CompileStatus{
		CompileID: res.ID,
		Source:    source,
		Target:    res.Stats.Target,
		Bytes:     len(res.Code),
	}
	eventType := pubsub.EventCompiled
	if !res.OK() {
		eventType = pubsub.EventFailed
		status.FailedIn = res.FailedIn.String()
		status.Error = res.Err.Error()
	}
	return s.publisher.Publish(pubsub.TopicCompile, eventType, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, target.Available())
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	types := s.registry.Types()
	infos := make([]NodeInfo, 0, len(types))
	for _, t := range types {
		info, err := s.nodeInfo(t)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	info, err := s.nodeInfo(mux.Vars(r)["type"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) nodeInfo(nodeType string) (NodeInfo, error) {
	impl, err := s.registry.Lookup(nodeType)
	if err != nil {
		return NodeInfo{}, err
	}
	info := NodeInfo{
		Type:         nodeType,
		Sink:         impl.Sink,
		Inlets:       []model.Portlet{},
		Outlets:      []model.Portlet{},
		Capabilities: []string{},
	}
	if impl.Portlets != nil {
		inlets, outlets := impl.Portlets(nil)
		info.Inlets = append(info.Inlets, inlets...)
		info.Outlets = append(info.Outlets, outlets...)
	}
	for _, c := range []struct {
		name string
		ok   bool
	}{
		{"declarations", impl.GenerateDeclarations != nil},
		{"loop", impl.GenerateLoop != nil},
		{"inline", impl.GenerateLoopInline != nil},
		{"messageReceivers", impl.GenerateMessageReceivers != nil},
	} {
		if c.ok {
			info.Capabilities = append(info.Capabilities, c.name)
		}
	}
	return info, nil
}

// handleCompile compiles the posted patch. The body format is taken from
// ?format= (json, toml or hcl, default json); ?target=, ?bitDepth= and
// ?debug= override the settings stored in the patch.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBytes+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(body) > maxPatchBytes {
		http.Error(w, "patch too large", http.StatusRequestEntityTooLarge)
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = patchfile.FormatJSON
	}
	patch, err := patchfile.Parse(body, format)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CompileResponse{Error: err.Error()})
		return
	}

	overrides, err := queryOverrides(q.Get("target"), q.Get("bitDepth"), q.Get("debug"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, CompileResponse{Error: err.Error()})
		return
	}
	compileSettings := overrides.Apply(patch.Settings)

	g, err := patch.Graph(s.registry)
	if err != nil {
		writeJSON(w, statusFor(err), CompileResponse{Error: err.Error()})
		return
	}

	res := compile.CompileContext(ctx, g, s.registry, compileSettings)
	resp := CompileResponse{ID: res.ID, OK: res.OK(), Code: res.Code, Stats: &res.Stats}
	if !res.OK() {
		resp.Error = res.Err.Error()
		resp.FailedIn = res.FailedIn.String()
		writeJSON(w, statusFor(res.Err), resp)
		return
	}
	logging.InfoContext(ctx, "compiled patch", "compileID", res.ID, "target", res.Stats.Target, "bytes", len(res.Code))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubscribeCompile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the stream
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	var (
		sub pubsub.Subscription
		err error
	)
	if last, convErr := strconv.Atoi(r.Header.Get("Last-Event-ID")); convErr == nil {
		sub, err = s.publisher.Resume(r.Context(), pubsub.TopicCompile, last)
	} else {
		sub, err = s.publisher.Subscribe(r.Context(), pubsub.TopicCompile)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.WarnContext(r.Context(), "failed to write SSE event", "error", err)
			return
		}
		flush(w)
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// statusFor maps compiler errors to HTTP status codes.
func statusFor(err error) int {
	var (
		cfgErr   *settings.ConfigurationError
		graphErr *model.ValidationError
		capErr   *node.UnimplementedCapabilityError
	)
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &graphErr), errors.As(err, &capErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

// Start serves on the given port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting compile service", "addr", "http://localhost"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
