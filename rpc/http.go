package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"learnchain/core"
	"learnchain/core/events"
	"learnchain/core/types"
	"learnchain/native/learning"
	"learnchain/native/token"
	"learnchain/observability"
)

const (
	jsonRPCVersion = "2.0"

	defaultMaxRequestBytes = 1 << 20

	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeConflict       = -32010
	codeCapacity       = -32011
	codeRateLimited    = -32020
)

// Backend is the node surface served over JSON-RPC.
type Backend interface {
	ChainID() uint64
	Submit(ctx context.Context, tx *types.Transaction) (*core.Receipt, error)
	ProgramConfig() (*learning.ProgramConfig, error)
	Course(id string) (*learning.Course, error)
	Learner(wallet [20]byte) (*learning.Learner, error)
	Completion(learner [20]byte, courseID string) (*learning.CompletionRecord, error)
	MintConfig() (*token.MintConfig, error)
	Balance(owner [20]byte) (uint64, error)
	Supply() (uint64, error)
	Nonce(addr [20]byte) (uint64, error)
	Subscribe() (<-chan events.Event, func())
}

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	Logger *slog.Logger
	// MaxBodyBytes bounds JSON-RPC request bodies; zero uses 1 MiB.
	MaxBodyBytes int64
	// RequestsPerMinute enables per-client rate limiting when positive.
	RequestsPerMinute int
	Burst             int
	// TrustedProxies lists proxy IPs or CIDR blocks whose X-Real-IP and
	// X-Forwarded-For headers are honored. Other peers are keyed on their
	// socket address.
	TrustedProxies []string
}

// Server exposes a Backend over JSON-RPC 2.0 and a websocket event stream.
type Server struct {
	node     Backend
	logger   *slog.Logger
	maxBytes int64
	limiter  *rateLimiter
	metrics  serverMetrics
}

type serverMetrics interface {
	Observe(method string, code int, duration time.Duration)
	RecordThrottle(reason string)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewServer constructs a server for node.
func NewServer(node Backend, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxRequestBytes
	}
	logger = logger.With(slog.String("component", "rpc"))
	proxies, err := parseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Warn("ignoring trusted proxies", slog.Any("error", err))
		proxies = nil
	}
	metrics := observability.ModuleMetrics()
	return &Server{
		node:     node,
		logger:   logger,
		maxBytes: maxBytes,
		limiter:  newRateLimiter(cfg.RequestsPerMinute, cfg.Burst, proxies, metrics),
		metrics:  metrics,
	}
}

// Handler returns the routed and instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.With(s.limiter.middleware).Post("/", s.handle)
	r.Get("/ws/events", s.handleEventsWS)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return otelhttp.NewHandler(r, "learnd.rpc")
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"chainId": s.node.ChainID(),
	})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, s.maxBytes)
	defer func() {
		_ = reader.Close()
	}()

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", s.maxBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	start := time.Now()
	rec := &codeRecorder{ResponseWriter: w}
	s.dispatch(rec, r, req)
	s.metrics.Observe(req.Method, rec.code, time.Since(start))
}

func (s *Server) dispatch(w *codeRecorder, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "learn_sendTransaction":
		s.handleSendTransaction(w, r, req)
	case "learn_getProgramConfig":
		s.handleGetProgramConfig(w, r, req)
	case "learn_getCourse":
		s.handleGetCourse(w, r, req)
	case "learn_getLearner":
		s.handleGetLearner(w, r, req)
	case "learn_getCompletion":
		s.handleGetCompletion(w, r, req)
	case "learn_getMintConfig":
		s.handleGetMintConfig(w, r, req)
	case "learn_getBalance":
		s.handleGetBalance(w, r, req)
	case "learn_getNonce":
		s.handleGetNonce(w, r, req)
	default:
		w.fail(http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}

// codeRecorder remembers the JSON-RPC error code written for metrics.
type codeRecorder struct {
	http.ResponseWriter
	code int
}

func (c *codeRecorder) fail(status int, id interface{}, code int, message string, data interface{}) {
	c.code = code
	writeError(c, status, id, code, message, data)
}
