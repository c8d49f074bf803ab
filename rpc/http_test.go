package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"learnchain/core"
	"learnchain/core/events"
	"learnchain/core/types"
	"learnchain/crypto"
	"learnchain/native/learning"
	"learnchain/native/token"
	"learnchain/storage"
)

const testChainID uint64 = 99

type testEnv struct {
	t         *testing.T
	node      *core.Node
	server    *httptest.Server
	authority *crypto.PrivateKey
	nonces    map[[20]byte]uint64
}

func newTestEnv(t *testing.T, cfg ServerConfig) *testEnv {
	t.Helper()
	node, err := core.NewNode(storage.NewMemDB(), core.Config{
		ChainID:   testChainID,
		TokenMint: token.DefaultMintAddress("LEARN"),
		Now:       func() int64 { return 1_700_000_000 },
	})
	require.NoError(t, err)
	authority, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(node, cfg).Handler())
	t.Cleanup(srv.Close)
	return &testEnv{t: t, node: node, server: srv, authority: authority, nonces: make(map[[20]byte]uint64)}
}

func (e *testEnv) call(method string, params ...interface{}) (int, RPCResponse) {
	e.t.Helper()
	raw := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		b, err := json.Marshal(p)
		require.NoError(e.t, err)
		raw = append(raw, b)
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: raw, ID: 1})
	require.NoError(e.t, err)
	return e.post(body)
}

func (e *testEnv) post(body []byte) (int, RPCResponse) {
	e.t.Helper()
	resp, err := http.Post(e.server.URL+"/", "application/json", bytes.NewReader(body))
	require.NoError(e.t, err)
	defer resp.Body.Close()
	var out RPCResponse
	require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *testEnv) send(key *crypto.PrivateKey, txType types.TxType, payload interface{}) (int, RPCResponse) {
	e.t.Helper()
	addr := key.PubKey().Address().Raw()
	tx, err := types.NewTransaction(testChainID, txType, e.nonces[addr], payload)
	require.NoError(e.t, err)
	require.NoError(e.t, tx.Sign(key.PrivateKey))
	status, resp := e.call("learn_sendTransaction", tx)
	if resp.Error == nil {
		e.nonces[addr]++
	}
	return status, resp
}

func (e *testEnv) mustSend(key *crypto.PrivateKey, txType types.TxType, payload interface{}) RPCResponse {
	e.t.Helper()
	status, resp := e.send(key, txType, payload)
	require.Nil(e.t, resp.Error, "unexpected error: %+v", resp.Error)
	require.Equal(e.t, http.StatusOK, status)
	return resp
}

func decodeResult(t *testing.T, resp RPCResponse, out interface{}) {
	t.Helper()
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, out))
}

func (e *testEnv) bootstrap(supplyCap uint64) {
	e.t.Helper()
	e.mustSend(e.authority, types.TxTypeInitializeProgram, types.InitializeProgramPayload{})
	e.mustSend(e.authority, types.TxTypeInitializeMint, types.InitializeMintPayload{Decimals: 6, SupplyCap: supplyCap})
	e.mustSend(e.authority, types.TxTypeRegisterCourse, types.RegisterCoursePayload{
		CourseID:      "rust101",
		Title:         "Rust 101",
		RewardAmount:  500,
		RequiredScore: 70,
	})
}

func TestCompletionOverJSONRPC(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	env.bootstrap(1_000_000)

	learnerKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	learnerAddr := learnerKey.PubKey().Address().String()
	env.mustSend(learnerKey, types.TxTypeRegisterLearner, types.RegisterLearnerPayload{Name: "ada"})

	resp := env.mustSend(learnerKey, types.TxTypeCompleteCourse, types.CompleteCoursePayload{
		CourseID:     "rust101",
		Score:        85,
		EvidenceHash: "ipfs://proof",
	})
	var receipt struct {
		TxHash string           `json:"txHash"`
		From   string           `json:"from"`
		Result CompletionResult `json:"result"`
		Events []*types.Event   `json:"events"`
	}
	decodeResult(t, resp, &receipt)
	require.True(t, strings.HasPrefix(receipt.TxHash, "0x"))
	require.Equal(t, learnerAddr, receipt.From)
	require.Equal(t, "completed", receipt.Result.Status)
	require.Equal(t, learnerAddr, receipt.Result.Learner)
	require.Equal(t, uint64(850), receipt.Result.XPEarned)
	require.Equal(t, uint64(500), receipt.Result.TokensEarned)
	require.Len(t, receipt.Events, 2)

	_, resp = env.call("learn_getLearner", learnerAddr)
	require.Nil(t, resp.Error)
	var learner LearnerResult
	decodeResult(t, resp, &learner)
	require.Equal(t, uint64(850), learner.TotalXP)
	require.Equal(t, uint64(1), learner.CoursesCompleted)

	_, resp = env.call("learn_getBalance", learnerAddr)
	require.Nil(t, resp.Error)
	var balance BalanceResult
	decodeResult(t, resp, &balance)
	require.Equal(t, uint64(500), balance.Balance)
	require.Equal(t, uint64(500), balance.Supply)

	_, resp = env.call("learn_getCourse", "rust101")
	require.Nil(t, resp.Error)
	var course CourseResult
	decodeResult(t, resp, &course)
	require.Equal(t, uint64(1), course.CompletedCount)
	require.Equal(t, crypto.FromRaw(learning.CourseAddress("rust101")).String(), course.Address)

	_, resp = env.call("learn_getCompletion", learnerAddr, "rust101")
	require.Nil(t, resp.Error)
	var record CompletionResult
	decodeResult(t, resp, &record)
	require.Equal(t, "completed", record.Status)

	_, resp = env.call("learn_getMintConfig")
	require.Nil(t, resp.Error)
	var mintCfg MintConfigResult
	decodeResult(t, resp, &mintCfg)
	require.Equal(t, uint64(500), mintCfg.TotalMinted)
	require.Equal(t, uint64(999_500), mintCfg.Remaining)

	_, resp = env.call("learn_getProgramConfig")
	require.Nil(t, resp.Error)
	var program ProgramConfigResult
	decodeResult(t, resp, &program)
	require.Equal(t, uint64(1), program.TotalCourses)
	require.Equal(t, uint64(1), program.TotalLearners)
	require.Equal(t, env.authority.PubKey().Address().String(), program.Authority)

	_, resp = env.call("learn_getNonce", learnerAddr)
	require.Nil(t, resp.Error)
	var nonce NonceResult
	decodeResult(t, resp, &nonce)
	require.Equal(t, uint64(2), nonce.Nonce)
}

func TestDomainErrorCodes(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	env.bootstrap(600)

	learnerKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	env.mustSend(learnerKey, types.TxTypeRegisterLearner, types.RegisterLearnerPayload{Name: "ada"})

	status, resp := env.send(learnerKey, types.TxTypeCompleteCourse, types.CompleteCoursePayload{CourseID: "rust101", Score: 50})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	status, resp = env.send(learnerKey, types.TxTypeRegisterCourse, types.RegisterCoursePayload{CourseID: "go101", Title: "Go"})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	env.mustSend(learnerKey, types.TxTypeCompleteCourse, types.CompleteCoursePayload{CourseID: "rust101", Score: 90})
	status, resp = env.send(learnerKey, types.TxTypeCompleteCourse, types.CompleteCoursePayload{CourseID: "rust101", Score: 90})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, codeConflict, resp.Error.Code)

	env.mustSend(env.authority, types.TxTypeRegisterCourse, types.RegisterCoursePayload{CourseID: "go101", Title: "Go", RewardAmount: 200})
	status, resp = env.send(learnerKey, types.TxTypeCompleteCourse, types.CompleteCoursePayload{CourseID: "go101", Score: 90})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, codeCapacity, resp.Error.Code)

	status, resp = env.call("learn_getCourse", "missing")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeNotFound, resp.Error.Code)
}

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t, ServerConfig{MaxBodyBytes: 256})

	status, resp := env.post([]byte("{not json"))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeParseError, resp.Error.Code)

	status, resp = env.post([]byte(`{"jsonrpc":"1.0","method":"learn_getNonce","id":1}`))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	status, resp = env.post([]byte(`{"jsonrpc":"2.0","id":1}`))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	status, resp = env.post(bytes.Repeat([]byte(" "), 512))
	require.Equal(t, http.StatusRequestEntityTooLarge, status)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	status, resp = env.call("learn_unknown")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	status, resp = env.call("learn_getLearner", "not-an-address")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	status, resp = env.call("learn_getCompletion", "only-one")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestUnsignedTransactionRejected(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	tx, err := types.NewTransaction(testChainID, types.TxTypeRegisterLearner, 0, types.RegisterLearnerPayload{Name: "ada"})
	require.NoError(t, err)
	status, resp := env.call("learn_sendTransaction", tx)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, ServerConfig{RequestsPerMinute: 1, Burst: 2})
	for i := 0; i < 2; i++ {
		_, resp := env.call("learn_getProgramConfig")
		require.NotNil(t, resp.Error)
		require.Equal(t, codeNotFound, resp.Error.Code)
	}
	status, resp := env.call("learn_getProgramConfig")
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, codeRateLimited, resp.Error.Code)
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	limiter := newRateLimiter(60, 1, nil, nil)
	now := time.Unix(1_700_000_000, 0)
	limiter.clockNow = func() time.Time { return now }

	require.True(t, limiter.allow("a"))
	require.False(t, limiter.allow("a"))

	now = now.Add(2 * visitorIdleTTL)
	require.True(t, limiter.allow("b"))
	require.Len(t, limiter.visitors, 1)
}

func TestClientIDIgnoresForwardingFromUntrustedPeers(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	req.Header.Set("X-Forwarded-For", "192.0.2.1")
	req.Header.Set("X-Real-IP", "198.51.100.4")

	var none trustedProxies
	require.Equal(t, "10.0.0.7", none.clientID(req))

	proxies, err := parseTrustedProxies([]string{"10.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, "10.0.0.7", proxies.clientID(req))
}

func TestClientIDHonorsTrustedProxy(t *testing.T) {
	proxies, err := parseTrustedProxies([]string{"10.0.0.0/24", " 2001:db8::1 "})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	req.Header.Set("X-Forwarded-For", " 192.0.2.1:443 , 10.0.0.1")
	require.Equal(t, "192.0.2.1", proxies.clientID(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	require.Equal(t, "198.51.100.4", proxies.clientID(req))

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:8080"
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	require.Equal(t, "2001:db8::1", proxies.clientID(req))
}

func TestClientIDCapsForwardedChain(t *testing.T) {
	proxies, err := parseTrustedProxies([]string{"10.0.0.1"})
	require.NoError(t, err)
	parts := make([]string, maxForwardedForAddrs+1)
	for i := range parts {
		parts[i] = " "
	}
	parts[len(parts)-1] = "198.51.100.10"

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:8000"
	req.Header.Set("X-Forwarded-For", strings.Join(parts, ","))
	require.Equal(t, "10.0.0.1", proxies.clientID(req))
}

func TestParseTrustedProxiesRejectsGarbage(t *testing.T) {
	_, err := parseTrustedProxies([]string{"proxy.internal"})
	require.Error(t, err)
	_, err = parseTrustedProxies([]string{"10.0.0.0/40"})
	require.Error(t, err)
}

func TestRateLimitSpoofedForwardedFor(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	handler := NewServer(env.node, ServerConfig{RequestsPerMinute: 1, Burst: 2}).Handler()
	status := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"learn_getProgramConfig"}`))
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	require.NotEqual(t, http.StatusTooManyRequests, status("198.51.100.1"))
	require.NotEqual(t, http.StatusTooManyRequests, status("198.51.100.2"))
	require.Equal(t, http.StatusTooManyRequests, status("198.51.100.3"))
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(requestIDHeader))

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	env.call("learn_getMintConfig")

	resp, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "learnchain_rpc_requests_total")
}

type streamBackend struct {
	Backend
	ch chan events.Event
}

func (b *streamBackend) Subscribe() (<-chan events.Event, func()) {
	return b.ch, func() {}
}

func dialEvents(t *testing.T, ctx context.Context, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) types.Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt types.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func wrapped(kind, key, value string) events.Event {
	return token.WrapEvent(&types.Event{Type: kind, Attributes: map[string]string{key: value}})
}

func TestEventStreamFiltersByType(t *testing.T) {
	backend := &streamBackend{ch: make(chan events.Event, 4)}
	srv := httptest.NewServer(NewServer(backend, ServerConfig{}).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialEvents(t, ctx, srv, "?types="+learning.EventTypeCourseCompleted)

	backend.ch <- wrapped(token.EventTypeMinted, "amount", "5")
	backend.ch <- wrapped(learning.EventTypeCourseCompleted, "courseId", "rust101")
	backend.ch <- wrapped(token.EventTypeMinted, "amount", "7")
	backend.ch <- wrapped(learning.EventTypeCourseCompleted, "courseId", "go101")

	// token.minted never reaches the client; completions arrive in order.
	first := readEvent(t, ctx, conn)
	require.Equal(t, learning.EventTypeCourseCompleted, first.Type)
	require.Equal(t, "rust101", first.Attributes["courseId"])
	second := readEvent(t, ctx, conn)
	require.Equal(t, learning.EventTypeCourseCompleted, second.Type)
	require.Equal(t, "go101", second.Attributes["courseId"])
}

func TestEventStreamWithoutFilter(t *testing.T) {
	backend := &streamBackend{ch: make(chan events.Event, 2)}
	srv := httptest.NewServer(NewServer(backend, ServerConfig{}).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialEvents(t, ctx, srv, "")

	backend.ch <- wrapped(token.EventTypeMinted, "amount", "5")
	backend.ch <- wrapped(learning.EventTypeCourseCompleted, "courseId", "rust101")

	require.Equal(t, token.EventTypeMinted, readEvent(t, ctx, conn).Type)
	require.Equal(t, learning.EventTypeCourseCompleted, readEvent(t, ctx, conn).Type)
}

func TestClassify(t *testing.T) {
	status, code := classify(learning.ErrCourseAlreadyCompleted)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, codeConflict, code)

	status, code = classify(core.ErrInvalidNonce)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, codeConflict, code)

	status, code = classify(context.Canceled)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, codeServerError, code)
}
