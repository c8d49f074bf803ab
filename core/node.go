package core

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"learnchain/core/events"
	"learnchain/core/state"
	"learnchain/core/types"
	"learnchain/crypto"
	"learnchain/native/learning"
	"learnchain/native/token"
	"learnchain/observability"
	"learnchain/observability/logging"
	telemetry "learnchain/observability/otel"
	"learnchain/storage"
)

const tracerName = "learnchain/core"

// Config wires the node to its environment.
type Config struct {
	ChainID   uint64
	TokenMint [20]byte
	Logger    *slog.Logger
	// Now overrides the transition clock; nil uses wall-clock unix seconds.
	Now func() int64
	// SubscriberBuffer bounds each event subscription channel.
	SubscriberBuffer int
}

// Node authenticates transactions, applies them one at a time against staged
// state and commits each successful transition atomically.
type Node struct {
	db      storage.Database
	chainID uint64
	mint    [20]byte
	logger  *slog.Logger
	nowFn   func() int64
	broker  *events.Broker
	metrics *observability.LearningMetrics
	tracer  trace.Tracer

	stateMu sync.Mutex
}

// Receipt describes a committed transaction.
type Receipt struct {
	TxHash string         `json:"txHash"`
	Type   string         `json:"type"`
	From   string         `json:"from"`
	Nonce  uint64         `json:"nonce"`
	Result any            `json:"result,omitempty"`
	Events []*types.Event `json:"events"`
}

// BurnResult is the receipt result of a BurnTokens transaction.
type BurnResult struct {
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
}

// NewNode constructs a node over db.
func NewNode(db storage.Database, cfg Config) (*Node, error) {
	if db == nil {
		return nil, state.ErrNilDatabase
	}
	if cfg.ChainID == 0 {
		return nil, fmt.Errorf("%w: chain id must be non-zero", ErrInvalidChainID)
	}
	if cfg.TokenMint == ([20]byte{}) {
		return nil, learning.ErrInvalidTokenMint
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{
		db:      db,
		chainID: cfg.ChainID,
		mint:    cfg.TokenMint,
		logger:  logger.With(slog.String("component", "core")),
		nowFn:   cfg.Now,
		broker:  events.NewBroker(cfg.SubscriberBuffer),
		metrics: observability.Learning(),
		tracer:  telemetry.Tracer(tracerName),
	}, nil
}

// ChainID returns the chain identifier transactions must carry.
func (n *Node) ChainID() uint64 { return n.chainID }

// TokenMint returns the reward mint address.
func (n *Node) TokenMint() [20]byte { return n.mint }

// Subscribe streams committed events. The cancel function must be called to
// release the subscription.
func (n *Node) Subscribe() (<-chan events.Event, func()) {
	_, ch, cancel := n.broker.Subscribe()
	return ch, cancel
}

type engines struct {
	learning *learning.Engine
	token    *token.Engine
}

func (n *Node) newEngines(manager *state.Manager, emitter events.Emitter) engines {
	tokenEngine := token.NewEngine(n.mint)
	tokenEngine.SetState(manager)
	tokenEngine.SetEmitter(emitter)
	tokenEngine.SetNowFunc(n.nowFn)

	learningEngine := learning.NewEngine()
	learningEngine.SetState(manager)
	learningEngine.SetMinter(tokenEngine)
	learningEngine.SetEmitter(emitter)
	learningEngine.SetNowFunc(n.nowFn)
	return engines{learning: learningEngine, token: tokenEngine}
}

// Submit applies a signed transaction. Either every write of the transition is
// committed and its events are published, or nothing is.
func (n *Node) Submit(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	if tx == nil {
		return nil, ErrNilTransaction
	}
	_, span := n.tracer.Start(ctx, "core.Submit", trace.WithAttributes(
		attribute.String("tx.type", tx.Type.String()),
		attribute.Int64("tx.nonce", int64(tx.Nonce)),
	))
	defer span.End()

	start := time.Now()
	receipt, err := n.submit(tx)
	n.metrics.ObserveTransition(tx.Type.String(), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		n.logger.Warn("transaction rejected",
			slog.String("type", tx.Type.String()),
			slog.Uint64("nonce", tx.Nonce),
			slog.Any("error", err))
		return nil, err
	}
	span.SetAttributes(attribute.String("tx.hash", receipt.TxHash))
	for _, evt := range receipt.Events {
		attrs := append([]any{slog.String("event", evt.Type), slog.String("txHash", receipt.TxHash)}, logging.EventAttrs(evt.Attributes)...)
		n.logger.Info("event", attrs...)
	}
	return receipt, nil
}

func (n *Node) submit(tx *types.Transaction) (*Receipt, error) {
	if tx.ChainID != n.chainID {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidChainID, n.chainID, tx.ChainID)
	}
	from, err := tx.From()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	manager, err := state.NewManager(n.db)
	if err != nil {
		return nil, err
	}
	expected, err := manager.AccountNonce(from)
	if err != nil {
		return nil, err
	}
	if tx.Nonce != expected {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidNonce, expected, tx.Nonce)
	}

	buffer := &events.Buffer{}
	result, err := n.apply(n.newEngines(manager, buffer), from, tx)
	if err != nil {
		manager.Discard()
		return nil, err
	}
	if err := manager.SetAccountNonce(from, expected+1); err != nil {
		manager.Discard()
		return nil, err
	}
	if err := manager.Commit(); err != nil {
		manager.Discard()
		return nil, err
	}

	emitted := buffer.Events()
	receipt := &Receipt{
		TxHash: "0x" + hex.EncodeToString(hash),
		Type:   tx.Type.String(),
		From:   crypto.FromRaw(from).String(),
		Nonce:  tx.Nonce,
		Result: result,
		Events: make([]*types.Event, 0, len(emitted)),
	}
	for _, evt := range emitted {
		receipt.Events = append(receipt.Events, events.Render(evt))
		n.broker.Emit(evt)
	}
	n.recordMetrics(tx.Type, result)
	return receipt, nil
}

func (n *Node) recordMetrics(txType types.TxType, result any) {
	switch r := result.(type) {
	case *learning.CompletionRecord:
		n.metrics.RecordCompletion(r.TokensEarned)
	case *BurnResult:
		n.metrics.RecordBurn(r.Amount)
	}
	switch txType {
	case types.TxTypeCompleteCourse, types.TxTypeInitializeMint, types.TxTypeUpdateMintConfig:
		cfg, err := n.MintConfig()
		if err != nil {
			if !errors.Is(err, token.ErrMintNotInitialized) {
				n.logger.Warn("read mint config for metrics", slog.Any("error", err))
			}
			return
		}
		n.metrics.SetSupply(cfg.TotalMinted, cfg.SupplyCap)
	}
}
