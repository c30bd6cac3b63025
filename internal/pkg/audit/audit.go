// Package audit builds change envelopes and hands them to a sink on a
// background worker. Delivery is best effort: a full buffer drops the
// envelope and a sink error is only logged.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

const (
	ActionCreate    = "CREATE"
	ActionDelete    = "DELETE"
	ActionAssign    = "ASSIGN"
	ActionPunch     = "PUNCH"
	ActionAutoPunch = "AUTO_PUNCH"
)

// SystemActor is used when the request carries no authenticated user.
const SystemActor = "system"

type Envelope struct {
	ID         string          `json:"id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	TableName  string          `json:"tableName"`
	RecordID   string          `json:"recordID"`
	BeforeJSON json.RawMessage `json:"beforeJson,omitempty"`
	AfterJSON  json.RawMessage `json:"afterJson"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// Event is what services report; Before is nil for creations.
type Event struct {
	Action    string
	TableName string
	RecordID  string
	Before    any
	After     any
}

type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

type Sink interface {
	Write(ctx context.Context, env Envelope) error
}

// NewEnvelope stamps ev with an id, the request actor and the current time.
func NewEnvelope(ctx context.Context, ev Event, now time.Time) (Envelope, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{
		ID:         id.String(),
		Actor:      ActorFromContext(ctx),
		Action:     ev.Action,
		TableName:  ev.TableName,
		RecordID:   ev.RecordID,
		OccurredAt: now,
	}
	if ev.Before != nil {
		if env.BeforeJSON, err = json.Marshal(ev.Before); err != nil {
			return Envelope{}, err
		}
	}
	if env.AfterJSON, err = json.Marshal(ev.After); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// ActorFromContext reads the user_id claim of the verified token, if any.
func ActorFromContext(ctx context.Context) string {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil || claims == nil {
		return SystemActor
	}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID
	}
	return SystemActor
}

type AsyncEmitter struct {
	sink    Sink
	queue   chan Envelope
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

func NewAsyncEmitter(sink Sink, buffer int, logger *slog.Logger) *AsyncEmitter {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &AsyncEmitter{
		sink:    sink,
		queue:   make(chan Envelope, buffer),
		logger:  logger,
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit never blocks the caller.
func (e *AsyncEmitter) Emit(ctx context.Context, ev Event) {
	env, err := NewEnvelope(ctx, ev, time.Now().UTC())
	if err != nil {
		e.logger.Warn("audit envelope not built", "action", ev.Action, "table", ev.TableName, "error", err)
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.dropped.Add(1)
		return
	}

	select {
	case e.queue <- env:
	default:
		e.dropped.Add(1)
		e.logger.Warn("audit buffer full, envelope dropped", "action", env.Action, "table", env.TableName, "record_id", env.RecordID)
	}
}

func (e *AsyncEmitter) run() {
	defer close(e.done)
	for env := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		if err := e.sink.Write(ctx, env); err != nil {
			e.logger.Error("audit sink write failed", "id", env.ID, "action", env.Action, "error", err)
		}
		cancel()
	}
}

// Dropped reports how many envelopes were discarded.
func (e *AsyncEmitter) Dropped() int64 {
	return e.dropped.Load()
}

// Close stops accepting envelopes and waits for the queue to drain or ctx to end.
func (e *AsyncEmitter) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSink writes envelopes as structured log lines.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Write(ctx context.Context, env Envelope) error {
	s.Logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("id", env.ID),
		slog.String("actor", env.Actor),
		slog.String("action", env.Action),
		slog.String("table", env.TableName),
		slog.String("record_id", env.RecordID),
		slog.String("before", string(env.BeforeJSON)),
		slog.String("after", string(env.AfterJSON)),
	)
	return nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}
