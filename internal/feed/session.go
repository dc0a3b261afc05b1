package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-stomp/stomp/v3"

	"github.com/railwatch/railwatch/internal/tracker"
)

const (
	topicTD       = "/topic/TD_ALL_SIG_AREA"
	topicMovement = "/topic/TRAIN_MVT_ALL_TOC"

	// Broker-side heartbeats, matching the upstream feed's guidance.
	heartbeatSend = 10 * time.Second
	heartbeatRecv = 5 * time.Second

	// DefaultReconnectBase is the initial reconnect wait.
	DefaultReconnectBase = 15 * time.Second

	maxReconnectWait = 8 * time.Minute
)

// StepSink receives decoded step events in arrival order.
// Implemented by tracker.Tracker.
type StepSink interface {
	Enqueue(ev tracker.StepEvent) bool
}

// MovementSink receives raw movement frame bodies.
// Implemented by movement.Ingester.
type MovementSink interface {
	HandleFrame(ctx context.Context, body []byte) error
}

// Config holds the operator-supplied connection parameters.
type Config struct {
	Host             string
	Port             int
	Username         string
	Password         string
	SubscriptionName string // durable subscription name prefix
	ReconnectBase    time.Duration
}

// Session maintains a live subscription to the upstream bus and pumps
// decoded events into the sinks. A session never ends on its own: frame
// errors are skipped, disconnects reconnect with backoff, and only
// context cancellation returns.
type Session struct {
	cfg       Config
	steps     StepSink
	movements MovementSink
}

// NewSession creates a session. movements may be nil to ignore the
// movement topic.
func NewSession(cfg Config, steps StepSink, movements MovementSink) *Session {
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = DefaultReconnectBase
	}
	return &Session{cfg: cfg, steps: steps, movements: movements}
}

// Run drives the connect/consume/reconnect loop until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	bo := newBackoff(s.cfg.ReconnectBase, maxReconnectWait)
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	for {
		err := s.runConn(ctx, addr, bo)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := bo.Next()
		slog.Warn("feed session interrupted",
			"error", err,
			"reconnect_in", wait.String(),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// runConn holds one connection: dial, subscribe, consume until the
// connection breaks. The backoff resets as soon as the subscriptions are
// established.
func (s *Session) runConn(ctx context.Context, addr string, bo *backoff) error {
	conn, err := stomp.Dial("tcp", addr,
		stomp.ConnOpt.Login(s.cfg.Username, s.cfg.Password),
		stomp.ConnOpt.HeartBeat(heartbeatSend, heartbeatRecv),
		stomp.ConnOpt.Header("client-id", s.cfg.Username+"1"),
	)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer func() {
		if err := conn.Disconnect(); err != nil {
			slog.Debug("feed disconnect", "error", err)
		}
	}()

	tdSub, err := conn.Subscribe(topicTD, stomp.AckAuto,
		stomp.SubscribeOpt.Header("activemq.subscriptionName", s.cfg.SubscriptionName+"-td"))
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topicTD, err)
	}
	mvtSub, err := conn.Subscribe(topicMovement, stomp.AckAuto,
		stomp.SubscribeOpt.Header("activemq.subscriptionName", s.cfg.SubscriptionName+"-mvt"))
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topicMovement, err)
	}

	slog.Info("feed connected and subscribed", "addr", addr)
	bo.Reset()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-tdSub.C:
			if !ok || msg == nil {
				return errors.New("TD subscription closed")
			}
			if msg.Err != nil {
				return fmt.Errorf("TD subscription: %w", msg.Err)
			}
			s.handleTDFrame(msg.Body)

		case msg, ok := <-mvtSub.C:
			if !ok || msg == nil {
				return errors.New("movement subscription closed")
			}
			if msg.Err != nil {
				return fmt.Errorf("movement subscription: %w", msg.Err)
			}
			s.handleMovementFrame(ctx, msg.Body)
		}
	}
}

// handleTDFrame decodes one TD frame and enqueues its events in order.
// Decode failures are logged and skipped - never fatal to the session.
func (s *Session) handleTDFrame(body []byte) {
	events, err := DecodeTDFrame(body)
	if err != nil {
		slog.Warn("skipping malformed TD frame", "error", err)
		return
	}
	for _, ev := range events {
		if !s.steps.Enqueue(ev) {
			slog.Warn("tracker stopped; dropping event",
				"area", ev.Area, "code", ev.Code)
			return
		}
	}
}

func (s *Session) handleMovementFrame(ctx context.Context, body []byte) {
	if s.movements == nil {
		return
	}
	if err := s.movements.HandleFrame(ctx, body); err != nil {
		slog.Warn("skipping malformed movement frame", "error", err)
	}
}
