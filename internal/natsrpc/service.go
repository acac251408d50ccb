// Package natsrpc serves similarity scoring over NATS request/reply so
// comparisons can run in a worker process separate from the caller.
package natsrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nvandessel/fuzler/internal/constants"
	"github.com/nvandessel/fuzler/internal/logging"
	"github.com/nvandessel/fuzler/internal/pool"
)

// StatusInvalid is reported when a request cannot be decoded.
const StatusInvalid = "invalid"

// Request is the JSON body of a scoring request.
type Request struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Reply is the JSON body of a scoring reply.
type Reply struct {
	Score  float64 `json:"score"`
	Status string  `json:"status"`
	Error  string  `json:"error,omitempty"`
}

// Service answers scoring requests on a NATS subject. It holds one queue
// subscription per pool worker, and instances sharing a queue group split the
// request load.
type Service struct {
	mu      sync.Mutex
	nc      *nats.Conn
	closed  chan struct{}
	pool    *pool.Pool
	subject string
	queue   string
	logger  *slog.Logger
	subs    []*nats.Subscription

	ctx    context.Context
	cancel context.CancelFunc
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService connects to natsURL. Empty subject and queue fall back to the
// defaults. The service does not receive requests until Start is called.
func NewService(natsURL string, p *pool.Pool, subject, queue string, opts ...ServiceOption) (*Service, error) {
	closed := make(chan struct{})
	nc, err := nats.Connect(natsURL,
		nats.Name("fuzler-service"),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	if p == nil {
		p = pool.New(nil, 0)
	}
	if subject == "" {
		subject = constants.DefaultNATSSubject
	}
	if queue == "" {
		queue = constants.DefaultNATSQueue
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		nc:      nc,
		closed:  closed,
		pool:    p,
		subject: subject,
		queue:   queue,
		logger:  logging.Discard(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subject returns the request subject.
func (s *Service) Subject() string {
	return s.subject
}

// Start subscribes to the request subject in the service's queue group.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.subs) > 0 {
		return fmt.Errorf("service already started")
	}

	for range s.pool.Workers() {
		sub, err := s.nc.QueueSubscribe(s.subject, s.queue, s.handle)
		if err != nil {
			s.unsubscribeLocked()
			return fmt.Errorf("subscribe: %w", err)
		}
		s.subs = append(s.subs, sub)
	}
	if err := s.nc.Flush(); err != nil {
		s.unsubscribeLocked()
		return fmt.Errorf("flush subscription: %w", err)
	}

	s.logger.Info("nats scoring service started", "subject", s.subject, "queue", s.queue, "workers", len(s.subs))
	return nil
}

func (s *Service) unsubscribeLocked() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}

func (s *Service) handle(msg *nats.Msg) {
	s.respond(msg, s.score(msg.Data))
}

func (s *Service) score(data []byte) Reply {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Reply{Status: StatusInvalid, Error: fmt.Sprintf("invalid request: %v", err)}
	}

	r := s.pool.Score(s.ctx, req.A, req.B)
	reply := Reply{Score: r.Score, Status: r.Status()}
	if r.Err != nil {
		reply.Error = r.Err.Error()
	}
	return reply
}

func (s *Service) respond(msg *nats.Msg, reply Reply) {
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("encoding reply failed", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("sending reply failed", "error", err)
	}
}

// Close stops receiving requests, lets in-flight requests finish and reply,
// and closes the connection.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nc.IsClosed() {
		return
	}
	if err := s.nc.Drain(); err != nil {
		s.logger.Warn("draining nats connection failed", "error", err)
		s.nc.Close()
	}
	<-s.closed
	s.subs = nil
	s.cancel()
}
