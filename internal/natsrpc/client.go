package natsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nvandessel/fuzler/internal/constants"
	"github.com/nvandessel/fuzler/internal/guard"
)

// DefaultRequestTimeout applies when the caller's context has no deadline.
const DefaultRequestTimeout = 5 * time.Second

// ErrRemoteFault is returned when the service contained a fault while
// scoring. The accompanying score is the service's default score.
var ErrRemoteFault = errors.New("remote scoring fault")

// Client sends scoring requests to a Service.
type Client struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

// NewClient connects to natsURL. An empty subject means the default subject.
func NewClient(natsURL, subject string) (*Client, error) {
	nc, err := nats.Connect(natsURL, nats.Name("fuzler-client"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	if subject == "" {
		subject = constants.DefaultNATSSubject
	}
	return &Client{nc: nc, subject: subject, timeout: DefaultRequestTimeout}, nil
}

// Score asks the service to compare a and b.
func (c *Client) Score(ctx context.Context, a, b string) (float64, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	data, err := json.Marshal(Request{A: a, B: b})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	msg, err := c.nc.RequestWithContext(ctx, c.subject, data)
	if err != nil {
		return 0, fmt.Errorf("scoring request: %w", err)
	}

	var reply Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return 0, fmt.Errorf("decode reply: %w", err)
	}
	if reply.Status != guard.StatusOK {
		return reply.Score, fmt.Errorf("%w (%s): %s", ErrRemoteFault, reply.Status, reply.Error)
	}
	return reply.Score, nil
}

// Close closes the connection.
func (c *Client) Close() {
	c.nc.Close()
}
