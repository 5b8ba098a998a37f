package natscluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/drover-io/drover/internal/natsutil"
	"github.com/drover-io/drover/types"
)

// Operation segments of the worker RPC subjects.
const (
	opReady = "ready"
	opStart = "start"
	opStop  = "stop"
)

// rpcReply is the wire format every worker RPC answers with.
type rpcReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// startRequest is the wire format of the start-streaming RPC.
type startRequest struct {
	Membership types.Membership `json:"membership"`
	Config     string           `json:"config"`
}

// rpcEndpoint is a worker handle backed by NATS request/reply on per-member
// subjects of the form "<prefix>.<memberID>.<op>".
type rpcEndpoint struct {
	id            string
	nc            *nats.Conn
	subjectPrefix string
	timeout       time.Duration
}

var _ types.Endpoint = (*rpcEndpoint)(nil)

func (e *rpcEndpoint) ID() string {
	return e.id
}

func (e *rpcEndpoint) Ready(ctx context.Context) error {
	reply, err := e.request(ctx, opReady, nil)
	if err != nil {
		return err
	}
	if !reply.OK {
		return fmt.Errorf("%w: %s", types.ErrEndpointNotReady, reply.Error)
	}

	return nil
}

func (e *rpcEndpoint) StartStreaming(ctx context.Context, membership types.Membership, config string) error {
	payload, err := json.Marshal(startRequest{Membership: membership, Config: config})
	if err != nil {
		return fmt.Errorf("failed to encode start request: %w", err)
	}

	reply, err := e.request(ctx, opStart, payload)
	if err != nil {
		return err
	}
	if !reply.OK {
		return fmt.Errorf("worker %s rejected start: %s", e.id, reply.Error)
	}

	return nil
}

func (e *rpcEndpoint) StopStreaming(ctx context.Context) error {
	reply, err := e.request(ctx, opStop, nil)
	if err != nil {
		return err
	}
	if !reply.OK {
		return fmt.Errorf("worker %s failed to stop: %s", e.id, reply.Error)
	}

	return nil
}

func (e *rpcEndpoint) subject(op string) string {
	return fmt.Sprintf("%s.%s.%s", e.subjectPrefix, e.id, op)
}

// request performs one bounded RPC round trip and decodes the reply.
//
// Transport-level failures (no responder, timeout, disconnect) are wrapped
// with types.ErrConnectivity so callers can classify them.
func (e *rpcEndpoint) request(ctx context.Context, op string, payload []byte) (rpcReply, error) {
	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	msg, err := e.nc.RequestWithContext(rctx, e.subject(op), payload)
	if err != nil {
		if natsutil.IsConnectivityError(err) || errors.Is(err, context.DeadlineExceeded) {
			return rpcReply{}, fmt.Errorf("%w: %s rpc to worker %s: %v", types.ErrConnectivity, op, e.id, err)
		}

		return rpcReply{}, fmt.Errorf("%s rpc to worker %s failed: %w", op, e.id, err)
	}

	var reply rpcReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return rpcReply{}, fmt.Errorf("malformed %s reply from worker %s: %w", op, e.id, err)
	}

	return reply, nil
}
