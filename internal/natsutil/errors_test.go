package natsutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"

	"github.com/drover-io/drover/types"
)

func TestIsConnectivityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"nats timeout", nats.ErrTimeout, true},
		{"no servers", nats.ErrNoServers, true},
		{"disconnected", nats.ErrDisconnected, true},
		{"connection closed", nats.ErrConnectionClosed, true},
		{"no responders", nats.ErrNoResponders, true},
		{"wrapped timeout", fmt.Errorf("rpc failed: %w", nats.ErrTimeout), true},
		{"connectivity sentinel", types.ErrConnectivity, true},
		{"connection refused text", errors.New("dial tcp: connection refused"), true},
		{"io timeout text", errors.New("read tcp: i/o timeout"), true},
		{"application error", errors.New("worker rejected start"), false},
		{"not ready", types.ErrEndpointNotReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectivityError(tt.err))
		})
	}
}
