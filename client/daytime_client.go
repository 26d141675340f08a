package client

import (
	"context"

	log "github.com/mgutz/logxi/v1"

	"github.com/nczempin/daytimec-go/protocol"
	"github.com/nczempin/daytimec-go/transport"
)

// DaytimeClient provides a high-level daytime API
type DaytimeClient struct {
	protocol *protocol.DaytimeProtocol
	logger   log.Logger
}

// NewDaytimeClient creates a new daytime client with the given protocol
func NewDaytimeClient(proto *protocol.DaytimeProtocol, logger log.Logger) *DaytimeClient {
	if logger == nil {
		logger = log.NullLog
	}
	return &DaytimeClient{
		protocol: proto,
		logger:   logger,
	}
}

// FetchTime connects to ep, reads the server's response once and closes the
// connection. The connection is released exactly once on every path.
//
// An empty Response with a nil error means the server sent nothing. ctx
// bounds both the connect and the read.
func (c *DaytimeClient) FetchTime(ctx context.Context, ep protocol.Endpoint) (*protocol.Response, error) {
	defer func() {
		if err := c.protocol.Disconnect(); err != nil {
			c.logger.Warn("failed to release connection", "endpoint", ep.String(), "reason", err)
		}
	}()

	c.logger.Debug("connecting", "endpoint", ep.String())
	if err := c.protocol.Connect(ctx, ep); err != nil {
		return nil, err
	}

	return c.protocol.ReadResponse(ctx)
}

// FetchTime builds a transport of the given kind, fetches once from ep and
// tears everything down again.
func FetchTime(ctx context.Context, kind transport.Kind, ep protocol.Endpoint, logger log.Logger) (*protocol.Response, error) {
	trans, release, err := transport.New(kind, logger)
	if err != nil {
		return nil, err
	}
	defer release()

	client := NewDaytimeClient(protocol.NewDaytimeProtocol(trans, logger), logger)
	return client.FetchTime(ctx, ep)
}
