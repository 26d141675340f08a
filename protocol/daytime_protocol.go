package protocol

import (
	"bytes"
	"context"

	log "github.com/mgutz/logxi/v1"

	"github.com/nczempin/daytimec-go/errors"
	"github.com/nczempin/daytimec-go/transport"
)

// DaytimeProtocol implements the Daytime Protocol (RFC 867) over a
// transport: the client sends nothing, the server writes one line of text.
type DaytimeProtocol struct {
	transport transport.Transport
	buffer    *ResponseBuffer
	logger    log.Logger
}

// NewDaytimeProtocol creates a new daytime protocol handler
func NewDaytimeProtocol(t transport.Transport, logger log.Logger) *DaytimeProtocol {
	if logger == nil {
		logger = log.NullLog
	}
	return &DaytimeProtocol{
		transport: t,
		buffer:    NewResponseBuffer(ResponseBufferSize),
		logger:    logger,
	}
}

// Connect establishes a connection to the endpoint
func (p *DaytimeProtocol) Connect(ctx context.Context, ep Endpoint) error {
	return p.transport.Connect(ctx, ep.Addr.String(), int(ep.Port))
}

// Disconnect closes the connection
func (p *DaytimeProtocol) Disconnect() error {
	return p.transport.Close()
}

// ReadResponse performs the single read of the exchange and returns a copy
// of the captured text.
//
// A timeout is returned as an error. End of stream and any other read
// failure yield an empty Response instead: the exchange ran, the server
// just had nothing to say.
func (p *DaytimeProtocol) ReadResponse(ctx context.Context) (*Response, error) {
	n, err := p.buffer.Fill(ctx, p.transport)
	if err != nil {
		if errors.IsTransport(err, errors.TransportErrorTimeout) {
			return nil, err
		}
		p.logger.Info("no data read", "reason", err)
		return &Response{}, nil
	}

	p.logger.Debug("read response", "bytes", n, "capacity", p.buffer.Usable())
	return &Response{Data: bytes.Clone(p.buffer.Bytes())}, nil
}
