package transport

import "context"

// Transport defines the interface for network transports
type Transport interface {
	// Connect establishes a connection to the specified host and port.
	// The context bounds how long the connect may block.
	Connect(ctx context.Context, host string, port int) error

	// Read receives data from the connection with a single read.
	// Returns the number of bytes read. Orderly EOF is reported as
	// TransportErrorConnectionClosed with n == 0.
	Read(ctx context.Context, buf []byte) (int, error)

	// Close closes the connection. Closing twice is a no-op.
	Close() error
}

// Kind names a Transport implementation selectable at runtime
type Kind string

const (
	KindNet     Kind = "net"
	KindIoUring Kind = "iouring"
	KindUring   Kind = "uring"
)

