package transport

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	log "github.com/mgutz/logxi/v1"

	"github.com/nczempin/daytimec-go/errors"
)

// TcpTransport implements Transport on top of the runtime network poller
type TcpTransport struct {
	conn   net.Conn
	dialer net.Dialer
	logger log.Logger
}

// NewTcpTransport creates a new TcpTransport instance
func NewTcpTransport(logger log.Logger) *TcpTransport {
	if logger == nil {
		logger = log.NullLog
	}
	return &TcpTransport{
		logger: logger,
	}
}

// Connect establishes a TCP connection to the specified host and port
func (t *TcpTransport) Connect(ctx context.Context, host string, port int) error {
	if t.conn != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return classifyDialError(ctx, addr, err)
	}

	t.logger.Debug("connected", "transport", KindNet, "address", addr)
	t.conn = conn
	return nil
}

// classifyDialError maps a net.Dial failure onto the transport error kinds
func classifyDialError(ctx context.Context, addr string, err error) error {
	if ctx.Err() != nil || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTransportError(
			errors.TransportErrorTimeout,
			"connect to "+addr+" did not complete",
			err,
		)
	}

	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			"failed to resolve "+addr,
			err,
		)
	}

	// The socket(2) failure is wrapped by the dialer as a SyscallError
	var sysErr *os.SyscallError
	if stderrors.As(err, &sysErr) && sysErr.Syscall == "socket" {
		return errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	return errors.NewTransportError(
		errors.TransportErrorSocketConnectFailure,
		"failed to connect to "+addr,
		err,
	)
}

// Read performs a single read from the TCP connection
func (t *TcpTransport) Read(ctx context.Context, buf []byte) (int, error) {
	conn := t.conn
	if conn == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}

	deadline, _ := ctx.Deadline()
	if err := conn.SetReadDeadline(deadline); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"failed to set read deadline",
			err,
		)
	}

	// Cancellation without a deadline still has to unblock the read
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	n, err := conn.Read(buf)
	if n > 0 {
		return n, nil
	}
	if err == nil {
		return 0, nil
	}

	var netErr net.Error
	switch {
	case stderrors.Is(err, io.EOF):
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			err,
		)
	case stderrors.As(err, &netErr) && netErr.Timeout():
		return 0, errors.NewTransportError(
			errors.TransportErrorTimeout,
			"read did not complete",
			err,
		)
	case stderrors.Is(err, syscall.ECONNRESET):
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection reset by peer",
			err,
		)
	}

	return 0, errors.NewTransportError(
		errors.TransportErrorSocketReadFailure,
		"read failed",
		err,
	)
}

// Close closes the TCP connection
func (t *TcpTransport) Close() error {
	if t.conn == nil {
		return nil // Idempotent close
	}

	err := t.conn.Close()
	t.conn = nil

	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}

	t.logger.Debug("closed", "transport", KindNet)
	return nil
}
