//go:build linux

package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"syscall"

	"github.com/iceber/iouring-go"
	log "github.com/mgutz/logxi/v1"

	"github.com/nczempin/daytimec-go/errors"
)

// UringTransport implements Transport using io_uring for async I/O
type UringTransport struct {
	iour   *iouring.IOURing
	fd     int
	logger log.Logger
}

// NewUringTransport creates a new TCP transport with io_uring
func NewUringTransport(logger log.Logger) (*UringTransport, error) {
	if logger == nil {
		logger = log.NullLog
	}

	iour, err := iouring.New(queueDepth)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringTransport{
		iour:   iour,
		fd:     -1,
		logger: logger,
	}, nil
}

// await submits a request and blocks until it completes or ctx is done.
// A request abandoned on ctx is cancelled and drained before returning so
// the kernel no longer references its buffer.
func (t *UringTransport) await(ctx context.Context, prepReq iouring.PrepRequest) (iouring.Result, error) {
	ch := make(chan iouring.Result, 1)
	req, err := t.iour.SubmitRequest(prepReq, ch)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit request",
			err,
		)
	}

	select {
	case result := <-ch:
		return result, nil
	case <-ctx.Done():
		if _, err := req.Cancel(); err != nil {
			t.logger.Debug("cancel failed", "reason", err)
		}
		<-ch
		return nil, errors.NewTransportError(
			errors.TransportErrorTimeout,
			"request did not complete",
			ctx.Err(),
		)
	}
}

// Connect establishes a TCP connection using io_uring
func (t *UringTransport) Connect(ctx context.Context, host string, port int) error {
	if t.fd >= 0 {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}

	fd, sa, addr, err := rawSocket(host, port, true)
	if err != nil {
		return err
	}

	prepReq, err := iouring.Connect(fd, sa)
	if err != nil {
		closeRawSocket(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to prepare connect to %s", addr),
			err,
		)
	}

	result, err := t.await(ctx, prepReq)
	if err != nil {
		closeRawSocket(fd)
		return err
	}
	if err := result.Err(); err != nil {
		closeRawSocket(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s", addr),
			err,
		)
	}

	t.logger.Debug("connected", "transport", KindIoUring, "address", addr)
	t.fd = fd
	return nil
}

// Read receives data from the connection using io_uring
func (t *UringTransport) Read(ctx context.Context, buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}

	result, err := t.await(ctx, iouring.Read(t.fd, buf))
	if err != nil {
		return 0, err
	}

	n, err := result.ReturnInt()
	if err != nil {
		if stderrors.Is(err, syscall.ECONNRESET) {
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

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// Close closes the connection
func (t *UringTransport) Close() error {
	if t.fd < 0 {
		return nil // Already closed or never connected
	}

	fd := t.fd
	t.fd = -1
	if err := closeRawSocket(fd); err != nil {
		return err
	}

	t.logger.Debug("closed", "transport", KindIoUring)
	return nil
}

// Destroy cleans up resources including the io_uring instance
func (t *UringTransport) Destroy() {
	t.Close()
	if t.iour != nil {
		t.iour.Close()
		t.iour = nil
	}
}
