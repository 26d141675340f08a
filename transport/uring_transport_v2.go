//go:build linux

package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"syscall"
	"time"

	"github.com/godzie44/go-uring/uring"
	log "github.com/mgutz/logxi/v1"
	"golang.org/x/sys/unix"

	"github.com/nczempin/daytimec-go/errors"
)

// UringTransportV2 implements Transport using godzie44/go-uring for async I/O
type UringTransportV2 struct {
	ring   *uring.Ring
	fd     int
	logger log.Logger
}

// NewUringTransportV2 creates a new TCP transport with io_uring (v2 using godzie44/go-uring)
func NewUringTransportV2(logger log.Logger) (*UringTransportV2, error) {
	if logger == nil {
		logger = log.NullLog
	}

	ring, err := uring.New(queueDepth)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringTransportV2{
		ring:   ring,
		fd:     -1,
		logger: logger,
	}, nil
}

// Connect establishes a TCP connection with a blocking connect(2). The
// context deadline is applied as SO_SNDTIMEO, which bounds connect on Linux;
// cancellation without a deadline shuts the socket down instead.
func (t *UringTransportV2) Connect(ctx context.Context, host string, port int) error {
	if t.fd >= 0 {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}

	if err := ctx.Err(); err != nil {
		return errors.NewTransportError(
			errors.TransportErrorTimeout,
			"connect not attempted",
			err,
		)
	}

	fd, sa, addr, err := rawSocket(host, port, false)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		// A zero SO_SNDTIMEO means no timeout at all
		d := max(time.Until(deadline), time.Microsecond)
		tv := unix.NsecToTimeval(d.Nanoseconds())
		if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
			closeRawSocket(fd)
			return errors.NewTransportError(
				errors.TransportErrorSocketCreateFailure,
				"failed to set SO_SNDTIMEO",
				err,
			)
		}
	}

	// Shutting down a socket in SYN_SENT wakes the blocked connect(2)
	stop := context.AfterFunc(ctx, func() {
		unix.Shutdown(fd, unix.SHUT_RDWR)
	})
	err = syscall.Connect(fd, sa)
	if !stop() {
		closeRawSocket(fd)
		return errors.NewTransportError(
			errors.TransportErrorTimeout,
			fmt.Sprintf("connect to %s did not complete", addr),
			ctx.Err(),
		)
	}

	if err != nil {
		closeRawSocket(fd)
		// A blocking connect interrupted by SO_SNDTIMEO reports EINPROGRESS
		if stderrors.Is(err, syscall.EINPROGRESS) || stderrors.Is(err, syscall.EAGAIN) {
			return errors.NewTransportError(
				errors.TransportErrorTimeout,
				fmt.Sprintf("connect to %s did not complete", addr),
				err,
			)
		}
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s", addr),
			err,
		)
	}

	t.logger.Debug("connected", "transport", KindUring, "address", addr)
	t.fd = fd
	return nil
}

// Read receives data from the connection using io_uring. Cancellation shuts
// the socket down, which completes the pending read with zero bytes.
func (t *UringTransportV2) Read(ctx context.Context, buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}

	fd := t.fd
	stop := context.AfterFunc(ctx, func() {
		unix.Shutdown(fd, unix.SHUT_RDWR)
	})

	n, err := t.readOnce(buf)
	if !stop() && n == 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorTimeout,
			"read did not complete",
			ctx.Err(),
		)
	}
	return n, err
}

func (t *UringTransportV2) readOnce(buf []byte) (int, error) {
	// Queue read operation
	sqe := uring.Read(uintptr(t.fd), buf, 0)
	if err := t.ring.QueueSQE(sqe, 0, 0); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to queue read request",
			err,
		)
	}

	if _, err := t.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	cqe, err := t.ring.WaitCQEvents(1)
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"failed to wait for read completion",
			err,
		)
	}

	if err := cqe.Error(); err != nil {
		t.ring.SeenCQE(cqe)
		if stderrors.Is(err, syscall.ECONNRESET) {
			return 0, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection reset by peer",
				err,
			)
		}
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read operation failed",
			err,
		)
	}

	n := int(cqe.Res)
	t.ring.SeenCQE(cqe)

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
func (t *UringTransportV2) Close() error {
	if t.fd < 0 {
		return nil
	}

	fd := t.fd
	t.fd = -1
	if err := closeRawSocket(fd); err != nil {
		return err
	}

	t.logger.Debug("closed", "transport", KindUring)
	return nil
}

// Destroy cleans up resources including the io_uring instance
func (t *UringTransportV2) Destroy() {
	t.Close()
	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
	}
}
