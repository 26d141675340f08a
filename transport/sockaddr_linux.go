//go:build linux

package transport

import (
	"fmt"
	"net"
	"strconv"
	"syscall"

	sockaddrnet "github.com/libp2p/go-sockaddr/net"
	"golang.org/x/sys/unix"

	"github.com/nczempin/daytimec-go/errors"
)

// queueDepth is the submission queue size of the io_uring transports.
// A daytime fetch never has more than one request in flight.
const queueDepth = 8

// rawSocket resolves host:port and opens an unconnected stream socket of the
// matching address family.
func rawSocket(host string, port int, nonblock bool) (int, syscall.Sockaddr, string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return -1, nil, addr, errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			fmt.Sprintf("failed to resolve %s", addr),
			err,
		)
	}

	sa := toSyscallSockaddr(sockaddrnet.TCPAddrToSockaddr(tcpAddr))
	if sa == nil {
		return -1, nil, addr, errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			fmt.Sprintf("unsupported address %s", addr),
			nil,
		)
	}

	sotype := unix.SOCK_STREAM | unix.SOCK_CLOEXEC
	if nonblock {
		sotype |= unix.SOCK_NONBLOCK
	}
	fd, err := unix.Socket(sockaddrnet.NetAddrAF(tcpAddr), sotype, unix.IPPROTO_TCP)
	if err != nil {
		return -1, nil, addr, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return -1, nil, addr, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to set TCP_NODELAY",
			err,
		)
	}

	return fd, sa, addr, nil
}

// toSyscallSockaddr converts an x/sys/unix socket address into the syscall
// form taken by syscall.Connect and iouring.Connect. Families other than
// IPv4 and IPv6 yield nil.
func toSyscallSockaddr(sa unix.Sockaddr) syscall.Sockaddr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &syscall.SockaddrInet4{Port: v.Port, Addr: v.Addr}
	case *unix.SockaddrInet6:
		return &syscall.SockaddrInet6{Port: v.Port, ZoneId: v.ZoneId, Addr: v.Addr}
	}
	return nil
}

// closeRawSocket closes fd and maps the failure onto the transport taxonomy
func closeRawSocket(fd int) error {
	if err := unix.Close(fd); err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}
	return nil
}
