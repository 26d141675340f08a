package protocol

import (
	"fmt"
	"net/netip"

	"github.com/nczempin/daytimec-go/errors"
)

const (
	// DefaultPort is the well-known Daytime Protocol port (RFC 867)
	DefaultPort = 13

	// DefaultEndpoint is time.nist.gov
	DefaultEndpoint = "129.6.15.28:13"

	// ResponseBufferSize is the capacity of the response buffer including
	// the byte reserved for the terminator
	ResponseBufferSize = 1024
)

// Endpoint is the immutable (address, port) pair of a daytime server
type Endpoint struct {
	Addr netip.Addr
	Port uint16
}

// ParseEndpoint parses an "ip:port" literal. Host names are rejected: the
// endpoint is always a numeric address.
func ParseEndpoint(s string) (Endpoint, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return Endpoint{}, errors.NewInvalidArgumentError(
			fmt.Sprintf("invalid endpoint %q", s),
			err,
		)
	}

	if ap.Port() == 0 {
		return Endpoint{}, errors.NewInvalidArgumentError(
			fmt.Sprintf("invalid endpoint %q: port must be non-zero", s),
			nil,
		)
	}

	return Endpoint{Addr: ap.Addr(), Port: ap.Port()}, nil
}

func (e Endpoint) String() string {
	return netip.AddrPortFrom(e.Addr, e.Port).String()
}

// Response is the text captured from a single read
type Response struct {
	Data []byte
}

// Empty reports the "no data received" outcome
func (r *Response) Empty() bool {
	return r == nil || len(r.Data) == 0
}

func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return string(r.Data)
}
