package transport

import (
	"fmt"

	log "github.com/mgutz/logxi/v1"

	"github.com/nczempin/daytimec-go/errors"
)

// ParseKind validates a transport name given on the command line
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindNet, KindIoUring, KindUring:
		return k, nil
	default:
		return "", errors.NewInvalidArgumentError(
			fmt.Sprintf("unknown transport %q (want %s, %s or %s)", s, KindNet, KindIoUring, KindUring),
			nil,
		)
	}
}

// New creates the Transport named by kind. The returned release func frees
// resources held beyond the socket itself (the io_uring instance) and must
// be called once the transport is no longer used.
func New(kind Kind, logger log.Logger) (Transport, func(), error) {
	if kind == KindNet {
		return NewTcpTransport(logger), func() {}, nil
	}
	return newUring(kind, logger)
}
