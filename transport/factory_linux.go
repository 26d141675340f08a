//go:build linux

package transport

import (
	log "github.com/mgutz/logxi/v1"

	"github.com/nczempin/daytimec-go/errors"
)

func newUring(kind Kind, logger log.Logger) (Transport, func(), error) {
	switch kind {
	case KindIoUring:
		t, err := NewUringTransport(logger)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Destroy, nil
	case KindUring:
		t, err := NewUringTransportV2(logger)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Destroy, nil
	}
	return nil, nil, errors.NewInvalidArgumentError("unknown transport "+string(kind), nil)
}
