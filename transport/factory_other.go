//go:build !linux

package transport

import (
	log "github.com/mgutz/logxi/v1"

	"github.com/nczempin/daytimec-go/errors"
)

func newUring(kind Kind, logger log.Logger) (Transport, func(), error) {
	return nil, nil, errors.NewInvalidArgumentError("transport "+string(kind)+" requires linux", nil)
}
