package devserver

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/xid"
)

const maxUUIDCount = 1000

func newUUIDFunc(algorithm string) (func() string, error) {

	switch algorithm {
	case "", UUIDRandom:
		return func() string {
			return strings.Replace(uuid.New().String(), "-", "", -1)
		}, nil
	case UUIDXid:
		return func() string {
			return xid.New().String()
		}, nil
	}
	return nil, fmt.Errorf("unknown uuid algorithm '%s'", algorithm)
}
