package transport

import (
	"testing"

	"github.com/nczempin/daytimec-go/errors"
)

func TestParseKind(t *testing.T) {
	for _, name := range []string{"net", "iouring", "uring"} {
		kind, err := ParseKind(name)
		if err != nil {
			t.Errorf("ParseKind(%q) failed: %v", name, err)
		}
		if string(kind) != name {
			t.Errorf("ParseKind(%q) = %q", name, kind)
		}
	}

	_, err := ParseKind("quic")
	if !errors.IsInvalidArgument(err) {
		t.Errorf("Expected invalid argument error, got %v", err)
	}
}

func TestNew_Net(t *testing.T) {
	trans, release, err := New(KindNet, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer release()

	if _, ok := trans.(*TcpTransport); !ok {
		t.Errorf("Expected *TcpTransport, got %T", trans)
	}
}
