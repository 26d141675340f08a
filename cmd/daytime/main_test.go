package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"

	"github.com/nczempin/daytimec-go/errors"
	"github.com/nczempin/daytimec-go/transport"
)

func setupDaytimeServer(t *testing.T, handler func(net.Conn)) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}()

	cleanup := func() {
		listener.Close()
		<-done
	}

	return listener.Addr().String(), cleanup
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

var allKinds = []transport.Kind{transport.KindNet, transport.KindIoUring, transport.KindUring}

// requireTransport skips when the platform has no io_uring or the kernel or
// sandbox refuses io_uring_setup.
func requireTransport(t *testing.T, kind transport.Kind) {
	t.Helper()

	_, release, err := transport.New(kind, nil)
	if err != nil {
		if kind != transport.KindNet && (errors.IsTransport(err, errors.TransportErrorIoUringInit) || errors.IsInvalidArgument(err)) {
			t.Skipf("io_uring unavailable: %v", err)
		}
		t.Fatalf("Failed to build %s transport: %v", kind, err)
	}
	release()
}

func TestRun_PrintsTime(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			requireTransport(t, kind)

			addr, cleanup := setupDaytimeServer(t, func(conn net.Conn) {
				conn.Write([]byte("12:34:56\n"))
			})
			defer cleanup()

			code, stdout, _ := runCLI("-transport", string(kind), "-addr", addr)
			if code != 0 {
				t.Fatalf("Expected exit 0, got %d", code)
			}

			// The server's newline is kept and the label adds its own
			if want := "Current time from NIST: 12:34:56\n\n"; stdout != want {
				t.Errorf("Expected %q, got %q", want, stdout)
			}
		})
	}
}

func TestRun_NoData(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			requireTransport(t, kind)

			addr, cleanup := setupDaytimeServer(t, func(conn net.Conn) {})
			defer cleanup()

			code, stdout, _ := runCLI("-transport", string(kind), "-addr", addr)
			if code != 0 {
				t.Fatalf("Expected exit 0, got %d", code)
			}
			if stdout != "No data received.\n" {
				t.Errorf("Unexpected stdout %q", stdout)
			}
		})
	}
}

func TestRun_ConnectionRefused(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			requireTransport(t, kind)

			listener, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatalf("Failed to reserve port: %v", err)
			}
			addr := listener.Addr().String()
			listener.Close()

			code, stdout, stderr := runCLI("-transport", string(kind), "-addr", addr)
			if code != 1 {
				t.Fatalf("Expected exit 1, got %d", code)
			}
			if stdout != "" {
				t.Errorf("Expected empty stdout, got %q", stdout)
			}
			if !strings.HasPrefix(stderr, "Connection failed: ") {
				t.Errorf("Unexpected stderr %q", stderr)
			}
		})
	}
}

func TestRun_InvalidAddress(t *testing.T) {
	for _, addr := range []string{"129.6.15:13", "not-an-ip:13", "129.6.15.28"} {
		t.Run(addr, func(t *testing.T) {
			code, _, stderr := runCLI("-addr", addr)
			if code != 1 {
				t.Fatalf("Expected exit 1, got %d", code)
			}
			if !strings.HasPrefix(stderr, "Invalid address: ") {
				t.Errorf("Unexpected stderr %q", stderr)
			}
		})
	}
}

func TestRun_Timeout(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			requireTransport(t, kind)

			release := make(chan struct{})
			addr, cleanup := setupDaytimeServer(t, func(conn net.Conn) {
				<-release
			})
			defer cleanup()
			defer close(release)

			code, _, stderr := runCLI("-transport", string(kind), "-addr", addr, "-timeout", "50ms")
			if code != 1 {
				t.Fatalf("Expected exit 1, got %d", code)
			}
			if !strings.HasPrefix(stderr, "Timed out: ") {
				t.Errorf("Unexpected stderr %q", stderr)
			}
		})
	}
}

func TestRun_Truncates(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			requireTransport(t, kind)

			payload := strings.Repeat("x", 2048)
			addr, cleanup := setupDaytimeServer(t, func(conn net.Conn) {
				conn.Write([]byte(payload))
			})
			defer cleanup()

			code, stdout, _ := runCLI("-transport", string(kind), "-addr", addr)
			if code != 0 {
				t.Fatalf("Expected exit 0, got %d", code)
			}

			want := "Current time from NIST: " + payload[:1023] + "\n"
			if stdout != want {
				t.Errorf("Expected %d bytes of output, got %d", len(want), len(stdout))
			}
		})
	}
}

func TestRun_BadFlags(t *testing.T) {
	if code, _, _ := runCLI("-transport", "carrier-pigeon"); code != 1 {
		t.Errorf("Expected exit 1 for unknown transport, got %d", code)
	}
	if code, _, _ := runCLI("-nope"); code != 1 {
		t.Errorf("Expected exit 1 for unknown flag, got %d", code)
	}
	if code, _, _ := runCLI("extra"); code != 1 {
		t.Errorf("Expected exit 1 for positional argument, got %d", code)
	}
	if code, _, _ := runCLI("-h"); code != 0 {
		t.Errorf("Expected exit 0 for -h, got %d", code)
	}
}

func TestRun_Verbose(t *testing.T) {
	addr, cleanup := setupDaytimeServer(t, func(conn net.Conn) {
		conn.Write([]byte("12:34:56\n"))
	})
	defer cleanup()

	code, stdout, stderr := runCLI("-v", "-addr", addr)
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d", code)
	}
	if !strings.HasPrefix(stdout, "Current time from NIST: ") {
		t.Errorf("Unexpected stdout %q", stdout)
	}
	if !strings.Contains(stderr, "fetching time") {
		t.Errorf("Expected debug log on stderr, got %q", stderr)
	}
}
