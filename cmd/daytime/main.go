// Command daytime fetches the current time from a Daytime Protocol
// (RFC 867) server and prints it.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/mgutz/logxi/v1"

	"github.com/nczempin/daytimec-go/client"
	"github.com/nczempin/daytimec-go/errors"
	"github.com/nczempin/daytimec-go/protocol"
	"github.com/nczempin/daytimec-go/transport"
)

const (
	timeLabel     = "Current time from NIST: "
	noDataMessage = "No data received."
)

type config struct {
	addr      string
	timeout   time.Duration
	transport string
	verbose   bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("daytime", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.addr, "addr", protocol.DefaultEndpoint, "daytime server as ip:port")
	fs.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "bound on connect and read, 0 waits forever")
	fs.StringVar(&cfg.transport, "transport", string(transport.KindNet), "socket implementation: net, iouring or uring")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging on stderr")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}

// failureLabel names a fatal outcome on stderr
func failureLabel(err error) string {
	switch {
	case errors.IsInvalidArgument(err):
		return "Invalid address"
	case errors.IsTransport(err, errors.TransportErrorSocketCreateFailure),
		errors.IsTransport(err, errors.TransportErrorIoUringInit),
		errors.IsTransport(err, errors.TransportErrorIoUringSubmit):
		return "Socket creation failed"
	case errors.IsTransport(err, errors.TransportErrorTimeout):
		return "Timed out"
	default:
		return "Connection failed"
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger := log.NewLogger(log.NewConcurrentWriter(stderr), "daytime")
	if cfg.verbose {
		logger.SetLevel(log.LevelDebug)
	}

	kind, err := transport.ParseKind(cfg.transport)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	ep, err := protocol.ParseEndpoint(cfg.addr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", failureLabel(err), err)
		return 1
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	logger.Debug("fetching time", "endpoint", ep.String(), "transport", kind, "timeout", cfg.timeout)
	resp, err := client.FetchTime(ctx, kind, ep, logger)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", failureLabel(err), err)
		return 1
	}

	// No data is reported but is not a failure
	if resp.Empty() {
		fmt.Fprintln(stdout, noDataMessage)
		return 0
	}

	fmt.Fprintf(stdout, "%s%s\n", timeLabel, resp)
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
