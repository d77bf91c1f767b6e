package dfs

import (
	"context"
	stderrors "errors"
	"net"
	"time"

	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/log"
)

// DialFunc opens a network connection. (*net.Dialer).DialContext
// satisfies it.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Probe checks that address accepts TCP connections within timeout. Backend
// constructors may block for a long time on an unreachable host, so they
// are only called after a successful probe.
func Probe(ctx context.Context, dial DialFunc, address string, timeout time.Duration, logger *log.Logger) error {
	if dial == nil {
		dial = (&net.Dialer{Timeout: timeout}).DialContext
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug("Probing '%s' with a timeout of %s", address, timeout)
	conn, err := dial(ctx, "tcp", address)
	if err != nil {
		var netErr net.Error
		if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
			return errors.Newf(errors.CodeConnectionTimeout, "no answer within %s", timeout).
				WithOperation("probe").
				WithPath(address).
				WithCause(err)
		}
		return errors.New(errors.CodeConnectionFailed, "unable to connect").
			WithOperation("probe").
			WithPath(address).
			WithCause(err)
	}

	if err := conn.Close(); err != nil {
		logger.Warn("Failed to close probe connection to '%s': %v", address, err)
	}
	return nil
}
