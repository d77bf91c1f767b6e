package binding

import (
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
	pkgerrors "github.com/pkg/errors"
)

// Invoker runs bound operations of one protocol, recovering backend panics
// and translating failures.
type Invoker struct {
	Protocol string
	Logger   *log.Logger
	Metrics  *metrics.Collector
}

// NewInvoker creates an invoker for protocol.
func NewInvoker(protocol string, logger *log.Logger, collector *metrics.Collector) *Invoker {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Invoker{
		Protocol: protocol,
		Logger:   logger,
		Metrics:  collector,
	}
}

// Call runs fn, an operation declaring the failure kinds in declared.
func Call(inv *Invoker, op string, fn func() error, declared ...errors.Code) error {
	_, err := Call1(inv, op, func() (struct{}, error) {
		return struct{}{}, fn()
	}, declared...)
	return err
}

// Call1 runs fn and returns its result, an operation declaring the
// failure kinds in declared.
func Call1[R any](inv *Invoker, op string, fn func() (R, error), declared ...errors.Code) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			result = zero
			err = recovered(op, r)
		}
		if err != nil {
			err = Translate(op, err, declared...)
		}
		inv.record(op, err)
	}()

	return fn()
}

// Value runs fn, an operation that declares no failures. Only a panic can
// make it fail, which is reported as a binding failure.
func Value[R any](inv *Invoker, op string, fn func() R) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			result = zero
			err = recovered(op, r)
		}
		inv.record(op, err)
	}()

	return fn(), nil
}

func (inv *Invoker) record(op string, err error) {
	if inv == nil {
		return
	}
	inv.Metrics.BackendCall(inv.Protocol, op, err)
	if err != nil {
		inv.Logger.Debug("Backend operation '%s' failed: %v", op, err)
	}
}

func recovered(op string, r any) error {
	var cause error
	if e, ok := r.(error); ok {
		cause = pkgerrors.WithStack(e)
	} else {
		cause = pkgerrors.Errorf("%v", r)
	}
	return errors.Binding(cause, op)
}
