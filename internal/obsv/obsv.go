// Package obsv provides the structured-logging instrumentation helper
// injected into every store constructor (storeapi.New). It is
// a self-contained stand-in for sourcegraph's internal/observation package
// (github.com/sourcegraph/sourcegraph/internal/observation), which is not an
// importable module outside the sourcegraph monorepo — the operations-wrapper
// idiom is kept, the concrete implementation is local (DESIGN.md).
package obsv

import (
	"context"
	"time"

	"github.com/sourcegraph/log"
)

// Context bundles a Logger with a name prefix for every Operation created from
// it, matching the teacher's observation.Context(Logger, Registerer) shape
// minus the Prometheus registerer (no HTTP /metrics surface in this spec).
type Context struct {
	logger log.Logger
	prefix string
}

func NewContext(logger log.Logger, prefix string) *Context {
	return &Context{logger: logger, prefix: prefix}
}

func (c *Context) Logger() log.Logger {
	return c.logger
}

// Operation names one instrumented method (e.g. "storeapi.nodes.Get"); With
// wraps a call, logging duration and error at Debug/Warn level.
type Operation struct {
	name   string
	logger log.Logger
}

func (c *Context) Operation(name string) *Operation {
	return &Operation{name: c.prefix + "." + name, logger: c.logger}
}

// With times fn and logs its outcome; the returned error is fn's error,
// unmodified, so callers can still errors.Is/errors.As through it.
func (op *Operation) With(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		op.logger.Warn(op.name, log.Duration("elapsed", elapsed), log.Error(err))
		return err
	}
	op.logger.Debug(op.name, log.Duration("elapsed", elapsed))
	return nil
}
