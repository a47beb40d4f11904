// Package report delivers a scan result to its output channels.
package report

import (
	"context"
	"fmt"
	"log"

	"github.com/aifoundary/aifoundary/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Sink consumes a finished scan result. Implementations must treat the
// result as read-only and return nil when their prerequisites are missing.
type Sink interface {
	Name() string
	Report(ctx context.Context, result *domain.ScanResult) error
}

// SinkError ties a delivery failure to the sink that produced it
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Dispatch runs every sink concurrently against the same result. A failing
// or panicking sink is logged and never stops the others. The returned
// slice holds one entry per failed sink, in sink order.
func Dispatch(ctx context.Context, logger *log.Logger, result *domain.ScanResult, sinks ...Sink) []*SinkError {
	errs := make([]*SinkError, len(sinks))

	var g errgroup.Group
	for i, sink := range sinks {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
				if err != nil {
					errs[i] = &SinkError{Sink: sink.Name(), Err: err}
				}
			}()
			return sink.Report(ctx, result)
		})
	}
	// Errors are recorded per sink above
	_ = g.Wait()

	var failed []*SinkError
	for _, e := range errs {
		if e == nil {
			continue
		}
		if logger != nil {
			logger.Printf("Warning: %v", e)
		}
		failed = append(failed, e)
	}
	return failed
}
