package notify

import (
	"context"
	"errors"

	"github.com/alejandrodnm/parimutuel/internal/domain"
	"github.com/alejandrodnm/parimutuel/internal/ports"
)

// Multi fans one event out to several sinks. Every sink is tried; the
// failures are joined.
type Multi []ports.AuditSink

func (m Multi) Emit(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ ports.AuditSink = Multi(nil)
