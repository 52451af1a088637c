package ports

import (
	"context"

	"github.com/alejandrodnm/parimutuel/internal/domain"
)

// AuditSink receives one record per successful state-changing operation.
// Delivery guarantees belong to the implementation.
type AuditSink interface {
	Emit(ctx context.Context, ev domain.Event) error
}
