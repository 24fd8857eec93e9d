package ports

import (
	"context"

	"github.com/gridpoint/auth-api/internal/core/domain"
)

// AuditRecorder accepts authentication audit entries. Implementations must
// never block the calling request: delivery is best-effort and failures are
// absorbed (logged/counted) rather than returned.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}
