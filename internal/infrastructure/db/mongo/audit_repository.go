package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gridpoint/auth-api/internal/core/domain"
)

const auditCollection = "auth_audit"

// AuditRepository persists authentication audit entries as an append-only
// collection. Entries are never updated or deleted by the service.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type auditDoc struct {
	Event    string `bson:"event"`
	Username string `bson:"username"`
	UserID   string `bson:"user_id,omitempty"`
	ActorID  string `bson:"actor_id,omitempty"`
	At       int64  `bson:"at"`
}

// Insert appends a single audit entry.
func (r *AuditRepository) Insert(ctx context.Context, entry domain.AuditEntry) error {
	doc := auditDoc{
		Event:    entry.Event,
		Username: entry.Username,
		UserID:   entry.UserID,
		ActorID:  entry.ActorID,
		At:       entry.At.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
