// Package tenant carries the ambient tenant scope through context. Every row
// reachable from a work order is tenant-scoped; repositories refuse to run
// queries when the context carries no tenant.
package tenant

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
)

type ctxKey struct{}

// WithID injects the tenant identifier into the context.
func WithID(ctx context.Context, tenantID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// FromContext extracts the tenant identifier, if present.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// Require extracts the tenant identifier or fails. Repositories call this at
// the data-access boundary so an unscoped query can never reach the database.
func Require(ctx context.Context) (uuid.UUID, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing")
	}
	return id, nil
}
