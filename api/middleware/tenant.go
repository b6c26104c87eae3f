package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/motorhive/workshop-backend/api/responses"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
	"github.com/motorhive/workshop-backend/pkg/logger"
	"github.com/motorhive/workshop-backend/pkg/tenant"
)

const (
	headerTenantID = "X-Tenant-ID"
	headerUserID   = "X-User-ID"
)

// TenantContext resolves the tenant scope from the X-Tenant-ID header and the
// acting user from X-User-ID. Requests without a valid tenant never reach a
// handler; every repository call downstream requires the scope.
func TenantContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(headerTenantID))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing"))
				return
			}

			tenantID, err := uuid.Parse(raw)
			if err != nil || tenantID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid tenant identifier"))
				return
			}

			ctx := tenant.WithID(r.Context(), tenantID)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, tenantID.String())
			}

			if userID := strings.TrimSpace(r.Header.Get(headerUserID)); userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
