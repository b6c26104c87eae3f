package controllers

import (
	"net/http"

	"github.com/motorhive/workshop-backend/api/responses"
	"github.com/motorhive/workshop-backend/internal/catalog"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
	"github.com/motorhive/workshop-backend/pkg/logger"
)

// CatalogParts lists the tenant's part catalog with current stock levels.
func CatalogParts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		parts, err := svc.ListParts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, parts)
	}
}

// CatalogServices lists the tenant's service catalog.
func CatalogServices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		services, err := svc.ListServices(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, services)
	}
}
