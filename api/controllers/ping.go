package controllers

import (
	"net/http"

	"github.com/motorhive/workshop-backend/api/responses"
	"github.com/motorhive/workshop-backend/pkg/tenant"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func TenantPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "tenant", "status": "ok"}
		if id, ok := tenant.FromContext(r.Context()); ok {
			payload["tenant_id"] = id.String()
		}
		responses.WriteSuccess(w, payload)
	}
}
