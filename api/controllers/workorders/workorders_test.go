package workorders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/motorhive/workshop-backend/api/middleware"
	internalworkorders "github.com/motorhive/workshop-backend/internal/workorders"
	"github.com/motorhive/workshop-backend/pkg/db/models"
	"github.com/motorhive/workshop-backend/pkg/enums"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
)

type fakeService struct {
	internalworkorders.Service

	updateStatus func(ctx context.Context, id uuid.UUID, target enums.WorkOrderStatus, userID *uuid.UUID) (*models.WorkOrder, error)
	addItem      func(ctx context.Context, orderID uuid.UUID, input internalworkorders.ItemInput) (*models.WorkOrderItem, error)
	addMechanic  func(ctx context.Context, orderID, itemID, mechanicID uuid.UUID, userID *uuid.UUID) ([]models.WorkOrderItemMechanic, error)
}

func (f *fakeService) UpdateStatus(ctx context.Context, id uuid.UUID, target enums.WorkOrderStatus, userID *uuid.UUID) (*models.WorkOrder, error) {
	return f.updateStatus(ctx, id, target, userID)
}

func (f *fakeService) AddItem(ctx context.Context, orderID uuid.UUID, input internalworkorders.ItemInput) (*models.WorkOrderItem, error) {
	return f.addItem(ctx, orderID, input)
}

func (f *fakeService) AddItemMechanic(ctx context.Context, orderID, itemID, mechanicID uuid.UUID, userID *uuid.UUID) ([]models.WorkOrderItemMechanic, error) {
	return f.addMechanic(ctx, orderID, itemID, mechanicID, userID)
}

func requestWithParams(method, target, body string, params map[string]string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestUpdateStatusSurfacesStateConflictReason(t *testing.T) {
	orderID := uuid.New()
	svc := &fakeService{
		updateStatus: func(ctx context.Context, id uuid.UUID, target enums.WorkOrderStatus, userID *uuid.UUID) (*models.WorkOrder, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a mechanic must be assigned before this transition").
				WithDetails(map[string]any{"reason": internalworkorders.ReasonMechanicRequired})
		},
	}

	req := requestWithParams(http.MethodPatch, "/api/v1/work-orders/"+orderID.String()+"/status",
		`{"status":"approved"}`, map[string]string{"orderId": orderID.String()})
	resp := httptest.NewRecorder()
	UpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", payload.Error.Code)
	}
	if payload.Error.Details["reason"] != internalworkorders.ReasonMechanicRequired {
		t.Fatalf("expected reason %s got %v", internalworkorders.ReasonMechanicRequired, payload.Error.Details["reason"])
	}
}

func TestUpdateStatusRejectsUnknownTarget(t *testing.T) {
	orderID := uuid.New()
	called := false
	svc := &fakeService{
		updateStatus: func(ctx context.Context, id uuid.UUID, target enums.WorkOrderStatus, userID *uuid.UUID) (*models.WorkOrder, error) {
			called = true
			return nil, nil
		},
	}

	req := requestWithParams(http.MethodPatch, "/api/v1/work-orders/"+orderID.String()+"/status",
		`{"status":"teleported"}`, map[string]string{"orderId": orderID.String()})
	resp := httptest.NewRecorder()
	UpdateStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatalf("service should not be reached for an unknown status")
	}
}

func TestAddItemParsesPayloadAndActor(t *testing.T) {
	orderID := uuid.New()
	userID := uuid.New()
	var got internalworkorders.ItemInput
	svc := &fakeService{
		addItem: func(ctx context.Context, id uuid.UUID, input internalworkorders.ItemInput) (*models.WorkOrderItem, error) {
			got = input
			return &models.WorkOrderItem{ID: uuid.New(), WorkOrderID: id}, nil
		},
	}

	body := `{"type":"part","quantity":3,"description":"  Front brake pads  ","recommended":true}`
	req := requestWithParams(http.MethodPost, "/api/v1/work-orders/"+orderID.String()+"/items",
		body, map[string]string{"orderId": orderID.String()})
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()
	AddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.Type != enums.WorkOrderItemTypePart {
		t.Fatalf("expected part item got %s", got.Type)
	}
	if got.Quantity != 3 || !got.Recommended {
		t.Fatalf("payload not carried through: %+v", got)
	}
	if got.Description != "Front brake pads" {
		t.Fatalf("expected sanitized description, got %q", got.Description)
	}
	if got.UserID == nil || *got.UserID != userID {
		t.Fatalf("expected actor %s got %v", userID, got.UserID)
	}
}

func TestAddItemRejectsUnknownFields(t *testing.T) {
	orderID := uuid.New()
	svc := &fakeService{
		addItem: func(ctx context.Context, id uuid.UUID, input internalworkorders.ItemInput) (*models.WorkOrderItem, error) {
			t.Fatal("service should not be reached")
			return nil, nil
		},
	}

	body := `{"type":"labor","quantity":1,"discount":99}`
	req := requestWithParams(http.MethodPost, "/api/v1/work-orders/"+orderID.String()+"/items",
		body, map[string]string{"orderId": orderID.String()})
	resp := httptest.NewRecorder()
	AddItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAddItemMechanicReturnsSplit(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()
	mechanicID := uuid.New()
	svc := &fakeService{
		addMechanic: func(ctx context.Context, oID, iID, mID uuid.UUID, userID *uuid.UUID) ([]models.WorkOrderItemMechanic, error) {
			if oID != orderID || iID != itemID || mID != mechanicID {
				t.Fatalf("ids not carried through")
			}
			return []models.WorkOrderItemMechanic{
				{MechanicID: mechanicID, ContributionPercent: 100, Position: 0},
			}, nil
		},
	}

	body := `{"mechanic_id":"` + mechanicID.String() + `"}`
	req := requestWithParams(http.MethodPost,
		"/api/v1/work-orders/"+orderID.String()+"/items/"+itemID.String()+"/mechanics",
		body, map[string]string{"orderId": orderID.String(), "itemId": itemID.String()})
	resp := httptest.NewRecorder()
	AddItemMechanic(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDetailRejectsMissingOrderID(t *testing.T) {
	svc := &fakeService{}

	req := requestWithParams(http.MethodGet, "/api/v1/work-orders/", "", nil)
	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
