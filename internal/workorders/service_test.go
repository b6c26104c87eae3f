package workorders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/motorhive/workshop-backend/internal/activity"
	"github.com/motorhive/workshop-backend/internal/appointments"
	"github.com/motorhive/workshop-backend/internal/catalog"
	"github.com/motorhive/workshop-backend/internal/stockledger"
	"github.com/motorhive/workshop-backend/internal/warehouse"
	"github.com/motorhive/workshop-backend/pkg/db/models"
	"github.com/motorhive/workshop-backend/pkg/enums"
	pkgerrors "github.com/motorhive/workshop-backend/pkg/errors"
	"github.com/motorhive/workshop-backend/pkg/metrics"
	"github.com/motorhive/workshop-backend/pkg/tenant"
)

var engineSchema = []string{
	`CREATE TABLE work_order_counters (
  tenant_id TEXT PRIMARY KEY,
  last_number INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
	`CREATE TABLE work_orders (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  order_number INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'new',
  client_id TEXT NOT NULL,
  vehicle_id TEXT NOT NULL,
  advisor_id TEXT,
  mechanic_id TEXT,
  appointment_id TEXT,
  complaints TEXT,
  mileage INTEGER,
  fuel_level TEXT,
  total_labor NUMERIC NOT NULL DEFAULT 0,
  total_parts NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  follow_up_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE work_order_items (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  work_order_id TEXT NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  norm_hours NUMERIC,
  service_id TEXT,
  part_id TEXT,
  recommended BOOLEAN NOT NULL DEFAULT 0,
  approved_by_client BOOLEAN,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE work_order_item_mechanics (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  work_order_item_id TEXT NOT NULL REFERENCES work_order_items(id) ON DELETE CASCADE,
  mechanic_id TEXT NOT NULL,
  contribution_percent INTEGER NOT NULL,
  position INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE work_logs (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  work_order_id TEXT NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
  mechanic_id TEXT NOT NULL,
  description TEXT NOT NULL,
  hours_worked NUMERIC NOT NULL,
  log_date DATETIME NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE work_order_activities (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  work_order_id TEXT NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  description TEXT NOT NULL,
  metadata TEXT,
  user_id TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE warehouse_stocks (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  warehouse_id TEXT NOT NULL,
  part_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  reserved INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
	`CREATE TABLE stock_movements (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  part_id TEXT NOT NULL,
  warehouse_id TEXT NOT NULL,
  type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  reference TEXT NOT NULL,
  reference_id TEXT,
  user_id TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE parts (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  sku TEXT,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE catalog_services (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  norm_hours NUMERIC,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE appointments (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  client_id TEXT NOT NULL,
  vehicle_id TEXT NOT NULL,
  mechanic_id TEXT,
  status TEXT NOT NULL DEFAULT 'scheduled',
  scheduled_at DATETIME NOT NULL,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE appointment_items (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  appointment_id TEXT NOT NULL REFERENCES appointments(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  description TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  unit_price NUMERIC NOT NULL,
  service_id TEXT,
  part_id TEXT,
  created_at DATETIME
);`,
}

type testRunner struct {
	db *gorm.DB
}

func (r testRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type engineFixture struct {
	db       *gorm.DB
	svc      Service
	ctx      context.Context
	tenantID uuid.UUID
}

func newEngine(t *testing.T) *engineFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, ddl := range engineSchema {
		require.NoError(t, db.Exec(ddl).Error)
	}

	stockSvc, err := stockledger.NewService(stockledger.NewRepository(db), warehouse.NewMover(), 3, zerolog.Nop())
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalog.NewRepository(db))
	require.NoError(t, err)
	recorder, err := activity.NewRecorder(activity.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(
		testRunner{db: db},
		NewRepository(db),
		stockSvc,
		catalogSvc,
		appointments.NewRepository(db),
		recorder,
		metrics.NewEngineMetrics(prometheus.NewRegistry()),
		zerolog.Nop(),
	)
	require.NoError(t, err)

	tenantID := uuid.New()
	return &engineFixture{
		db:       db,
		svc:      svc,
		ctx:      tenant.WithID(context.Background(), tenantID),
		tenantID: tenantID,
	}
}

func (f *engineFixture) seedStock(t *testing.T, warehouseID, partID uuid.UUID, quantity, reserved int) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.WarehouseStock{
		ID:          uuid.New(),
		TenantID:    f.tenantID,
		WarehouseID: warehouseID,
		PartID:      partID,
		Quantity:    quantity,
		Reserved:    reserved,
	}).Error)
}

func (f *engineFixture) seedPart(t *testing.T, name string, price string) uuid.UUID {
	t.Helper()
	part := models.Part{
		ID:        uuid.New(),
		TenantID:  f.tenantID,
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
	}
	require.NoError(t, f.db.Create(&part).Error)
	return part.ID
}

func (f *engineFixture) createOrder(t *testing.T, mechanic *uuid.UUID) *models.WorkOrder {
	t.Helper()
	order, err := f.svc.Create(f.ctx, CreateInput{
		ClientID:   uuid.New(),
		VehicleID:  uuid.New(),
		MechanicID: mechanic,
	})
	require.NoError(t, err)
	return order
}

// walkTo drives an order with an assigned mechanic through the lifecycle up
// to the requested status.
func (f *engineFixture) walkTo(t *testing.T, orderID uuid.UUID, target enums.WorkOrderStatus) *models.WorkOrder {
	t.Helper()
	path := []enums.WorkOrderStatus{
		enums.WorkOrderStatusDiagnosed,
		enums.WorkOrderStatusApproved,
		enums.WorkOrderStatusInProgress,
		enums.WorkOrderStatusCompleted,
		enums.WorkOrderStatusInvoiced,
		enums.WorkOrderStatusPaid,
		enums.WorkOrderStatusClosed,
	}
	var order *models.WorkOrder
	var err error
	for _, status := range path {
		order, err = f.svc.UpdateStatus(f.ctx, orderID, status, nil)
		require.NoError(t, err)
		if status == target {
			break
		}
	}
	return order
}

func (f *engineFixture) stockFor(t *testing.T, warehouseID uuid.UUID) models.WarehouseStock {
	t.Helper()
	var stock models.WarehouseStock
	require.NoError(t, f.db.First(&stock, "warehouse_id = ?", warehouseID).Error)
	return stock
}

func TestCreate_AssignsSequentialOrderNumbers(t *testing.T) {
	f := newEngine(t)

	first := f.createOrder(t, nil)
	second := f.createOrder(t, nil)

	require.Equal(t, int64(1), first.OrderNumber)
	require.Equal(t, int64(2), second.OrderNumber)
	require.Equal(t, "WO-00001", first.FormattedNumber())
	require.Equal(t, enums.WorkOrderStatusNew, first.Status)
	require.True(t, first.TotalAmount.IsZero())

	entries, err := f.svc.ListActivity(f.ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, enums.WorkOrderActivityTypeCreated, entries[0].Type)
}

func TestCreate_PersistsCanonicalID(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	var raw string
	require.NoError(t, f.db.Raw("SELECT id FROM work_orders WHERE tenant_id = ?", f.tenantID).Scan(&raw).Error)
	require.Equal(t, order.ID.String(), raw)

	var activities int64
	require.NoError(t, f.db.Model(&models.WorkOrderActivity{}).
		Where("work_order_id = ?", order.ID).Count(&activities).Error)
	require.Equal(t, int64(1), activities)
}

func TestCreate_NumbersAreScopedPerTenant(t *testing.T) {
	f := newEngine(t)
	otherCtx := tenant.WithID(context.Background(), uuid.New())

	first := f.createOrder(t, nil)

	other, err := f.svc.Create(otherCtx, CreateInput{ClientID: uuid.New(), VehicleID: uuid.New()})
	require.NoError(t, err)

	require.Equal(t, int64(1), first.OrderNumber)
	require.Equal(t, int64(1), other.OrderNumber)
}

func TestFindByID_WrongTenantIsNotFound(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	otherCtx := tenant.WithID(context.Background(), uuid.New())
	_, err := f.svc.FindByID(otherCtx, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateStatus_MechanicGate(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	// Diagnosing needs no mechanic and sets the follow-up reminder.
	diagnosed, err := f.svc.UpdateStatus(f.ctx, order.ID, enums.WorkOrderStatusDiagnosed, nil)
	require.NoError(t, err)
	require.NotNil(t, diagnosed.FollowUpAt)
	require.WithinDuration(t, time.Now().Add(followUpWindow), *diagnosed.FollowUpAt, time.Minute)

	// Committing to the work does.
	_, err = f.svc.UpdateStatus(f.ctx, order.ID, enums.WorkOrderStatusApproved, nil)
	require.Equal(t, ReasonMechanicRequired, StateConflictReason(err))

	mechanicID := uuid.New()
	_, err = f.svc.Update(f.ctx, order.ID, UpdateInput{MechanicID: &mechanicID})
	require.NoError(t, err)

	approved, err := f.svc.UpdateStatus(f.ctx, order.ID, enums.WorkOrderStatusApproved, nil)
	require.NoError(t, err)
	require.Equal(t, enums.WorkOrderStatusApproved, approved.Status)
	require.Nil(t, approved.FollowUpAt, "leaving diagnosed clears the follow-up reminder")
}

func TestUpdateStatus_InvalidTransitionLeavesStateUnchanged(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	_, err := f.svc.UpdateStatus(f.ctx, order.ID, enums.WorkOrderStatusCompleted, nil)
	require.Equal(t, ReasonInvalidTransition, StateConflictReason(err))

	reloaded, err := f.svc.FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.WorkOrderStatusNew, reloaded.Status)
}

func TestUpdateStatus_CompletedGatedOnWorkLogs(t *testing.T) {
	f := newEngine(t)
	mechanicID := uuid.New()
	order := f.createOrder(t, &mechanicID)

	for _, desc := range []string{"Replace brake pads", "Flush coolant"} {
		_, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
			Type:        enums.WorkOrderItemTypeLabor,
			Description: desc,
			Quantity:    1,
			UnitPrice:   decimal.RequireFromString("80"),
		})
		require.NoError(t, err)
	}
	f.walkTo(t, order.ID, enums.WorkOrderStatusInProgress)

	_, err := f.svc.AddWorkLog(f.ctx, order.ID, WorkLogInput{
		MechanicID:  mechanicID,
		Description: "Brake pads replaced",
		HoursWorked: decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(f.ctx, order.ID, enums.WorkOrderStatusCompleted, nil)
	require.Equal(t, ReasonIncompleteWorkLogs, StateConflictReason(err))

	_, err = f.svc.AddWorkLog(f.ctx, order.ID, WorkLogInput{
		MechanicID:  mechanicID,
		Description: "Coolant flushed",
		HoursWorked: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)

	completed, err := f.svc.UpdateStatus(f.ctx, order.ID, enums.WorkOrderStatusCompleted, nil)
	require.NoError(t, err)
	require.Equal(t, enums.WorkOrderStatusCompleted, completed.Status)
}

func TestAddItem_ReservesAcrossWarehousesGreedily(t *testing.T) {
	f := newEngine(t)
	mechanicID := uuid.New()
	order := f.createOrder(t, &mechanicID)

	partID := f.seedPart(t, "Oil filter", "12.50")
	bigWarehouse := uuid.New()
	smallWarehouse := uuid.New()
	// The larger warehouse has only 3 units free; the smaller one has 4.
	f.seedStock(t, bigWarehouse, partID, 10, 7)
	f.seedStock(t, smallWarehouse, partID, 4, 0)

	item, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:     enums.WorkOrderItemTypePart,
		Quantity: 5,
		PartID:   &partID,
	})
	require.NoError(t, err)
	require.Equal(t, "Oil filter", item.Description, "description filled from the catalog")
	require.True(t, item.TotalPrice.Equal(decimal.RequireFromString("62.50")))

	require.Equal(t, 10, f.stockFor(t, bigWarehouse).Reserved)
	require.Equal(t, 2, f.stockFor(t, smallWarehouse).Reserved)

	var movements []models.StockMovement
	require.NoError(t, f.db.Where("reference_id = ?", item.ID).Order("created_at ASC, id ASC").Find(&movements).Error)
	require.Len(t, movements, 2)
	require.Equal(t, bigWarehouse, movements[0].WarehouseID)
	require.Equal(t, 3, movements[0].Quantity)
	require.Equal(t, smallWarehouse, movements[1].WarehouseID)
	require.Equal(t, 2, movements[1].Quantity)
	require.Equal(t, "WO-00001", movements[0].Reference)
}

func TestAddItem_ShortfallReservesWhatIsThere(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	partID := f.seedPart(t, "Spark plug", "4.00")
	warehouseID := uuid.New()
	f.seedStock(t, warehouseID, partID, 2, 0)

	item, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:     enums.WorkOrderItemTypePart,
		Quantity: 6,
		PartID:   &partID,
	})
	require.NoError(t, err, "shortfall must not block the item add")

	require.Equal(t, 2, f.stockFor(t, warehouseID).Reserved)

	reloaded, err := f.svc.FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	require.True(t, reloaded.TotalParts.Equal(decimal.RequireFromString("24")), "totals use the full quantity, not the reserved one")
	_ = item
}

func TestTotals_ApprovalGating(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	_, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:        enums.WorkOrderItemTypeLabor,
		Description: "Diagnostics",
		Quantity:    2,
		UnitPrice:   decimal.RequireFromString("45"),
	})
	require.NoError(t, err)

	partID := f.seedPart(t, "Air filter", "30")
	f.seedStock(t, uuid.New(), partID, 10, 0)
	recommended, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:        enums.WorkOrderItemTypePart,
		Quantity:    1,
		PartID:      &partID,
		Recommended: true,
	})
	require.NoError(t, err)

	reloaded, err := f.svc.FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	require.True(t, reloaded.TotalLabor.Equal(decimal.RequireFromString("90")))
	require.True(t, reloaded.TotalParts.IsZero(), "pending recommended items do not count")
	require.True(t, reloaded.TotalAmount.Equal(reloaded.TotalLabor.Add(reloaded.TotalParts)))

	approvedFlag := true
	_, err = f.svc.UpdateItem(f.ctx, order.ID, recommended.ID, UpdateItemInput{ApprovedByClient: &approvedFlag})
	require.NoError(t, err)

	reloaded, err = f.svc.FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	require.True(t, reloaded.TotalParts.Equal(decimal.RequireFromString("30")))
	require.True(t, reloaded.TotalAmount.Equal(decimal.RequireFromString("120")))

	rejectedFlag := false
	_, err = f.svc.UpdateItem(f.ctx, order.ID, recommended.ID, UpdateItemInput{ApprovedByClient: &rejectedFlag})
	require.NoError(t, err)

	reloaded, err = f.svc.FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	require.True(t, reloaded.TotalParts.IsZero(), "rejected items drop back out of the totals")
}

func TestUpdateItem_ApprovalFlipCyclesReservation(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	partID := f.seedPart(t, "Battery", "110")
	warehouseID := uuid.New()
	f.seedStock(t, warehouseID, partID, 5, 0)

	item, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:        enums.WorkOrderItemTypePart,
		Quantity:    1,
		PartID:      &partID,
		Recommended: true,
	})
	require.NoError(t, err)
	require.Equal(t, 0, f.stockFor(t, warehouseID).Reserved, "recommended items reserve nothing until approved")

	approvedFlag := true
	_, err = f.svc.UpdateItem(f.ctx, order.ID, item.ID, UpdateItemInput{ApprovedByClient: &approvedFlag})
	require.NoError(t, err)
	require.Equal(t, 1, f.stockFor(t, warehouseID).Reserved)

	rejectedFlag := false
	_, err = f.svc.UpdateItem(f.ctx, order.ID, item.ID, UpdateItemInput{ApprovedByClient: &rejectedFlag})
	require.NoError(t, err)
	require.Equal(t, 0, f.stockFor(t, warehouseID).Reserved)
}

func TestUpdateItem_QuantityChangeCyclesReservation(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	partID := f.seedPart(t, "Brake disc", "60")
	warehouseID := uuid.New()
	f.seedStock(t, warehouseID, partID, 10, 0)

	item, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:     enums.WorkOrderItemTypePart,
		Quantity: 2,
		PartID:   &partID,
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.stockFor(t, warehouseID).Reserved)

	newQuantity := 5
	_, err = f.svc.UpdateItem(f.ctx, order.ID, item.ID, UpdateItemInput{Quantity: &newQuantity})
	require.NoError(t, err)
	require.Equal(t, 5, f.stockFor(t, warehouseID).Reserved)

	// The ledger shows the full cycle, not an in-place adjustment.
	var movements []models.StockMovement
	require.NoError(t, f.db.Where("reference_id = ?", item.ID).Order("created_at ASC, id ASC").Find(&movements).Error)
	require.Len(t, movements, 3)
	require.Equal(t, enums.StockMovementTypeReserved, movements[0].Type)
	require.Equal(t, enums.StockMovementTypeUnreserved, movements[1].Type)
	require.Equal(t, enums.StockMovementTypeReserved, movements[2].Type)
	require.Equal(t, 5, movements[2].Quantity)
}

func TestDeleteItem_ReleasesReservation(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	partID := f.seedPart(t, "Wiper blade", "15")
	warehouseID := uuid.New()
	f.seedStock(t, warehouseID, partID, 4, 0)

	item, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:     enums.WorkOrderItemTypePart,
		Quantity: 2,
		PartID:   &partID,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteItem(f.ctx, order.ID, item.ID, nil))
	require.Equal(t, 0, f.stockFor(t, warehouseID).Reserved)

	reloaded, err := f.svc.FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, reloaded.Items)
	require.True(t, reloaded.TotalAmount.IsZero())

	// Movements survive the item as history.
	var count int64
	require.NoError(t, f.db.Model(&models.StockMovement{}).Where("reference_id = ?", item.ID).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestUpdateStatus_CompletedConsumesReservations(t *testing.T) {
	f := newEngine(t)
	mechanicID := uuid.New()
	order := f.createOrder(t, &mechanicID)

	partID := f.seedPart(t, "Timing belt", "85")
	warehouseID := uuid.New()
	f.seedStock(t, warehouseID, partID, 6, 0)

	item, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:     enums.WorkOrderItemTypePart,
		Quantity: 2,
		PartID:   &partID,
	})
	require.NoError(t, err)

	f.walkTo(t, order.ID, enums.WorkOrderStatusInProgress)
	_, err = f.svc.UpdateStatus(f.ctx, order.ID, enums.WorkOrderStatusCompleted, nil)
	require.NoError(t, err)

	stock := f.stockFor(t, warehouseID)
	require.Equal(t, 4, stock.Quantity, "consumption takes the units off the shelf")
	require.Equal(t, 0, stock.Reserved)

	var movements []models.StockMovement
	require.NoError(t, f.db.Where("reference_id = ? AND type = ?", item.ID, enums.StockMovementTypeConsumption).Find(&movements).Error)
	require.Len(t, movements, 1)
	require.Equal(t, 2, movements[0].Quantity)
}

func TestUpdateStatus_CancelledReleasesEverything(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	partID := f.seedPart(t, "Clutch kit", "240")
	warehouseID := uuid.New()
	f.seedStock(t, warehouseID, partID, 3, 0)

	_, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:     enums.WorkOrderItemTypePart,
		Quantity: 2,
		PartID:   &partID,
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.stockFor(t, warehouseID).Reserved)

	cancelled, err := f.svc.UpdateStatus(f.ctx, order.ID, enums.WorkOrderStatusCancelled, nil)
	require.NoError(t, err)
	require.Equal(t, enums.WorkOrderStatusCancelled, cancelled.Status)
	require.Equal(t, 0, f.stockFor(t, warehouseID).Reserved)
}

func TestMechanicAssignments_SplitAndRedistribute(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	firstMechanic := uuid.New()
	item, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:        enums.WorkOrderItemTypeLabor,
		Description: "Engine overhaul",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("900"),
		MechanicID:  &firstMechanic,
	})
	require.NoError(t, err)
	require.Len(t, item.Mechanics, 1)
	require.Equal(t, 100, item.Mechanics[0].ContributionPercent)

	secondMechanic := uuid.New()
	assignments, err := f.svc.AddItemMechanic(f.ctx, order.ID, item.ID, secondMechanic, nil)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.Equal(t, 50, assignments[0].ContributionPercent)
	require.Equal(t, 50, assignments[1].ContributionPercent)

	assignments, err = f.svc.UpdateItemMechanic(f.ctx, order.ID, item.ID, assignments[0].ID, 70, nil)
	require.NoError(t, err)
	require.Equal(t, 70, assignments[0].ContributionPercent)
	require.Equal(t, 30, assignments[1].ContributionPercent)

	remaining, err := f.svc.RemoveItemMechanic(f.ctx, order.ID, item.ID, assignments[0].ID, nil)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, 100, remaining[0].ContributionPercent)
	require.Equal(t, secondMechanic, remaining[0].MechanicID)
}

func TestMechanicAssignments_ThreeWaySumsToHundred(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	item, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:        enums.WorkOrderItemTypeLabor,
		Description: "Transmission rebuild",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("1200"),
	})
	require.NoError(t, err)

	var assignments []models.WorkOrderItemMechanic
	for i := 0; i < 3; i++ {
		assignments, err = f.svc.AddItemMechanic(f.ctx, order.ID, item.ID, uuid.New(), nil)
		require.NoError(t, err)
	}
	require.Len(t, assignments, 3)

	sum := 0
	for _, assignment := range assignments {
		sum += assignment.ContributionPercent
	}
	require.Equal(t, 100, sum)
}

func TestAddItemMechanic_Guards(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	partID := f.seedPart(t, "Cabin filter", "20")
	partItem, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:     enums.WorkOrderItemTypePart,
		Quantity: 1,
		PartID:   &partID,
	})
	require.NoError(t, err)

	_, err = f.svc.AddItemMechanic(f.ctx, order.ID, partItem.ID, uuid.New(), nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	mechanicID := uuid.New()
	laborItem, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:        enums.WorkOrderItemTypeLabor,
		Description: "Alignment",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("70"),
		MechanicID:  &mechanicID,
	})
	require.NoError(t, err)

	_, err = f.svc.AddItemMechanic(f.ctx, order.ID, laborItem.ID, mechanicID, nil)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCreateFromAppointment(t *testing.T) {
	f := newEngine(t)

	partID := f.seedPart(t, "Oil filter", "12.50")
	warehouseID := uuid.New()
	f.seedStock(t, warehouseID, partID, 5, 0)

	mechanicID := uuid.New()
	notes := "Customer reports grinding noise"
	appointment := models.Appointment{
		ID:          uuid.New(),
		TenantID:    f.tenantID,
		ClientID:    uuid.New(),
		VehicleID:   uuid.New(),
		MechanicID:  &mechanicID,
		Status:      enums.AppointmentStatusConfirmed,
		ScheduledAt: time.Now(),
		Notes:       &notes,
	}
	require.NoError(t, f.db.Create(&appointment).Error)
	require.NoError(t, f.db.Create(&models.AppointmentItem{
		ID:            uuid.New(),
		TenantID:      f.tenantID,
		AppointmentID: appointment.ID,
		Type:          enums.WorkOrderItemTypeLabor,
		Description:   "Brake inspection",
		Quantity:      1,
		UnitPrice:     decimal.RequireFromString("50"),
	}).Error)
	require.NoError(t, f.db.Create(&models.AppointmentItem{
		ID:            uuid.New(),
		TenantID:      f.tenantID,
		AppointmentID: appointment.ID,
		Type:          enums.WorkOrderItemTypePart,
		Description:   "Oil filter",
		Quantity:      2,
		UnitPrice:     decimal.RequireFromString("12.50"),
		PartID:        &partID,
	}).Error)

	order, err := f.svc.CreateFromAppointment(f.ctx, appointment.ID, nil)
	require.NoError(t, err)
	require.Equal(t, enums.WorkOrderStatusDiagnosed, order.Status)
	require.NotNil(t, order.FollowUpAt)
	require.Equal(t, &mechanicID, order.MechanicID)

	reloaded, err := f.svc.FindByID(f.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	require.True(t, reloaded.TotalLabor.Equal(decimal.RequireFromString("50")))
	require.True(t, reloaded.TotalParts.Equal(decimal.RequireFromString("25")))
	require.Equal(t, 2, f.stockFor(t, warehouseID).Reserved)

	var reloadedAppointment models.Appointment
	require.NoError(t, f.db.First(&reloadedAppointment, "id = ?", appointment.ID).Error)
	require.Equal(t, enums.AppointmentStatusInService, reloadedAppointment.Status)
}

func TestCreateFromAppointment_ConvertedAppointmentIsRejected(t *testing.T) {
	f := newEngine(t)

	partID := f.seedPart(t, "Oil filter", "12.50")
	warehouseID := uuid.New()
	f.seedStock(t, warehouseID, partID, 5, 0)

	appointment := models.Appointment{
		ID:          uuid.New(),
		TenantID:    f.tenantID,
		ClientID:    uuid.New(),
		VehicleID:   uuid.New(),
		Status:      enums.AppointmentStatusConfirmed,
		ScheduledAt: time.Now(),
	}
	require.NoError(t, f.db.Create(&appointment).Error)
	require.NoError(t, f.db.Create(&models.AppointmentItem{
		ID:            uuid.New(),
		TenantID:      f.tenantID,
		AppointmentID: appointment.ID,
		Type:          enums.WorkOrderItemTypePart,
		Description:   "Oil filter",
		Quantity:      2,
		UnitPrice:     decimal.RequireFromString("12.50"),
		PartID:        &partID,
	}).Error)

	_, err := f.svc.CreateFromAppointment(f.ctx, appointment.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.CreateFromAppointment(f.ctx, appointment.ID, nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	var orders int64
	require.NoError(t, f.db.Model(&models.WorkOrder{}).
		Where("appointment_id = ?", appointment.ID).Count(&orders).Error)
	require.Equal(t, int64(1), orders)
	require.Equal(t, 2, f.stockFor(t, warehouseID).Reserved)

	for _, status := range []enums.AppointmentStatus{
		enums.AppointmentStatusCompleted,
		enums.AppointmentStatusCancelled,
		enums.AppointmentStatusNoShow,
	} {
		require.NoError(t, f.db.Model(&models.Appointment{}).
			Where("id = ?", appointment.ID).Update("status", status).Error)
		_, err = f.svc.CreateFromAppointment(f.ctx, appointment.ID, nil)
		typed = pkgerrors.As(err)
		require.NotNil(t, typed)
		require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	}
}

func TestDelete_OnlyNewOrders(t *testing.T) {
	f := newEngine(t)
	order := f.createOrder(t, nil)

	partID := f.seedPart(t, "Fuel pump", "150")
	warehouseID := uuid.New()
	f.seedStock(t, warehouseID, partID, 3, 0)
	_, err := f.svc.AddItem(f.ctx, order.ID, ItemInput{
		Type:     enums.WorkOrderItemTypePart,
		Quantity: 1,
		PartID:   &partID,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.ctx, order.ID, nil))
	require.Equal(t, 0, f.stockFor(t, warehouseID).Reserved)

	_, err = f.svc.FindByID(f.ctx, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	diagnosed := f.createOrder(t, nil)
	_, err = f.svc.UpdateStatus(f.ctx, diagnosed.ID, enums.WorkOrderStatusDiagnosed, nil)
	require.NoError(t, err)

	err = f.svc.Delete(f.ctx, diagnosed.ID, nil)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestList_FiltersAndPaginates(t *testing.T) {
	f := newEngine(t)

	for i := 0; i < 3; i++ {
		f.createOrder(t, nil)
	}
	cancelledOrder := f.createOrder(t, nil)
	_, err := f.svc.UpdateStatus(f.ctx, cancelledOrder.ID, enums.WorkOrderStatusCancelled, nil)
	require.NoError(t, err)

	all, err := f.svc.List(f.ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all.Orders, 4)
	require.Empty(t, all.NextCursor)

	status := enums.WorkOrderStatusCancelled
	cancelled, err := f.svc.List(f.ctx, ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, cancelled.Orders, 1)
	require.Equal(t, cancelledOrder.ID, cancelled.Orders[0].ID)
}
