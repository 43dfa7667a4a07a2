package stock_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/printlog/printlog-backend/internal/modules/stock"
)

func testItem(amount float64) *stock.Item {
	return &stock.Item{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		Type:          stock.TypeFilament,
		Name:          "PLA Black",
		Unit:          "g",
		UnitPrice:     decimal.NewFromFloat(0.05),
		CapacityTotal: 1000,
		CurrentAmount: amount,
		Version:       1,
	}
}

func TestPlanAdjustment_ConsumptionClampsAtZero(t *testing.T) {
	item := testItem(70)

	newAmount, entry := stock.PlanAdjustment(item, stock.Adjustment{
		Kind:     stock.LedgerConsumption,
		Quantity: 150,
	})

	assert.Equal(t, 0.0, newAmount, "balance must never go negative")
	assert.Equal(t, 150.0, entry.AmountDelta, "entry records the reported quantity")
	assert.Equal(t, stock.LedgerConsumption, entry.Kind)
	assert.Equal(t, 70.0, item.CurrentAmount, "planning must not mutate the item")
}

func TestPlanAdjustment_Consumption(t *testing.T) {
	item := testItem(100)

	newAmount, entry := stock.PlanAdjustment(item, stock.Adjustment{
		Kind:     stock.LedgerConsumption,
		Quantity: 30,
	})

	assert.Equal(t, 70.0, newAmount)
	assert.Equal(t, 30.0, entry.AmountDelta)
	assert.NotNil(t, entry.ItemID)
	assert.Equal(t, item.ID, *entry.ItemID)
}

func TestPlanAdjustment_NegativeQuantityTreatedAsZero(t *testing.T) {
	item := testItem(100)

	newAmount, entry := stock.PlanAdjustment(item, stock.Adjustment{
		Kind:     stock.LedgerConsumption,
		Quantity: -25,
	})

	assert.Equal(t, 100.0, newAmount)
	assert.Equal(t, 0.0, entry.AmountDelta)
}

func TestPlanAdjustment_RestockHasNoUpperClamp(t *testing.T) {
	item := testItem(900)

	newAmount, entry := stock.PlanAdjustment(item, stock.Adjustment{
		Kind:     stock.LedgerRestock,
		Quantity: 200,
	})

	// 1100 > CapacityTotal is allowed: capacity is nominal.
	assert.Equal(t, 1100.0, newAmount)
	assert.Equal(t, 200.0, entry.AmountDelta)
}

func TestPlanAdjustment_ManualSetRecordsAuditNote(t *testing.T) {
	item := testItem(500)

	newAmount, entry := stock.PlanAdjustment(item, stock.Adjustment{
		Kind:     stock.LedgerManualAdjustment,
		Quantity: 320,
	})

	assert.Equal(t, 320.0, newAmount)
	assert.Equal(t, -180.0, entry.AmountDelta)
	assert.Contains(t, entry.Note, "500.00 -> 320.00")
}

func TestPlanAdjustment_ManualSetTrivialChangeKeepsNote(t *testing.T) {
	item := testItem(500)

	_, entry := stock.PlanAdjustment(item, stock.Adjustment{
		Kind:     stock.LedgerManualAdjustment,
		Quantity: 500.4,
		Note:     "recount",
	})

	assert.Equal(t, "recount", entry.Note, "sub-unit changes get no audit suffix")
}

func TestPlanAdjustment_CostSnapshotFromUnitPrice(t *testing.T) {
	item := testItem(100)

	_, entry := stock.PlanAdjustment(item, stock.Adjustment{
		Kind:     stock.LedgerConsumption,
		Quantity: 30,
	})

	assert.True(t, entry.CostSnapshot.Equal(decimal.NewFromFloat(1.5)),
		"30 units at 0.05 each, got %s", entry.CostSnapshot)
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   json.Number
		want float64
	}{
		{"plain number", json.Number("42.5"), 42.5},
		{"integer", json.Number("7"), 7},
		{"empty", json.Number(""), 0},
		{"garbage", json.Number("12kg"), 0},
		{"negative passes through", json.Number("-3"), -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stock.CoerceQuantity(tt.in))
		})
	}
}
