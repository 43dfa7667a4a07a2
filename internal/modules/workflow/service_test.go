package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printlog/printlog-backend/internal/modules/project"
	"github.com/printlog/printlog-backend/internal/modules/stock"
	"github.com/printlog/printlog-backend/internal/modules/workflow"
)

// fakeBatchRepo captures what the service hands to the transactional layer.
type fakeBatchRepo struct {
	approveErr error
	batches    []*workflow.ApproveBudgetBatch

	failureEntries []*stock.LedgerEntry
	failureDebits  []*workflow.StockDebit
	dropDebit      bool // simulate a debit matching no live row
}

func (f *fakeBatchRepo) ApproveBudget(_ context.Context, batch *workflow.ApproveBudgetBatch) error {
	if f.approveErr != nil {
		return f.approveErr
	}
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeBatchRepo) RecordFailure(_ context.Context, _ uuid.UUID, entry *stock.LedgerEntry, debit *workflow.StockDebit, _ *uuid.UUID) (bool, error) {
	f.failureEntries = append(f.failureEntries, entry)
	f.failureDebits = append(f.failureDebits, debit)
	return debit != nil && !f.dropDebit, nil
}

type fakeProjectRepo struct {
	projects map[uuid.UUID]*project.Project
}

func (f *fakeProjectRepo) Create(_ context.Context, p *project.Project) error {
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjectRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*project.Project, error) {
	p, ok := f.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, project.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectRepo) List(_ context.Context, _ uuid.UUID, _ project.Status) ([]*project.Project, error) {
	return nil, nil
}

func (f *fakeProjectRepo) Update(_ context.Context, p *project.Project) error {
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjectRepo) UpdateStatus(_ context.Context, p *project.Project) error {
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjectRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	delete(f.projects, id)
	return nil
}

type fakeStockRepo struct {
	items map[uuid.UUID]*stock.Item
}

func (f *fakeStockRepo) Create(_ context.Context, item *stock.Item, _ *stock.LedgerEntry) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeStockRepo) GetByID(_ context.Context, ownerID, id uuid.UUID, includeDeleted bool) (*stock.Item, error) {
	item, ok := f.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, stock.ErrNotFound
	}
	if item.DeletedAt != nil && !includeDeleted {
		return nil, stock.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeStockRepo) List(_ context.Context, _ uuid.UUID, _ stock.ListFilter) ([]*stock.Item, error) {
	return nil, nil
}

func (f *fakeStockRepo) UpdateDetails(_ context.Context, item *stock.Item, _ int64) (*stock.Item, error) {
	return item, nil
}

func (f *fakeStockRepo) ApplyAdjustment(_ context.Context, _, _ uuid.UUID, _ float64, _ int64, _ *stock.LedgerEntry) (*stock.Item, error) {
	return nil, errors.New("not used by the workflow service")
}

func (f *fakeStockRepo) SoftDelete(_ context.Context, _, _ uuid.UUID) error { return nil }
func (f *fakeStockRepo) Restore(_ context.Context, _, _ uuid.UUID) error   { return nil }
func (f *fakeStockRepo) AppendLedger(_ context.Context, _ *stock.LedgerEntry) error {
	return nil
}
func (f *fakeStockRepo) ListLedger(_ context.Context, _, _ uuid.UUID) ([]*stock.LedgerEntry, error) {
	return nil, nil
}

type fixture struct {
	svc      workflow.Service
	repo     *fakeBatchRepo
	projects *fakeProjectRepo
	stock    *fakeStockRepo
	owner    uuid.UUID
}

func newFixture() *fixture {
	repo := &fakeBatchRepo{}
	projects := &fakeProjectRepo{projects: make(map[uuid.UUID]*project.Project)}
	stockRepo := &fakeStockRepo{items: make(map[uuid.UUID]*stock.Item)}
	return &fixture{
		svc:      workflow.NewService(repo, projects, stockRepo),
		repo:     repo,
		projects: projects,
		stock:    stockRepo,
		owner:    uuid.New(),
	}
}

func (f *fixture) addProject(status project.Status) *project.Project {
	p := &project.Project{
		ID:      uuid.New(),
		OwnerID: f.owner,
		Name:    "Lamp Shade",
		Status:  status,
		Payload: json.RawMessage(`{"status":"` + string(status) + `","parts":[]}`),
	}
	f.projects.projects[p.ID] = p
	return p
}

func (f *fixture) addItem(amount float64) *stock.Item {
	item := &stock.Item{
		ID:            uuid.New(),
		OwnerID:       f.owner,
		Type:          stock.TypeFilament,
		Name:          "PLA Black",
		UnitPrice:     decimal.NewFromFloat(0.05),
		CapacityTotal: 1000,
		CurrentAmount: amount,
		Version:       2,
	}
	f.stock.items[item.ID] = item
	return item
}

func TestApproveBudget_MixedCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.addProject(project.StatusDraft)
	item := f.addItem(100)

	res, err := f.svc.ApproveBudget(ctx, f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID: p.ID.String(),
		Items: []workflow.ConsumedItem{
			{ItemID: workflow.ManualItemID, Quantity: "10"},
			{ItemID: item.ID.String(), Quantity: "25"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, res.DebitedItems, "manual line is not tracked stock")
	assert.Equal(t, 1, res.SkippedItems)
	assert.Equal(t, project.StatusApproved, res.Project.Status)

	require.Len(t, f.repo.batches, 1)
	batch := f.repo.batches[0]
	require.Len(t, batch.Debits, 1)
	debit := batch.Debits[0]
	assert.Equal(t, item.ID, debit.ItemID)
	assert.Equal(t, 75.0, debit.NewAmount)
	assert.Equal(t, item.Version, debit.ExpectedVersion, "debit conditioned on the version read")
	assert.Equal(t, stock.LedgerConsumption, debit.Entry.Kind)
	assert.Equal(t, 25.0, debit.Entry.AmountDelta)
	require.NotNil(t, debit.Entry.ProjectID)
	assert.Equal(t, p.ID, *debit.Entry.ProjectID)
	assert.Contains(t, debit.Entry.Note, "Lamp Shade")
}

func TestApproveBudget_SyncsPayloadStatus(t *testing.T) {
	f := newFixture()
	p := f.addProject(project.StatusDraft)

	res, err := f.svc.ApproveBudget(context.Background(), f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID: p.ID.String(),
	})

	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Project.Payload, &doc))
	assert.Equal(t, "APPROVED", doc["status"])
}

func TestApproveBudget_SkipsUnusableLines(t *testing.T) {
	f := newFixture()
	p := f.addProject(project.StatusDraft)
	item := f.addItem(100)

	res, err := f.svc.ApproveBudget(context.Background(), f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID: p.ID.String(),
		Items: []workflow.ConsumedItem{
			{ItemID: "", Quantity: "5"},
			{ItemID: "not-a-uuid", Quantity: "5"},
			{ItemID: item.ID.String(), Quantity: "0"},
			{ItemID: item.ID.String(), Quantity: "-4"},
			{ItemID: item.ID.String(), Quantity: "oops"},
			{ItemID: uuid.New().String(), Quantity: "5"}, // no such item
		},
	})

	require.NoError(t, err, "bogus lines must not block the approval")
	assert.Equal(t, 0, res.DebitedItems)
	assert.Equal(t, 6, res.SkippedItems)
	require.Len(t, f.repo.batches, 1)
	assert.Empty(t, f.repo.batches[0].Debits)
}

func TestApproveBudget_DuplicateLinesMergeIntoOneDebit(t *testing.T) {
	f := newFixture()
	p := f.addProject(project.StatusDraft)
	item := f.addItem(100)

	res, err := f.svc.ApproveBudget(context.Background(), f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID: p.ID.String(),
		Items: []workflow.ConsumedItem{
			{ItemID: item.ID.String(), Quantity: "10"},
			{ItemID: item.ID.String(), Quantity: "15"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, res.DebitedItems)
	assert.Equal(t, 0, res.SkippedItems)
	batch := f.repo.batches[0]
	require.Len(t, batch.Debits, 1,
		"one conditioned write per item; a second would hit a stale version inside the batch")
	assert.Equal(t, 75.0, batch.Debits[0].NewAmount)
	assert.Equal(t, 25.0, batch.Debits[0].Entry.AmountDelta)
}

func TestApproveBudget_NegativePrintHoursIgnored(t *testing.T) {
	f := newFixture()
	p := f.addProject(project.StatusDraft)
	printerID := uuid.New()

	_, err := f.svc.ApproveBudget(context.Background(), f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID:  p.ID.String(),
		PrinterID:  printerID.String(),
		PrintHours: "-3",
	})

	require.NoError(t, err)
	assert.Equal(t, 0.0, f.repo.batches[0].PrintHours, "hour counters only grow")
}

func TestApproveBudget_CompletedProjectRejected(t *testing.T) {
	f := newFixture()
	p := f.addProject(project.StatusCompleted)
	item := f.addItem(100)

	_, err := f.svc.ApproveBudget(context.Background(), f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID: p.ID.String(),
		Items:     []workflow.ConsumedItem{{ItemID: item.ID.String(), Quantity: "25"}},
	})

	var ite *project.InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, project.StatusCompleted, ite.From)
	assert.Equal(t, project.StatusApproved, ite.To)
	assert.Empty(t, f.repo.batches, "nothing reaches the store")
}

func TestApproveBudget_ProjectNotFound(t *testing.T) {
	f := newFixture()
	f.addItem(100)

	_, err := f.svc.ApproveBudget(context.Background(), f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID: uuid.New().String(),
	})

	assert.ErrorIs(t, err, project.ErrNotFound)
	assert.Empty(t, f.repo.batches)
}

func TestApproveBudget_PrinterSentinel(t *testing.T) {
	f := newFixture()
	p := f.addProject(project.StatusDraft)

	_, err := f.svc.ApproveBudget(context.Background(), f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID:  p.ID.String(),
		PrinterID:  workflow.NonePrinterID,
		PrintHours: "6.5",
	})
	require.NoError(t, err)
	assert.Nil(t, f.repo.batches[0].PrinterID, "the none sentinel means no machine")

	printerID := uuid.New()
	p2 := f.addProject(project.StatusDraft)
	_, err = f.svc.ApproveBudget(context.Background(), f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID:  p2.ID.String(),
		PrinterID:  printerID.String(),
		PrintHours: "6.5",
	})
	require.NoError(t, err)
	batch := f.repo.batches[1]
	require.NotNil(t, batch.PrinterID)
	assert.Equal(t, printerID, *batch.PrinterID)
	assert.Equal(t, 6.5, batch.PrintHours)
}

func TestApproveBudget_StoreFailurePropagates(t *testing.T) {
	f := newFixture()
	p := f.addProject(project.StatusDraft)
	f.repo.approveErr = stock.ErrVersionConflict

	res, err := f.svc.ApproveBudget(context.Background(), f.owner.String(), workflow.ApproveBudgetRequest{
		ProjectID: p.ID.String(),
	})

	assert.ErrorIs(t, err, stock.ErrVersionConflict)
	assert.Nil(t, res)
}

func TestRecordFailure_UntrackedMaterial(t *testing.T) {
	f := newFixture()

	res, err := f.svc.RecordFailure(context.Background(), f.owner.String(), workflow.RecordFailureRequest{
		WeightWasted: "40",
		CostWasted:   "2.10",
		Note:         "warped first layer",
	})

	require.NoError(t, err)
	assert.False(t, res.BalanceDebited)
	assert.Equal(t, stock.LedgerFailureWriteoff, res.Entry.Kind)
	assert.Nil(t, res.Entry.ItemID, "no tracked item to point at")
	assert.Equal(t, 40.0, res.Entry.AmountDelta)
	assert.True(t, res.Entry.CostSnapshot.Equal(decimal.RequireFromString("2.10")))

	require.Len(t, f.repo.failureDebits, 1)
	assert.Nil(t, f.repo.failureDebits[0])
}

func TestRecordFailure_TrackedItemDebitClampsAtZero(t *testing.T) {
	f := newFixture()
	item := f.addItem(30)

	res, err := f.svc.RecordFailure(context.Background(), f.owner.String(), workflow.RecordFailureRequest{
		ItemID:       item.ID.String(),
		WeightWasted: "45",
	})

	require.NoError(t, err)
	assert.True(t, res.BalanceDebited)
	require.NotNil(t, res.Entry.ItemID)
	assert.Equal(t, item.ID, *res.Entry.ItemID)
	assert.Equal(t, 45.0, res.Entry.AmountDelta, "history records the full waste")

	require.Len(t, f.repo.failureDebits, 1)
	debit := f.repo.failureDebits[0]
	require.NotNil(t, debit)
	assert.Equal(t, 0.0, debit.NewAmount)
	assert.Equal(t, item.Version, debit.ExpectedVersion)
}

func TestRecordFailure_NegativeWeightDoesNotCreditTheSpool(t *testing.T) {
	f := newFixture()
	item := f.addItem(100)

	res, err := f.svc.RecordFailure(context.Background(), f.owner.String(), workflow.RecordFailureRequest{
		ItemID:       item.ID.String(),
		WeightWasted: "-5",
	})

	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Entry.AmountDelta, "write-offs record a non-negative removal")
	require.NotNil(t, res.Entry.ItemID)
	assert.False(t, res.BalanceDebited)
	require.Len(t, f.repo.failureDebits, 1)
	assert.Nil(t, f.repo.failureDebits[0], "no balance write for a non-positive weight")
}

func TestRecordFailure_DeletedItemKeepsHistoryReference(t *testing.T) {
	f := newFixture()
	item := f.addItem(500)
	now := time.Now()
	item.DeletedAt = &now

	res, err := f.svc.RecordFailure(context.Background(), f.owner.String(), workflow.RecordFailureRequest{
		ItemID:       item.ID.String(),
		WeightWasted: "40",
	})

	require.NoError(t, err)
	assert.False(t, res.BalanceDebited, "deleted items take no balance change")
	require.NotNil(t, res.Entry.ItemID, "the history row still points at the item")
	assert.Equal(t, item.ID, *res.Entry.ItemID)
	require.Len(t, f.repo.failureDebits, 1)
	assert.Nil(t, f.repo.failureDebits[0])
}

func TestRecordFailure_ManualSentinelAndUnknownItem(t *testing.T) {
	f := newFixture()

	res, err := f.svc.RecordFailure(context.Background(), f.owner.String(), workflow.RecordFailureRequest{
		ItemID:       workflow.ManualItemID,
		WeightWasted: "10",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Entry.ItemID)

	res, err = f.svc.RecordFailure(context.Background(), f.owner.String(), workflow.RecordFailureRequest{
		ItemID:       uuid.New().String(),
		WeightWasted: "10",
	})
	require.NoError(t, err, "an unknown id still records the write-off")
	assert.Nil(t, res.Entry.ItemID)
	assert.False(t, res.BalanceDebited)
}

func TestRecordFailure_PrinterSentinel(t *testing.T) {
	f := newFixture()

	res, err := f.svc.RecordFailure(context.Background(), f.owner.String(), workflow.RecordFailureRequest{
		PrinterID:    workflow.NonePrinterID,
		WeightWasted: "5",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Entry.PrinterID)

	printerID := uuid.New()
	res, err = f.svc.RecordFailure(context.Background(), f.owner.String(), workflow.RecordFailureRequest{
		PrinterID:    printerID.String(),
		WeightWasted: "5",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Entry.PrinterID)
	assert.Equal(t, printerID, *res.Entry.PrinterID)
}
