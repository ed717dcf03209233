package tracker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yahyaheni/gymtrack/internal/models"
	"github.com/yahyaheni/gymtrack/internal/storage/local"
	"github.com/yahyaheni/gymtrack/internal/storage/remote"
	"github.com/yahyaheni/gymtrack/internal/store"
)

type RemoteMock struct{ mock.Mock }

func (m *RemoteMock) Probe(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}
func (m *RemoteMock) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Customer), args.Error(1)
}
func (m *RemoteMock) InsertCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(models.Customer), args.Error(1)
}
func (m *RemoteMock) UpdateCustomer(ctx context.Context, c models.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *RemoteMock) UpdateCustomerPayment(ctx context.Context, id string, status models.PaymentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *RemoteMock) DeleteCustomer(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *RemoteMock) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Expense), args.Error(1)
}
func (m *RemoteMock) InsertExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(models.Expense), args.Error(1)
}
func (m *RemoteMock) UpdateExpense(ctx context.Context, e models.Expense) error {
	return m.Called(ctx, e).Error(0)
}
func (m *RemoteMock) DeleteExpense(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *RemoteMock) ListTiers(ctx context.Context) ([]models.Tier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tier), args.Error(1)
}
func (m *RemoteMock) ReplaceTiers(ctx context.Context, tiers []models.Tier) error {
	return m.Called(ctx, tiers).Error(0)
}
func (m *RemoteMock) ReplaceCustomers(ctx context.Context, customers []models.Customer) error {
	return m.Called(ctx, customers).Error(0)
}
func (m *RemoteMock) ReplaceExpenses(ctx context.Context, expenses []models.Expense) error {
	return m.Called(ctx, expenses).Error(0)
}

// fakeCache is an in-memory stand-in for the sqlite slot store.
type fakeCache struct {
	slots  map[string][]byte
	writes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{slots: make(map[string][]byte)}
}

func (f *fakeCache) Read(slot string, dest any) (bool, error) {
	payload, ok := f.slots[slot]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, local.ErrCorrupt
	}
	return true, nil
}

func (f *fakeCache) Write(slot string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.slots[slot] = payload
	f.writes++
	return nil
}

func (f *fakeCache) seed(t *testing.T, slot string, value any) {
	t.Helper()
	payload, err := json.Marshal(value)
	require.NoError(t, err)
	f.slots[slot] = payload
}

// recordingSink captures outcome messages.
type recordingSink struct {
	successes []string
	errs      []string
}

func (r *recordingSink) Success(msg string) { r.successes = append(r.successes, msg) }
func (r *recordingSink) Error(msg string)   { r.errs = append(r.errs, msg) }
func (r *recordingSink) Info(msg string)    { r.errs = append(r.errs, msg) }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func sampleCustomer() models.Customer {
	return models.Customer{
		ID:             "c1",
		Name:           "Sami",
		Phone:          "555",
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationMonths: 1,
		Price:          decimal.NewFromInt(5),
		PaymentStatus:  models.PaymentPaid,
	}
}

func newOnlineService(t *testing.T, r *RemoteMock, cache *fakeCache, sink *recordingSink, opts ...Option) *Service {
	t.Helper()
	r.On("Probe", mock.Anything).Return(true).Once()
	s := New(context.Background(), r, cache, store.New(), sink, nil, newNoopLogger(), opts...)
	require.True(t, s.Online())
	return s
}

func newOfflineService(t *testing.T, cache *fakeCache, sink *recordingSink, opts ...Option) *Service {
	t.Helper()
	r := &RemoteMock{}
	r.On("Probe", mock.Anything).Return(false).Once()
	s := New(context.Background(), r, cache, store.New(), sink, nil, newNoopLogger(), opts...)
	require.False(t, s.Online())
	return s
}

func TestNew_OnlineSeedsFromRemote(t *testing.T) {
	r := &RemoteMock{}
	r.On("Probe", mock.Anything).Return(true).Once()
	r.On("ListCustomers", mock.Anything).Return([]models.Customer{sampleCustomer()}, nil).Once()
	r.On("ListExpenses", mock.Anything).Return([]models.Expense{}, nil).Once()
	r.On("ListTiers", mock.Anything).Return(models.DefaultTiers(), nil).Once()

	s := New(context.Background(), r, newFakeCache(), store.New(), &recordingSink{}, nil, newNoopLogger())

	assert.True(t, s.Online())
	assert.Len(t, s.Store().Customers(), 1)
	assert.Len(t, s.Store().Tiers(), 4)
	r.AssertExpectations(t)
}

func TestNew_EmptyRemoteTiersFallToDefaults(t *testing.T) {
	r := &RemoteMock{}
	r.On("Probe", mock.Anything).Return(true).Once()
	r.On("ListCustomers", mock.Anything).Return([]models.Customer{}, nil).Once()
	r.On("ListExpenses", mock.Anything).Return([]models.Expense{}, nil).Once()
	r.On("ListTiers", mock.Anything).Return([]models.Tier{}, nil).Once()

	s := New(context.Background(), r, newFakeCache(), store.New(), &recordingSink{}, nil, newNoopLogger())

	assert.Len(t, s.Store().Tiers(), 4)
}

func TestNew_SeedFailureFallsBackToLocal(t *testing.T) {
	r := &RemoteMock{}
	r.On("Probe", mock.Anything).Return(true).Once()
	r.On("ListCustomers", mock.Anything).Return(nil, remote.ErrUnavailable).Once()

	cache := newFakeCache()
	cache.seed(t, local.SlotCustomers, []models.Customer{sampleCustomer()})

	s := New(context.Background(), r, cache, store.New(), &recordingSink{}, nil, newNoopLogger())

	assert.False(t, s.Online())
	assert.Len(t, s.Store().Customers(), 1)
	assert.Len(t, s.Store().Tiers(), 4) // tiers slot absent, defaults used
}

func TestNew_OfflineSeedsFromCache(t *testing.T) {
	cache := newFakeCache()
	cache.seed(t, local.SlotCustomers, []models.Customer{sampleCustomer()})
	cache.seed(t, local.SlotTiers, []models.Tier{{DurationMonths: 1, Price: decimal.NewFromInt(9)}})

	s := newOfflineService(t, cache, &recordingSink{})

	assert.Len(t, s.Store().Customers(), 1)
	require.Len(t, s.Store().Tiers(), 1)
	assert.True(t, s.Store().TierPrice(1).Equal(decimal.NewFromInt(9)))
}

func TestNew_CorruptCacheSlotFallsToDefault(t *testing.T) {
	cache := newFakeCache()
	cache.slots[local.SlotCustomers] = []byte("{not json")

	s := newOfflineService(t, cache, &recordingSink{})

	assert.Empty(t, s.Store().Customers())
	assert.Len(t, s.Store().Tiers(), 4)
}

func TestAddCustomer_Online(t *testing.T) {
	r := &RemoteMock{}
	r.On("ListCustomers", mock.Anything).Return([]models.Customer{}, nil).Once()
	r.On("ListExpenses", mock.Anything).Return([]models.Expense{}, nil).Once()
	r.On("ListTiers", mock.Anything).Return(models.DefaultTiers(), nil).Once()

	cache := newFakeCache()
	sink := &recordingSink{}
	s := newOnlineService(t, r, cache, sink)

	input := sampleCustomer()
	input.ID = ""
	withID := input
	withID.ID = "srv-42"
	r.On("InsertCustomer", mock.Anything, input).Return(withID, nil).Once()

	got, err := s.AddCustomer(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "srv-42", got.ID)
	assert.Len(t, s.Store().Customers(), 1)

	var mirrored []models.Customer
	found, err := cache.Read(local.SlotCustomers, &mirrored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, mirrored, 1)

	assert.Equal(t, []string{"subscriber added"}, sink.successes)
	r.AssertExpectations(t)
}

func TestAddCustomer_OnlineFailureLeavesStoreUntouched(t *testing.T) {
	r := &RemoteMock{}
	r.On("ListCustomers", mock.Anything).Return([]models.Customer{}, nil).Once()
	r.On("ListExpenses", mock.Anything).Return([]models.Expense{}, nil).Once()
	r.On("ListTiers", mock.Anything).Return(models.DefaultTiers(), nil).Once()

	cache := newFakeCache()
	sink := &recordingSink{}
	s := newOnlineService(t, r, cache, sink)

	r.On("InsertCustomer", mock.Anything, mock.Anything).
		Return(models.Customer{}, remote.ErrRejected).Once()

	_, err := s.AddCustomer(context.Background(), sampleCustomer())
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrRejected)
	assert.Empty(t, s.Store().Customers())
	assert.Zero(t, cache.writes)
	assert.Equal(t, []string{"failed to add subscriber"}, sink.errs)
}

func TestAddCustomer_OfflineAssignsLocalID(t *testing.T) {
	cache := newFakeCache()
	s := newOfflineService(t, cache, &recordingSink{})

	input := sampleCustomer()
	input.ID = ""
	got, err := s.AddCustomer(context.Background(), input)
	require.NoError(t, err)

	_, parseErr := uuid.Parse(got.ID)
	assert.NoError(t, parseErr)
	assert.Len(t, s.Store().Customers(), 1)
	assert.Positive(t, cache.writes)
}

func TestRenewCustomer_FutureExpiryExtendsBackToBack(t *testing.T) {
	cache := newFakeCache()
	cache.seed(t, local.SlotCustomers, []models.Customer{sampleCustomer()})
	cache.seed(t, local.SlotTiers, []models.Tier{{DurationMonths: 1, Price: decimal.NewFromInt(8)}})

	now := time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC)
	s := newOfflineService(t, cache, &recordingSink{}, WithClock(func() time.Time { return now }))

	got, err := s.RenewCustomer(context.Background(), "c1")
	require.NoError(t, err)

	// old expiry 2024-02-01 is in the future, so the new window starts there
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got.StartDate)
	assert.Equal(t, 1, got.DurationMonths)
	assert.Equal(t, models.PaymentUnpaid, got.PaymentStatus)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(8)), "price re-read from tier list, got %s", got.Price)

	stored, ok := s.Store().CustomerByID("c1")
	require.True(t, ok)
	assert.Equal(t, got, stored)
}

func TestRenewCustomer_LapsedRestartsNow(t *testing.T) {
	cache := newFakeCache()
	cache.seed(t, local.SlotCustomers, []models.Customer{sampleCustomer()})
	cache.seed(t, local.SlotTiers, models.DefaultTiers())

	now := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	s := newOfflineService(t, cache, &recordingSink{}, WithClock(func() time.Time { return now }))

	got, err := s.RenewCustomer(context.Background(), "c1")
	require.NoError(t, err)

	// old expiry 2024-02-01 already passed: restart at now, no backfill
	assert.Equal(t, now, got.StartDate)
	assert.Equal(t, models.PaymentUnpaid, got.PaymentStatus)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(5)))
}

func TestRenewCustomer_MissingTierMeansZeroPrice(t *testing.T) {
	c := sampleCustomer()
	c.DurationMonths = 2 // no tier with this duration
	cache := newFakeCache()
	cache.seed(t, local.SlotCustomers, []models.Customer{c})
	cache.seed(t, local.SlotTiers, models.DefaultTiers())

	now := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	s := newOfflineService(t, cache, &recordingSink{}, WithClock(func() time.Time { return now }))

	got, err := s.RenewCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, got.Price.IsZero())
}

func TestRenewCustomer_OnlineCommitsThroughRemote(t *testing.T) {
	r := &RemoteMock{}
	r.On("ListCustomers", mock.Anything).Return([]models.Customer{sampleCustomer()}, nil).Once()
	r.On("ListExpenses", mock.Anything).Return([]models.Expense{}, nil).Once()
	r.On("ListTiers", mock.Anything).Return(models.DefaultTiers(), nil).Once()

	now := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	s := newOnlineService(t, r, newFakeCache(), &recordingSink{}, WithClock(func() time.Time { return now }))

	r.On("UpdateCustomer", mock.Anything, mock.MatchedBy(func(c models.Customer) bool {
		return c.ID == "c1" &&
			c.PaymentStatus == models.PaymentUnpaid &&
			c.StartDate.Equal(now)
	})).Return(nil).Once()

	_, err := s.RenewCustomer(context.Background(), "c1")
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestMarkPaid_IsIdempotent(t *testing.T) {
	c := sampleCustomer()
	c.PaymentStatus = models.PaymentUnpaid
	cache := newFakeCache()
	cache.seed(t, local.SlotCustomers, []models.Customer{c})

	sink := &recordingSink{}
	s := newOfflineService(t, cache, sink)

	first, err := s.MarkPaid(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, first.PaymentStatus)

	second, err := s.MarkPaid(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, sink.successes, 2) // both report success
}

func TestMarkPaid_OnlineSendsPartialUpdateOnce(t *testing.T) {
	c := sampleCustomer()
	c.PaymentStatus = models.PaymentUnpaid

	r := &RemoteMock{}
	r.On("ListCustomers", mock.Anything).Return([]models.Customer{c}, nil).Once()
	r.On("ListExpenses", mock.Anything).Return([]models.Expense{}, nil).Once()
	r.On("ListTiers", mock.Anything).Return(models.DefaultTiers(), nil).Once()

	s := newOnlineService(t, r, newFakeCache(), &recordingSink{})

	r.On("UpdateCustomerPayment", mock.Anything, "c1", models.PaymentPaid).Return(nil).Once()

	_, err := s.MarkPaid(context.Background(), "c1")
	require.NoError(t, err)

	// already paid: no second remote call
	_, err = s.MarkPaid(context.Background(), "c1")
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestUpdateCustomer_NotFound(t *testing.T) {
	s := newOfflineService(t, newFakeCache(), &recordingSink{})

	err := s.UpdateCustomer(context.Background(), sampleCustomer())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCustomer_OnlineFailureLeavesStore(t *testing.T) {
	r := &RemoteMock{}
	r.On("ListCustomers", mock.Anything).Return([]models.Customer{sampleCustomer()}, nil).Once()
	r.On("ListExpenses", mock.Anything).Return([]models.Expense{}, nil).Once()
	r.On("ListTiers", mock.Anything).Return(models.DefaultTiers(), nil).Once()

	s := newOnlineService(t, r, newFakeCache(), &recordingSink{})

	r.On("DeleteCustomer", mock.Anything, "c1").Return(remote.ErrUnavailable).Once()

	err := s.DeleteCustomer(context.Background(), "c1")
	require.Error(t, err)
	assert.Len(t, s.Store().Customers(), 1)
}

func TestReplaceTiers_RejectsDuplicateDurations(t *testing.T) {
	sink := &recordingSink{}
	s := newOfflineService(t, newFakeCache(), sink)

	err := s.ReplaceTiers(context.Background(), []models.Tier{
		{DurationMonths: 1, Price: decimal.NewFromInt(5)},
		{DurationMonths: 1, Price: decimal.NewFromInt(6)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, s.Store().Tiers(), 4) // defaults untouched
}

func TestReplaceTiers_Offline(t *testing.T) {
	cache := newFakeCache()
	s := newOfflineService(t, cache, &recordingSink{})

	newList := []models.Tier{{DurationMonths: 1, Price: decimal.NewFromInt(6)}}
	require.NoError(t, s.ReplaceTiers(context.Background(), newList))

	assert.Len(t, s.Store().Tiers(), 1)
	var mirrored []models.Tier
	found, err := cache.Read(local.SlotTiers, &mirrored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, mirrored, 1)
}

func TestRestore_RejectsNilCollections(t *testing.T) {
	cache := newFakeCache()
	cache.seed(t, local.SlotCustomers, []models.Customer{sampleCustomer()})
	sink := &recordingSink{}
	s := newOfflineService(t, cache, sink)

	err := s.Restore(context.Background(), models.AppData{
		Customers: []models.Customer{},
		Expenses:  []models.Expense{},
		Tiers:     nil,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidAppData)
	assert.Len(t, s.Store().Customers(), 1) // zero mutation
}

func TestRestore_ExportRoundTripIsNoOp(t *testing.T) {
	cache := newFakeCache()
	cache.seed(t, local.SlotCustomers, []models.Customer{sampleCustomer()})
	cache.seed(t, local.SlotExpenses, []models.Expense{{ID: "e1", Type: "rent", Amount: decimal.NewFromInt(20)}})
	s := newOfflineService(t, cache, &recordingSink{})

	before := s.Export()
	require.NoError(t, s.Restore(context.Background(), before))
	after := s.Export()

	assert.Equal(t, before, after)
}

func TestRestore_OnlinePartialFailureLeavesStore(t *testing.T) {
	r := &RemoteMock{}
	r.On("ListCustomers", mock.Anything).Return([]models.Customer{sampleCustomer()}, nil).Once()
	r.On("ListExpenses", mock.Anything).Return([]models.Expense{}, nil).Once()
	r.On("ListTiers", mock.Anything).Return(models.DefaultTiers(), nil).Once()

	sink := &recordingSink{}
	s := newOnlineService(t, r, newFakeCache(), sink)

	data := models.AppData{
		Customers: []models.Customer{},
		Expenses:  []models.Expense{},
		Tiers:     models.DefaultTiers(),
	}
	r.On("ReplaceCustomers", mock.Anything, data.Customers).Return(nil).Once()
	r.On("ReplaceExpenses", mock.Anything, data.Expenses).Return(remote.ErrUnavailable).Once()

	err := s.Restore(context.Background(), data)
	require.Error(t, err)
	assert.Len(t, s.Store().Customers(), 1) // entity store untouched
	assert.Equal(t, []string{"restore failed"}, sink.errs)
	r.AssertExpectations(t)
}

func TestRestore_OnlineSuccessReplacesEverything(t *testing.T) {
	r := &RemoteMock{}
	r.On("ListCustomers", mock.Anything).Return([]models.Customer{}, nil).Once()
	r.On("ListExpenses", mock.Anything).Return([]models.Expense{}, nil).Once()
	r.On("ListTiers", mock.Anything).Return(models.DefaultTiers(), nil).Once()

	cache := newFakeCache()
	s := newOnlineService(t, r, cache, &recordingSink{})

	data := models.AppData{
		Customers: []models.Customer{sampleCustomer()},
		Expenses:  []models.Expense{},
		Tiers:     []models.Tier{{DurationMonths: 1, Price: decimal.NewFromInt(5)}},
	}
	r.On("ReplaceCustomers", mock.Anything, data.Customers).Return(nil).Once()
	r.On("ReplaceExpenses", mock.Anything, data.Expenses).Return(nil).Once()
	r.On("ReplaceTiers", mock.Anything, data.Tiers).Return(nil).Once()

	require.NoError(t, s.Restore(context.Background(), data))
	assert.Len(t, s.Store().Customers(), 1)
	assert.Len(t, s.Store().Tiers(), 1)

	var mirrored []models.Customer
	found, err := cache.Read(local.SlotCustomers, &mirrored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, mirrored, 1)
	r.AssertExpectations(t)
}

func TestExpenseLifecycle_Offline(t *testing.T) {
	cache := newFakeCache()
	sink := &recordingSink{}
	s := newOfflineService(t, cache, sink)

	added, err := s.AddExpense(context.Background(), models.Expense{
		Date:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Type:   "rent",
		Amount: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	added.Amount = decimal.NewFromInt(250)
	require.NoError(t, s.UpdateExpense(context.Background(), added))

	got, ok := s.Store().ExpenseByID(added.ID)
	require.True(t, ok)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(250)))

	require.NoError(t, s.DeleteExpense(context.Background(), added.ID))
	assert.Empty(t, s.Store().Expenses())

	assert.Equal(t, []string{"expense added", "expense updated", "expense deleted"}, sink.successes)
}
