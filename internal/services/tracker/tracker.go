// Package tracker contains the sync controller: the single writer that
// routes every lifecycle operation through the remote store or the local
// cache, keeps the in-memory entity store authoritative for callers, and
// emits one outcome message per operation.
//
// The session mode is decided exactly once, by a startup probe: reachable
// means OnlineMode for the whole session, anything else means OfflineMode.
// The mode is never re-probed mid-session.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yahyaheni/gymtrack/internal/lib/sl"
	"github.com/yahyaheni/gymtrack/internal/metrics"
	"github.com/yahyaheni/gymtrack/internal/models"
	"github.com/yahyaheni/gymtrack/internal/notify"
	"github.com/yahyaheni/gymtrack/internal/storage/local"
	"github.com/yahyaheni/gymtrack/internal/store"
)

var (
	// ErrNotFound means the operation referenced an identifier that is not
	// in the entity store.
	ErrNotFound = errors.New("record not found")
	// ErrValidation means the request itself is malformed; nothing was
	// mutated.
	ErrValidation = errors.New("validation failed")
)

// RemoteStore is the remote adapter contract the controller needs.
type RemoteStore interface {
	Probe(ctx context.Context) bool

	ListCustomers(ctx context.Context) ([]models.Customer, error)
	InsertCustomer(ctx context.Context, c models.Customer) (models.Customer, error)
	UpdateCustomer(ctx context.Context, c models.Customer) error
	UpdateCustomerPayment(ctx context.Context, id string, status models.PaymentStatus) error
	DeleteCustomer(ctx context.Context, id string) error

	ListExpenses(ctx context.Context) ([]models.Expense, error)
	InsertExpense(ctx context.Context, e models.Expense) (models.Expense, error)
	UpdateExpense(ctx context.Context, e models.Expense) error
	DeleteExpense(ctx context.Context, id string) error

	ListTiers(ctx context.Context) ([]models.Tier, error)
	ReplaceTiers(ctx context.Context, tiers []models.Tier) error

	ReplaceCustomers(ctx context.Context, customers []models.Customer) error
	ReplaceExpenses(ctx context.Context, expenses []models.Expense) error
}

// LocalCache is the durable on-device slot store the controller mirrors
// into and seeds from when offline.
type LocalCache interface {
	Read(slot string, dest any) (bool, error)
	Write(slot string, value any) error
}

// Service is the sync controller.
type Service struct {
	mu      sync.Mutex
	remote  RemoteStore
	local   LocalCache
	store   *store.Store
	sink    notify.Sink
	metrics *metrics.Metrics
	log     *slog.Logger
	online  bool
	now     func() time.Time
}

// Option tweaks Service construction.
type Option func(*Service)

// WithClock overrides the time source; renewal decisions depend on "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New probes the remote store once and seeds the entity store: from the
// remote collections when reachable, from the local cache otherwise. Any
// failure while fetching the remote collections also drops the session to
// offline mode.
func New(ctx context.Context, remote RemoteStore, localCache LocalCache,
	st *store.Store, sink notify.Sink, m *metrics.Metrics, log *slog.Logger,
	opts ...Option) *Service {

	s := &Service{
		remote:  remote,
		local:   localCache,
		store:   st,
		sink:    sink,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if remote != nil && remote.Probe(ctx) {
		if err := s.seedFromRemote(ctx); err == nil {
			s.online = true
			log.Info("session mode selected", slog.String("mode", "online"))
			return s
		}
		log.Warn("remote reachable but seeding failed, falling back to local cache")
	}

	s.seedFromLocal()
	log.Info("session mode selected", slog.String("mode", "offline"))
	return s
}

// Online reports the session mode picked at startup.
func (s *Service) Online() bool {
	return s.online
}

// Store exposes the entity store for read-only presentation use.
func (s *Service) Store() *store.Store {
	return s.store
}

func (s *Service) seedFromRemote(ctx context.Context) error {
	customers, err := s.remote.ListCustomers(ctx)
	if err != nil {
		return err
	}
	expenses, err := s.remote.ListExpenses(ctx)
	if err != nil {
		return err
	}
	tiers, err := s.remote.ListTiers(ctx)
	if err != nil {
		return err
	}
	if len(tiers) == 0 {
		tiers = models.DefaultTiers()
	}
	s.store.ReplaceAll(models.AppData{Customers: customers, Expenses: expenses, Tiers: tiers})
	return nil
}

func (s *Service) seedFromLocal() {
	var customers []models.Customer
	s.readSlot(local.SlotCustomers, &customers)

	var expenses []models.Expense
	s.readSlot(local.SlotExpenses, &expenses)

	var tiers []models.Tier
	if !s.readSlot(local.SlotTiers, &tiers) || len(tiers) == 0 {
		tiers = models.DefaultTiers()
	}

	s.store.ReplaceAll(models.AppData{Customers: customers, Expenses: expenses, Tiers: tiers})
}

// readSlot reads one cache slot; a corrupt or unreadable slot falls back to
// the zero value of dest rather than failing the session.
func (s *Service) readSlot(slot string, dest any) bool {
	found, err := s.local.Read(slot, dest)
	if err != nil {
		s.log.Warn("local cache slot unreadable, using default",
			slog.String("slot", slot), sl.Err(err))
		return false
	}
	return found
}

// mirror backs the collection up into the local cache. Mirroring is
// unconditional on every successful mutation so a restore is always
// possible, but a mirror failure never fails the operation itself.
func (s *Service) mirror(slot string, value any) {
	if err := s.local.Write(slot, value); err != nil {
		s.log.Warn("failed to mirror collection to local cache",
			slog.String("slot", slot), sl.Err(err))
	}
}

func (s *Service) observe(entity, operation string, err error) {
	if s.metrics != nil {
		s.metrics.Observe(entity, operation, err)
	}
}

// ===== CUSTOMERS =====

// AddCustomer appends a new subscriber. Online, the identifier comes from
// the remote insert; offline it is generated locally. The entity store only
// changes on success, so no partial insert is ever visible.
func (s *Service) AddCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	const op = "tracker.AddCustomer"
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.online {
		inserted, err := s.remote.InsertCustomer(ctx, c)
		if err != nil {
			s.observe("customer", "add", err)
			s.sink.Error("failed to add subscriber")
			s.log.Error("failed to add subscriber", sl.Err(err))
			return models.Customer{}, fmt.Errorf("%s: %w", op, err)
		}
		c = inserted
	} else {
		c.ID = uuid.NewString()
	}

	s.store.ReplaceCustomers(append(s.store.Customers(), c))
	s.mirror(local.SlotCustomers, s.store.Customers())
	s.observe("customer", "add", nil)
	s.sink.Success("subscriber added")
	return c, nil
}

// UpdateCustomer replaces the stored record with the same identifier.
func (s *Service) UpdateCustomer(ctx context.Context, c models.Customer) error {
	const op = "tracker.UpdateCustomer"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.CustomerByID(c.ID); !ok {
		s.observe("customer", "update", ErrNotFound)
		s.sink.Error("subscriber not found")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if err := s.commitCustomer(ctx, c); err != nil {
		s.observe("customer", "update", err)
		s.sink.Error("failed to update subscriber")
		s.log.Error("failed to update subscriber", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.observe("customer", "update", nil)
	s.sink.Success("subscriber updated")
	return nil
}

// commitCustomer pushes the record remotely when online and swaps it into
// the entity store by identifier, then mirrors the collection. Shared by
// update, renew and mark-paid, which are all edits of one record.
func (s *Service) commitCustomer(ctx context.Context, c models.Customer) error {
	if s.online {
		if err := s.remote.UpdateCustomer(ctx, c); err != nil {
			return err
		}
	}
	customers := s.store.Customers()
	for i := range customers {
		if customers[i].ID == c.ID {
			customers[i] = c
			break
		}
	}
	s.store.ReplaceCustomers(customers)
	s.mirror(local.SlotCustomers, customers)
	return nil
}

// DeleteCustomer removes the record; the store only changes after the
// remote call (if any) succeeded.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	const op = "tracker.DeleteCustomer"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.CustomerByID(id); !ok {
		s.observe("customer", "delete", ErrNotFound)
		s.sink.Error("subscriber not found")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if s.online {
		if err := s.remote.DeleteCustomer(ctx, id); err != nil {
			s.observe("customer", "delete", err)
			s.sink.Error("failed to delete subscriber")
			s.log.Error("failed to delete subscriber", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	customers := s.store.Customers()
	kept := customers[:0]
	for _, c := range customers {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.store.ReplaceCustomers(kept)
	s.mirror(local.SlotCustomers, kept)
	s.observe("customer", "delete", nil)
	s.sink.Success("subscriber deleted")
	return nil
}

// RenewCustomer extends the subscription window. A lapsed subscription
// restarts at "now" (the gap is not backfilled); a live one extends
// back-to-back from its current expiry date. The price is re-read from the
// current price list and the payment status is forced to unpaid: a renewal
// always requires a fresh payment confirmation.
func (s *Service) RenewCustomer(ctx context.Context, id string) (models.Customer, error) {
	const op = "tracker.RenewCustomer"
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.store.CustomerByID(id)
	if !ok {
		s.observe("customer", "renew", ErrNotFound)
		s.sink.Error("subscriber not found")
		return models.Customer{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	now := s.now()
	expiry := c.ExpiryDate()
	if expiry.Before(now) {
		c.StartDate = now
	} else {
		c.StartDate = expiry
	}
	c.Price = s.store.TierPrice(c.DurationMonths)
	c.PaymentStatus = models.PaymentUnpaid

	if err := s.commitCustomer(ctx, c); err != nil {
		s.observe("customer", "renew", err)
		s.sink.Error("failed to renew subscription")
		s.log.Error("failed to renew subscription", sl.Err(err))
		return models.Customer{}, fmt.Errorf("%s: %w", op, err)
	}

	s.observe("customer", "renew", nil)
	s.sink.Success("subscription renewed, awaiting payment")
	return c, nil
}

// MarkPaid sets the payment status to paid and changes nothing else.
// Marking an already-paid subscriber paid again is a no-op success.
func (s *Service) MarkPaid(ctx context.Context, id string) (models.Customer, error) {
	const op = "tracker.MarkPaid"
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.store.CustomerByID(id)
	if !ok {
		s.observe("customer", "markPaid", ErrNotFound)
		s.sink.Error("subscriber not found")
		return models.Customer{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if c.EffectivePaymentStatus() == models.PaymentPaid {
		s.observe("customer", "markPaid", nil)
		s.sink.Success("payment recorded")
		return c, nil
	}

	c.PaymentStatus = models.PaymentPaid
	if s.online {
		if err := s.remote.UpdateCustomerPayment(ctx, id, models.PaymentPaid); err != nil {
			s.observe("customer", "markPaid", err)
			s.sink.Error("failed to record payment")
			s.log.Error("failed to record payment", sl.Err(err))
			return models.Customer{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	customers := s.store.Customers()
	for i := range customers {
		if customers[i].ID == id {
			customers[i] = c
			break
		}
	}
	s.store.ReplaceCustomers(customers)
	s.mirror(local.SlotCustomers, customers)
	s.observe("customer", "markPaid", nil)
	s.sink.Success("payment recorded")
	return c, nil
}

// ===== EXPENSES =====

// AddExpense appends a new expense, mirroring the customer add semantics.
func (s *Service) AddExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	const op = "tracker.AddExpense"
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.online {
		inserted, err := s.remote.InsertExpense(ctx, e)
		if err != nil {
			s.observe("expense", "add", err)
			s.sink.Error("failed to add expense")
			s.log.Error("failed to add expense", sl.Err(err))
			return models.Expense{}, fmt.Errorf("%s: %w", op, err)
		}
		e = inserted
	} else {
		e.ID = uuid.NewString()
	}

	s.store.ReplaceExpenses(append(s.store.Expenses(), e))
	s.mirror(local.SlotExpenses, s.store.Expenses())
	s.observe("expense", "add", nil)
	s.sink.Success("expense added")
	return e, nil
}

// UpdateExpense replaces the stored record with the same identifier.
func (s *Service) UpdateExpense(ctx context.Context, e models.Expense) error {
	const op = "tracker.UpdateExpense"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.ExpenseByID(e.ID); !ok {
		s.observe("expense", "update", ErrNotFound)
		s.sink.Error("expense not found")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if s.online {
		if err := s.remote.UpdateExpense(ctx, e); err != nil {
			s.observe("expense", "update", err)
			s.sink.Error("failed to update expense")
			s.log.Error("failed to update expense", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	expenses := s.store.Expenses()
	for i := range expenses {
		if expenses[i].ID == e.ID {
			expenses[i] = e
			break
		}
	}
	s.store.ReplaceExpenses(expenses)
	s.mirror(local.SlotExpenses, expenses)
	s.observe("expense", "update", nil)
	s.sink.Success("expense updated")
	return nil
}

// DeleteExpense removes the record after the adapter call succeeds.
func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	const op = "tracker.DeleteExpense"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.ExpenseByID(id); !ok {
		s.observe("expense", "delete", ErrNotFound)
		s.sink.Error("expense not found")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if s.online {
		if err := s.remote.DeleteExpense(ctx, id); err != nil {
			s.observe("expense", "delete", err)
			s.sink.Error("failed to delete expense")
			s.log.Error("failed to delete expense", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	expenses := s.store.Expenses()
	kept := expenses[:0]
	for _, e := range expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.store.ReplaceExpenses(kept)
	s.mirror(local.SlotExpenses, kept)
	s.observe("expense", "delete", nil)
	s.sink.Success("expense deleted")
	return nil
}

// ===== TIERS =====

// ReplaceTiers swaps the whole price list: the prior set is discarded, not
// merged. Durations must be unique since they key the list.
func (s *Service) ReplaceTiers(ctx context.Context, tiers []models.Tier) error {
	const op = "tracker.ReplaceTiers"
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int]bool, len(tiers))
	for _, t := range tiers {
		if t.DurationMonths <= 0 {
			s.observe("tier", "replace", ErrValidation)
			s.sink.Error("price list rejected")
			return fmt.Errorf("%s: %w: duration must be positive", op, ErrValidation)
		}
		if seen[t.DurationMonths] {
			s.observe("tier", "replace", ErrValidation)
			s.sink.Error("price list rejected")
			return fmt.Errorf("%s: %w: duplicate duration %d", op, ErrValidation, t.DurationMonths)
		}
		seen[t.DurationMonths] = true
	}

	if s.online {
		if err := s.remote.ReplaceTiers(ctx, tiers); err != nil {
			s.observe("tier", "replace", err)
			s.sink.Error("failed to update price list")
			s.log.Error("failed to update price list", sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.store.ReplaceTiers(tiers)
	s.mirror(local.SlotTiers, tiers)
	s.observe("tier", "replace", nil)
	s.sink.Success("price list updated")
	return nil
}

// ===== BACKUP / RESTORE =====

// Export snapshots the three collections synchronously from the entity
// store; no adapter round-trip is involved.
func (s *Service) Export() models.AppData {
	return s.store.Snapshot()
}

// Restore replaces the entire application state from a backup document.
// The payload must have all three collections as arrays; otherwise it is
// rejected wholesale with no mutation. Online, the remote collections are
// destructively replaced first. Each collection replaces transactionally,
// but the three replaces together are not atomic: a failure partway leaves
// the remote store inconsistent with the entity store, which is reported as
// a restore failure and left for the operator to retry. The entity store
// itself only changes after all three remote replaces succeeded.
func (s *Service) Restore(ctx context.Context, data models.AppData) error {
	const op = "tracker.Restore"
	s.mu.Lock()
	defer s.mu.Unlock()

	if data.Customers == nil || data.Expenses == nil || data.Tiers == nil {
		s.observe("backup", "restore", models.ErrInvalidAppData)
		s.sink.Error("restore failed: backup file is invalid or corrupt")
		return fmt.Errorf("%s: %w", op, models.ErrInvalidAppData)
	}

	if s.online {
		if err := s.remote.ReplaceCustomers(ctx, data.Customers); err != nil {
			return s.restoreFailed(op, err)
		}
		if err := s.remote.ReplaceExpenses(ctx, data.Expenses); err != nil {
			return s.restoreFailed(op, err)
		}
		if err := s.remote.ReplaceTiers(ctx, data.Tiers); err != nil {
			return s.restoreFailed(op, err)
		}
	}

	s.store.ReplaceAll(data)
	s.mirror(local.SlotCustomers, data.Customers)
	s.mirror(local.SlotExpenses, data.Expenses)
	s.mirror(local.SlotTiers, data.Tiers)
	s.observe("backup", "restore", nil)
	s.sink.Success("data restored")
	return nil
}

func (s *Service) restoreFailed(op string, err error) error {
	s.observe("backup", "restore", err)
	s.sink.Error("restore failed")
	s.log.Error("restore failed", sl.Err(err))
	return fmt.Errorf("%s: %w", op, err)
}
