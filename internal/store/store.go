// Package store holds the in-memory entity collections that callers see.
// It is the single application-visible source of truth; durable copies live
// behind the storage adapters and only the sync controller writes here.
// Derived values (subscription status, counts, totals) are recomputed on
// every read because they depend on the current day.
package store

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yahyaheni/gymtrack/internal/lib/datemath"
	"github.com/yahyaheni/gymtrack/internal/models"
)

// Store keeps the three collections behind one lock. Reads hand out
// defensive copies so presentation code can never observe a half-applied
// update.
type Store struct {
	mu        sync.RWMutex
	customers []models.Customer
	expenses  []models.Expense
	tiers     []models.Tier
}

func New() *Store {
	return &Store{}
}

// ReplaceCustomers swaps in a new customer collection.
func (s *Store) ReplaceCustomers(customers []models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = append([]models.Customer(nil), customers...)
}

// ReplaceExpenses swaps in a new expense collection.
func (s *Store) ReplaceExpenses(expenses []models.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append([]models.Expense(nil), expenses...)
}

// ReplaceTiers swaps in a new tier collection.
func (s *Store) ReplaceTiers(tiers []models.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers = append([]models.Tier(nil), tiers...)
}

// ReplaceAll swaps in all three collections at once, as after a restore or
// the initial seed.
func (s *Store) ReplaceAll(data models.AppData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = append([]models.Customer(nil), data.Customers...)
	s.expenses = append([]models.Expense(nil), data.Expenses...)
	s.tiers = append([]models.Tier(nil), data.Tiers...)
}

// Customers returns a snapshot copy of the customer collection.
func (s *Store) Customers() []models.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Customer(nil), s.customers...)
}

// Expenses returns a snapshot copy of the expense collection.
func (s *Store) Expenses() []models.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Expense(nil), s.expenses...)
}

// Tiers returns a snapshot copy of the tier collection.
func (s *Store) Tiers() []models.Tier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Tier(nil), s.tiers...)
}

// Snapshot returns all three collections as one AppData copy.
func (s *Store) Snapshot() models.AppData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.AppData{
		Customers: append([]models.Customer{}, s.customers...),
		Expenses:  append([]models.Expense{}, s.expenses...),
		Tiers:     append([]models.Tier{}, s.tiers...),
	}
}

// CustomerByID looks a customer up by identifier.
func (s *Store) CustomerByID(id string) (models.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.ID == id {
			return c, true
		}
	}
	return models.Customer{}, false
}

// ExpenseByID looks an expense up by identifier.
func (s *Store) ExpenseByID(id string) (models.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, true
		}
	}
	return models.Expense{}, false
}

// TierPrice returns the current list price for the given duration, or zero
// when the price list has no tier for it.
func (s *Store) TierPrice(durationMonths int) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tiers {
		if t.DurationMonths == durationMonths {
			return t.Price
		}
	}
	return decimal.Zero
}

// ExpiringSoonCount counts customers whose subscription expires within the
// next seven days.
func (s *Store) ExpiringSoonCount(today time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.customers {
		if c.Status(today) == datemath.StatusExpiringSoon {
			count++
		}
	}
	return count
}

// Summary is the dashboard view: income actually collected, income billed,
// expenses, and the counts that need operator attention.
type Summary struct {
	CollectedIncome decimal.Decimal `json:"collectedIncome"`
	TotalIncome     decimal.Decimal `json:"totalIncome"`
	TotalExpenses   decimal.Decimal `json:"totalExpenses"`
	NetProfit       decimal.Decimal `json:"netProfit"`
	ExpiringSoon    int             `json:"expiringSoon"`
	Unpaid          int             `json:"unpaid"`
}

// Summary computes the dashboard totals for the given day. Collected income
// only counts customers whose current window is paid; net profit subtracts
// all expenses from collected income.
func (s *Store) Summary(today time.Time) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		CollectedIncome: decimal.Zero,
		TotalIncome:     decimal.Zero,
		TotalExpenses:   decimal.Zero,
	}
	for _, c := range s.customers {
		sum.TotalIncome = sum.TotalIncome.Add(c.Price)
		if c.EffectivePaymentStatus() == models.PaymentPaid {
			sum.CollectedIncome = sum.CollectedIncome.Add(c.Price)
		} else {
			sum.Unpaid++
		}
		if c.Status(today) == datemath.StatusExpiringSoon {
			sum.ExpiringSoon++
		}
	}
	for _, e := range s.expenses {
		sum.TotalExpenses = sum.TotalExpenses.Add(e.Amount)
	}
	sum.NetProfit = sum.CollectedIncome.Sub(sum.TotalExpenses)
	return sum
}

// TierCount is one slice of the subscriber distribution across the price
// list.
type TierCount struct {
	DurationMonths int `json:"duration"`
	Count          int `json:"count"`
}

// TierDistribution counts subscribers per tier duration, skipping tiers
// nobody is on.
func (s *Store) TierDistribution() []TierCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []TierCount
	for _, t := range s.tiers {
		count := 0
		for _, c := range s.customers {
			if c.DurationMonths == t.DurationMonths {
				count++
			}
		}
		if count > 0 {
			result = append(result, TierCount{DurationMonths: t.DurationMonths, Count: count})
		}
	}
	return result
}

// Report is the date-range view over both collections.
type Report struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	CustomerCount   int             `json:"customerCount"`
	ExpenseCount    int             `json:"expenseCount"`
	CollectedIncome decimal.Decimal `json:"collectedIncome"`
	TotalIncome     decimal.Decimal `json:"totalIncome"`
	TotalExpenses   decimal.Decimal `json:"totalExpenses"`
	NetProfit       decimal.Decimal `json:"netProfit"`
}

// Report totals customers whose start date and expenses whose date fall in
// [from, to], inclusive on both ends.
func (s *Store) Report(from, to time.Time) Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep := Report{
		From:            from,
		To:              to,
		CollectedIncome: decimal.Zero,
		TotalIncome:     decimal.Zero,
		TotalExpenses:   decimal.Zero,
	}
	inRange := func(t time.Time) bool {
		return !t.Before(from) && !t.After(to)
	}
	for _, c := range s.customers {
		if !inRange(c.StartDate) {
			continue
		}
		rep.CustomerCount++
		rep.TotalIncome = rep.TotalIncome.Add(c.Price)
		if c.EffectivePaymentStatus() == models.PaymentPaid {
			rep.CollectedIncome = rep.CollectedIncome.Add(c.Price)
		}
	}
	for _, e := range s.expenses {
		if !inRange(e.Date) {
			continue
		}
		rep.ExpenseCount++
		rep.TotalExpenses = rep.TotalExpenses.Add(e.Amount)
	}
	rep.NetProfit = rep.CollectedIncome.Sub(rep.TotalExpenses)
	return rep
}
