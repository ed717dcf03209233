// Package remote is the PostgreSQL adapter: list/insert/update/delete per
// entity plus the destructive whole-collection replaces used by restore.
// Every failure is classified as either ErrUnavailable (could not reach the
// store) or ErrRejected (the store refused the write) so the sync controller
// can tell a connectivity problem from a real rejection.
package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Registers the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yahyaheni/gymtrack/internal/models"
)

var (
	// ErrUnavailable means the remote store could not be reached.
	ErrUnavailable = errors.New("remote store unavailable")
	// ErrRejected means the remote store received the call and refused it.
	ErrRejected = errors.New("remote store rejected the operation")
)

// Remote wraps a PostgreSQL connection pool.
type Remote struct {
	db *sql.DB
}

// New opens the connection pool. Opening is lazy: reachability is only
// established by Probe, so construction succeeds even when the store is
// down.
func New(connString string) (*Remote, error) {
	const op = "storage.remote.New"

	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Remote{db: db}, nil
}

// Probe pings the store and bootstraps the schema. It is called once at
// startup to pick the session mode; a true result does not guarantee later
// calls succeed, so every call still classifies its own failure.
func (r *Remote) Probe(ctx context.Context) bool {
	if err := r.db.PingContext(ctx); err != nil {
		return false
	}
	return r.ensureSchema(ctx) == nil
}

// Close closes the connection pool.
func (r *Remote) Close() error {
	return r.db.Close()
}

func (r *Remote) ensureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS customers (
		    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		    name TEXT NOT NULL,
		    phone TEXT NOT NULL,
		    start_date TIMESTAMPTZ NOT NULL,
		    duration INT NOT NULL CHECK (duration > 0),
		    price NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
		    payment_status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
		    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		    date TIMESTAMPTZ NOT NULL,
		    type TEXT NOT NULL,
		    amount NUMERIC(10, 2) NOT NULL CHECK (amount >= 0),
		    notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS tiers (
		    duration INT PRIMARY KEY,
		    price NUMERIC(10, 2) NOT NULL CHECK (price >= 0)
		)`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// classify converts a driver error into the adapter's two-way taxonomy.
// A *pgconn.PgError means the server processed and refused the statement;
// everything else (dial, timeout, broken pool) is a connectivity failure.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w: %s", op, ErrRejected, pgErr.Message)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

func paymentStatusValue(s models.PaymentStatus) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(s), Valid: true}
}

// ===== CUSTOMERS =====

// ListCustomers returns every customer row.
func (r *Remote) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	const op = "storage.remote.ListCustomers"

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, phone, start_date, duration, price, payment_status
		FROM customers
		ORDER BY start_date, id`)
	if err != nil {
		return nil, classify(op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []models.Customer
	for rows.Next() {
		var c models.Customer
		var status sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.StartDate,
			&c.DurationMonths, &c.Price, &status); err != nil {
			return nil, classify(op, err)
		}
		if status.Valid {
			c.PaymentStatus = models.PaymentStatus(status.String)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return result, nil
}

// InsertCustomer inserts a customer and returns the row with its
// store-assigned identifier.
func (r *Remote) InsertCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	const op = "storage.remote.InsertCustomer"

	query := `INSERT INTO customers (name, phone, start_date, duration, price, payment_status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Phone, c.StartDate, c.DurationMonths, c.Price,
		paymentStatusValue(c.PaymentStatus)).Scan(&c.ID); err != nil {
		return models.Customer{}, classify(op, err)
	}
	return c, nil
}

// UpdateCustomer replaces every mutable field of the row keyed by the
// customer's identifier.
func (r *Remote) UpdateCustomer(ctx context.Context, c models.Customer) error {
	const op = "storage.remote.UpdateCustomer"

	query := `UPDATE customers
			  SET name = $1, phone = $2, start_date = $3, duration = $4,
			      price = $5, payment_status = $6
			  WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query,
		c.Name, c.Phone, c.StartDate, c.DurationMonths, c.Price,
		paymentStatusValue(c.PaymentStatus), c.ID)
	if err != nil {
		return classify(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w: no customer with id %s", op, ErrRejected, c.ID)
	}
	return nil
}

// UpdateCustomerPayment updates only the payment status column.
func (r *Remote) UpdateCustomerPayment(ctx context.Context, id string, status models.PaymentStatus) error {
	const op = "storage.remote.UpdateCustomerPayment"

	res, err := r.db.ExecContext(ctx,
		`UPDATE customers SET payment_status = $1 WHERE id = $2`,
		paymentStatusValue(status), id)
	if err != nil {
		return classify(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w: no customer with id %s", op, ErrRejected, id)
	}
	return nil
}

// DeleteCustomer removes the row keyed by id.
func (r *Remote) DeleteCustomer(ctx context.Context, id string) error {
	const op = "storage.remote.DeleteCustomer"

	if _, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id); err != nil {
		return classify(op, err)
	}
	return nil
}

// ===== EXPENSES =====

// ListExpenses returns every expense row.
func (r *Remote) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	const op = "storage.remote.ListExpenses"

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, type, amount, notes
		FROM expenses
		ORDER BY date, id`)
	if err != nil {
		return nil, classify(op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Type, &e.Amount, &e.Notes); err != nil {
			return nil, classify(op, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return result, nil
}

// InsertExpense inserts an expense and returns the row with its
// store-assigned identifier.
func (r *Remote) InsertExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	const op = "storage.remote.InsertExpense"

	query := `INSERT INTO expenses (date, type, amount, notes)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		e.Date, e.Type, e.Amount, e.Notes).Scan(&e.ID); err != nil {
		return models.Expense{}, classify(op, err)
	}
	return e, nil
}

// UpdateExpense replaces every mutable field of the row keyed by the
// expense's identifier.
func (r *Remote) UpdateExpense(ctx context.Context, e models.Expense) error {
	const op = "storage.remote.UpdateExpense"

	query := `UPDATE expenses
			  SET date = $1, type = $2, amount = $3, notes = $4
			  WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, e.Date, e.Type, e.Amount, e.Notes, e.ID)
	if err != nil {
		return classify(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w: no expense with id %s", op, ErrRejected, e.ID)
	}
	return nil
}

// DeleteExpense removes the row keyed by id.
func (r *Remote) DeleteExpense(ctx context.Context, id string) error {
	const op = "storage.remote.DeleteExpense"

	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id); err != nil {
		return classify(op, err)
	}
	return nil
}

// ===== TIERS =====

// ListTiers returns the price list ordered by duration.
func (r *Remote) ListTiers(ctx context.Context) ([]models.Tier, error) {
	const op = "storage.remote.ListTiers"

	rows, err := r.db.QueryContext(ctx, `SELECT duration, price FROM tiers ORDER BY duration`)
	if err != nil {
		return nil, classify(op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []models.Tier
	for rows.Next() {
		var t models.Tier
		if err := rows.Scan(&t.DurationMonths, &t.Price); err != nil {
			return nil, classify(op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return result, nil
}

// ReplaceTiers discards the whole price list and writes the new one in a
// single transaction. Tiers are a short fully-edited-together list, so the
// adapter never patches them row by row.
func (r *Remote) ReplaceTiers(ctx context.Context, tiers []models.Tier) error {
	const op = "storage.remote.ReplaceTiers"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tiers`); err != nil {
		return classify(op, err)
	}
	for _, t := range tiers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tiers (duration, price) VALUES ($1, $2)`,
			t.DurationMonths, t.Price); err != nil {
			return classify(op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

// ===== RESTORE REPLACES =====

// ReplaceCustomers deletes every customer row and inserts the given ones,
// keeping their identifiers. Used by restore; transactional within this
// collection only.
func (r *Remote) ReplaceCustomers(ctx context.Context, customers []models.Customer) error {
	const op = "storage.remote.ReplaceCustomers"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
		return classify(op, err)
	}
	for _, c := range customers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, name, phone, start_date, duration, price, payment_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, c.Name, c.Phone, c.StartDate, c.DurationMonths, c.Price,
			paymentStatusValue(c.PaymentStatus)); err != nil {
			return classify(op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

// ReplaceExpenses deletes every expense row and inserts the given ones,
// keeping their identifiers.
func (r *Remote) ReplaceExpenses(ctx context.Context, expenses []models.Expense) error {
	const op = "storage.remote.ReplaceExpenses"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return classify(op, err)
	}
	for _, e := range expenses {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, date, type, amount, notes)
			VALUES ($1, $2, $3, $4, $5)`,
			e.ID, e.Date, e.Type, e.Amount, e.Notes); err != nil {
			return classify(op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}
