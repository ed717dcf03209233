// Package models holds the domain structures for subscribers, expenses and
// price tiers, plus the request types used to accept data from JSON callers
// before it is converted into domain values.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yahyaheni/gymtrack/internal/lib/datemath"
)

// PaymentStatus says whether the current subscription window has been paid.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// Customer is a subscriber. The identifier is opaque and immutable once
// assigned by the persistence side. Subscription status is never stored on
// the record; it is derived from StartDate and DurationMonths on every read.
type Customer struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	StartDate      time.Time       `json:"startDate"`
	DurationMonths int             `json:"duration"`
	Price          decimal.Decimal `json:"price"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus,omitempty"`
}

// EffectivePaymentStatus treats legacy records without a stored payment
// status as paid.
func (c Customer) EffectivePaymentStatus() PaymentStatus {
	if c.PaymentStatus == "" {
		return PaymentPaid
	}
	return c.PaymentStatus
}

// ExpiryDate is the end of the current subscription window.
func (c Customer) ExpiryDate() time.Time {
	return datemath.ExpiryDate(c.StartDate, c.DurationMonths)
}

// Status derives the subscription status for the given day.
func (c Customer) Status(today time.Time) datemath.Status {
	return datemath.SubscriptionStatus(c.StartDate, c.DurationMonths, today)
}

// CustomerRequest carries customer fields from a JSON caller. Dates arrive
// as RFC 3339 strings so they can be validated and parsed explicitly.
type CustomerRequest struct {
	Name          string          `json:"name" validate:"required"`
	Phone         string          `json:"phone" validate:"required"`
	StartDate     string          `json:"startDate" validate:"required"`
	Duration      int             `json:"duration" validate:"required,gt=0"`
	Price         decimal.Decimal `json:"price"`
	PaymentStatus string          `json:"paymentStatus" validate:"omitempty,oneof=paid unpaid"`
}

// ToCustomer converts the request into a domain Customer without an
// identifier. The date must parse and the price must not be negative.
func (r CustomerRequest) ToCustomer() (Customer, error) {
	start, err := time.Parse(time.RFC3339, r.StartDate)
	if err != nil {
		return Customer{}, fmt.Errorf("invalid start date: %w", err)
	}
	if r.Price.IsNegative() {
		return Customer{}, fmt.Errorf("price must not be negative")
	}
	return Customer{
		Name:           r.Name,
		Phone:          r.Phone,
		StartDate:      start,
		DurationMonths: r.Duration,
		Price:          r.Price,
		PaymentStatus:  PaymentStatus(r.PaymentStatus),
	}, nil
}
