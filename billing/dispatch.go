package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"gorm.io/gorm"

	"urbanease/database"
)

// Engine generates monthly bills: one per (resident x requested type) for a
// billing month. Duplicate prevention is delegated to the store's compound
// unique index on (user_id, billing_month, type): the engine inserts first
// and treats an index conflict as "already dispatched" instead of running a
// racy lookup-then-create.
type Engine struct {
	DB *gorm.DB

	// VerifiedOnly restricts dispatch to residents whose address has been
	// confirmed by an admin. Unverified residents' address data is
	// provisional, so this is the default.
	VerifiedOnly bool

	// Injection points for tests.
	Now    func() time.Time
	Rand   *rand.Rand
	Amount func(billType string) float64
}

// Result reports the outcome of one dispatch run. Failed counts iterations
// that errored for reasons other than an existing bill; they never abort
// the batch.
type Result struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// NewEngine returns an Engine with the default amount policy and clock.
func NewEngine(db *gorm.DB, verifiedOnly bool) *Engine {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Engine{
		DB:           db,
		VerifiedOnly: verifiedOnly,
		Now:          time.Now,
		Rand:         rng,
		Amount:       func(billType string) float64 { return DefaultAmountFor(rng, billType) },
	}
}

// Dispatch creates bills for every targeted resident and requested type for
// the given billing month. Residents that already hold a bill for a
// (month, type) pair are skipped. On context cancellation no further writes
// are issued; already-committed bills stay (re-running dispatch or the
// reconciliation sweeps is the compensating action).
func (e *Engine) Dispatch(ctx context.Context, types []string, billingMonth string, dueDate time.Time) (Result, error) {
	var result Result

	billingMonth = strings.TrimSpace(billingMonth)
	if billingMonth == "" {
		return result, &ValidationError{Field: "billing_month", Reason: "must not be empty"}
	}
	if dueDate.IsZero() {
		return result, &ValidationError{Field: "due_date", Reason: "must not be empty"}
	}

	normalized := make([]string, 0, len(types))
	seen := map[string]bool{}
	for _, t := range types {
		t = NormalizeType(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	if len(normalized) == 0 {
		return result, &ValidationError{Field: "types", Reason: "at least one bill type is required"}
	}

	query := e.DB.Where("role = ?", database.RoleResident)
	if e.VerifiedOnly {
		query = query.Where("is_verified = ?", true)
	}

	var residents []database.User
	if err := query.Find(&residents).Error; err != nil {
		return result, err
	}

	for _, resident := range residents {
		for _, billType := range normalized {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			switch err := e.createBill(&resident, billType, billingMonth, dueDate); {
			case err == nil:
				result.Created++
			case isMonthKeyConflict(err):
				result.Skipped++
			default:
				log.Printf("dispatch: bill for user %d type %s failed: %v", resident.ID, billType, err)
				result.Failed++
			}
		}
	}

	return result, nil
}

func (e *Engine) createBill(resident *database.User, billType, billingMonth string, dueDate time.Time) error {
	now := e.Now()

	bill := database.Bill{
		UserID:       resident.ID,
		BillingMonth: billingMonth,
		Type:         billType,
		ConsumerID:   consumerID(resident.ID, billType),
		ConsumerName: resident.Name,
		Provider:     ProviderFor(billType),
		BillID:       NewBillID(e.Rand, billType, now),
		ReferenceID:  NewReferenceID(e.Rand, now),
		Amount:       e.Amount(billType),
		DueDate:      dueDate,
		Status:       database.BillStatusDue,
		Address:      resident.FormattedAddress(),
	}

	err := e.DB.Create(&bill).Error
	if err == nil || isMonthKeyConflict(err) {
		return err
	}

	// A collision on bill_id/reference_id gets one retry with fresh ids.
	if isUniqueViolation(err) {
		bill.ID = 0
		bill.BillID = NewBillID(e.Rand, billType, e.Now())
		bill.ReferenceID = NewReferenceID(e.Rand, e.Now())
		return e.DB.Create(&bill).Error
	}

	return err
}

// consumerID is the provider-style account number shown on the bill.
func consumerID(userID uint, billType string) string {
	return fmt.Sprintf("%s-%06d", billPrefix(billType), userID)
}

// isUniqueViolation reports whether err is a unique-index conflict,
// regardless of driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// isMonthKeyConflict reports whether err is a conflict on the compound
// (user_id, billing_month, type) index, which signals "already dispatched".
// Postgres names the index in the error; sqlite lists the columns.
func isMonthKeyConflict(err error) bool {
	if !isUniqueViolation(err) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "idx_bills_user_month_type") ||
		strings.Contains(msg, "bills.user_id")
}
