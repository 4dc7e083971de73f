package billing

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"gorm.io/gorm"

	"urbanease/database"
)

// payerPhonePattern: exactly 11 digits starting with "03".
var payerPhonePattern = regexp.MustCompile(`^03\d{9}$`)

// AnyOwner disables owner scoping in Pay; it is the admin override path.
const AnyOwner uint = 0

// Processor marks bills paid. Settlement is delegated to a Gateway
// collaborator; the default simulates it without any external call.
type Processor struct {
	DB      *gorm.DB
	Gateway Gateway
	Now     func() time.Time
}

// NewProcessor returns a Processor backed by the simulated gateway.
func NewProcessor(db *gorm.DB) *Processor {
	return &Processor{
		DB:      db,
		Gateway: &SimulatedGateway{Now: time.Now},
		Now:     time.Now,
	}
}

// Pay resolves billRef (store id first, then reference id), validates the
// payer phone, and transitions the bill from due to paid. When ownerID is
// not AnyOwner, resolution is scoped to that user's bills: residents cannot
// pay, or even detect, another resident's bill. Paying a bill twice fails
// with AlreadyPaidError and leaves the first payment's fields untouched.
func (p *Processor) Pay(ctx context.Context, ownerID uint, billRef, phone, method string) (*database.Bill, string, error) {
	if !payerPhonePattern.MatchString(phone) {
		return nil, "", &ValidationError{Field: "phone", Reason: "must be 11 digits starting with 03"}
	}
	if billRef == "" {
		return nil, "", &ValidationError{Field: "bill_ref", Reason: "must not be empty"}
	}

	bill, err := p.resolveBill(ctx, ownerID, billRef)
	if err != nil {
		return nil, "", err
	}

	if bill.Status == database.BillStatusPaid {
		return nil, "", &AlreadyPaidError{BillRef: billRef}
	}

	transactionID, err := p.Gateway.Charge(bill, phone, method)
	if err != nil {
		return nil, "", err
	}

	paidDate := p.Now()
	updates := map[string]interface{}{
		"status":         database.BillStatusPaid,
		"paid_date":      paidDate,
		"method":         method,
		"payer_phone":    phone,
		"transaction_id": transactionID,
	}

	// The status guard makes the transition atomic: of two concurrent
	// payments, only one update matches and the other sees zero rows.
	result := p.DB.WithContext(ctx).Model(&database.Bill{}).
		Where("id = ? AND status <> ?", bill.ID, database.BillStatusPaid).
		Updates(updates)
	if result.Error != nil {
		return nil, "", result.Error
	}
	if result.RowsAffected == 0 {
		return nil, "", &AlreadyPaidError{BillRef: billRef}
	}

	bill.Status = database.BillStatusPaid
	bill.PaidDate = &paidDate
	bill.Method = method
	bill.PayerPhone = phone
	bill.TransactionID = transactionID

	return bill, transactionID, nil
}

func (p *Processor) resolveBill(ctx context.Context, ownerID uint, billRef string) (*database.Bill, error) {
	scoped := func() *gorm.DB {
		query := p.DB.WithContext(ctx)
		if ownerID != AnyOwner {
			query = query.Where("user_id = ?", ownerID)
		}
		return query
	}

	var bill database.Bill

	if id, convErr := strconv.ParseUint(billRef, 10, 64); convErr == nil {
		err := scoped().Where("id = ?", uint(id)).First(&bill).Error
		if err == nil {
			return &bill, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	err := scoped().Where("reference_id = ?", billRef).First(&bill).Error
	if err == nil {
		return &bill, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "bill", Ref: billRef}
	}
	return nil, err
}
