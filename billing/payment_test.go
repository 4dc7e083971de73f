package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"urbanease/database"
)

func newTestProcessor(db *gorm.DB) *Processor {
	processor := NewProcessor(db)
	now := time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)
	processor.Now = func() time.Time { return now }
	processor.Gateway = &SimulatedGateway{Now: processor.Now}
	return processor
}

func createDueBill(t *testing.T, db *gorm.DB, userID uint, suffix string) database.Bill {
	t.Helper()

	bill := database.Bill{
		UserID:       userID,
		BillingMonth: "March 2026",
		Type:         "electricity" + suffix,
		Provider:     "IESCO",
		BillID:       "ELEC-1000-" + suffix,
		ReferenceID:  "REF-1000-" + suffix,
		Amount:       3200,
		DueDate:      time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		Status:       database.BillStatusDue,
	}
	if err := db.Create(&bill).Error; err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return bill
}

func TestPayRejectsMalformedPhone(t *testing.T) {
	db := newTestDB(t)
	processor := newTestProcessor(db)

	cases := []struct {
		name  string
		phone string
	}{
		{"ten digits", "0300000000"},
		{"twelve digits", "030012345678"},
		{"wrong prefix", "13001234567"},
		{"letters", "03001abc567"},
		{"empty", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := processor.Pay(context.Background(), AnyOwner, "1", tc.phone, "jazzcash")
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError for %q, got %v", tc.phone, err)
			}
		})
	}
}

func TestPayByStoreID(t *testing.T) {
	db := newTestDB(t)
	processor := newTestProcessor(db)

	resident := createResident(t, db, "a@example.com", true)
	bill := createDueBill(t, db, resident.ID, "0001")

	paid, transactionID, err := processor.Pay(context.Background(), resident.ID, strconv.Itoa(int(bill.ID)), "03001234567", "jazzcash")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}

	if paid.Status != database.BillStatusPaid {
		t.Fatalf("expected paid status, got %q", paid.Status)
	}
	if !strings.HasPrefix(transactionID, "TXN-") {
		t.Fatalf("unexpected transaction id %q", transactionID)
	}
	if paid.PaidDate == nil || !paid.PaidDate.Equal(processor.Now()) {
		t.Fatalf("expected paid date %v, got %v", processor.Now(), paid.PaidDate)
	}
	if paid.Method != "jazzcash" || paid.PayerPhone != "03001234567" {
		t.Fatalf("payment details not recorded: %+v", paid)
	}

	var stored database.Bill
	if err := db.First(&stored, bill.ID).Error; err != nil {
		t.Fatalf("reload bill: %v", err)
	}
	if stored.Status != database.BillStatusPaid || stored.TransactionID != transactionID {
		t.Fatalf("payment not persisted: %+v", stored)
	}
}

func TestPayByReferenceID(t *testing.T) {
	db := newTestDB(t)
	processor := newTestProcessor(db)

	resident := createResident(t, db, "a@example.com", true)
	bill := createDueBill(t, db, resident.ID, "0002")

	paid, _, err := processor.Pay(context.Background(), resident.ID, bill.ReferenceID, "03001234567", "easypaisa")
	if err != nil {
		t.Fatalf("pay by reference: %v", err)
	}
	if paid.ID != bill.ID {
		t.Fatalf("resolved wrong bill: %d != %d", paid.ID, bill.ID)
	}
}

func TestPayUnknownReference(t *testing.T) {
	db := newTestDB(t)
	processor := newTestProcessor(db)

	_, _, err := processor.Pay(context.Background(), AnyOwner, "REF-does-not-exist", "03001234567", "jazzcash")
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestPayTwiceFailsAndPreservesFirstPayment(t *testing.T) {
	db := newTestDB(t)
	processor := newTestProcessor(db)

	resident := createResident(t, db, "a@example.com", true)
	bill := createDueBill(t, db, resident.ID, "0003")

	_, firstTxn, err := processor.Pay(context.Background(), resident.ID, bill.ReferenceID, "03001234567", "jazzcash")
	if err != nil {
		t.Fatalf("first pay: %v", err)
	}

	_, _, err = processor.Pay(context.Background(), resident.ID, bill.ReferenceID, "03009999999", "easypaisa")
	var alreadyPaidErr *AlreadyPaidError
	if !errors.As(err, &alreadyPaidErr) {
		t.Fatalf("expected AlreadyPaidError, got %v", err)
	}

	var stored database.Bill
	if err := db.First(&stored, bill.ID).Error; err != nil {
		t.Fatalf("reload bill: %v", err)
	}
	if stored.TransactionID != firstTxn {
		t.Fatalf("second attempt overwrote transaction id: %q", stored.TransactionID)
	}
	if stored.PayerPhone != "03001234567" || stored.Method != "jazzcash" {
		t.Fatalf("second attempt overwrote payment details: %+v", stored)
	}
}

func TestPayRefusesAnotherResidentsBill(t *testing.T) {
	db := newTestDB(t)
	processor := newTestProcessor(db)

	owner := createResident(t, db, "owner@example.com", true)
	intruder := createResident(t, db, "intruder@example.com", true)
	bill := createDueBill(t, db, owner.ID, "0005")

	for _, ref := range []string{strconv.Itoa(int(bill.ID)), bill.ReferenceID} {
		_, _, err := processor.Pay(context.Background(), intruder.ID, ref, "03001234567", "jazzcash")
		var notFoundErr *NotFoundError
		if !errors.As(err, &notFoundErr) {
			t.Fatalf("expected NotFoundError for foreign bill ref %q, got %v", ref, err)
		}
	}

	var stored database.Bill
	if err := db.First(&stored, bill.ID).Error; err != nil {
		t.Fatalf("reload bill: %v", err)
	}
	if stored.Status != database.BillStatusDue {
		t.Fatalf("foreign payment attempt mutated the bill: %+v", stored)
	}

	// The admin override path is not owner-scoped.
	if _, _, err := processor.Pay(context.Background(), AnyOwner, bill.ReferenceID, "03001234567", "jazzcash"); err != nil {
		t.Fatalf("admin payment: %v", err)
	}
}

// racingGateway marks the bill paid out of band while the charge is in
// flight, simulating a concurrent payment winning the race.
type racingGateway struct {
	db *gorm.DB
}

func (g racingGateway) Charge(bill *database.Bill, phone, method string) (string, error) {
	err := g.db.Model(&database.Bill{}).Where("id = ?", bill.ID).Updates(map[string]interface{}{
		"status":         database.BillStatusPaid,
		"transaction_id": "TXN-winner",
	}).Error
	return "TXN-loser", err
}

func TestPayLosesRaceToConcurrentPayment(t *testing.T) {
	db := newTestDB(t)
	processor := newTestProcessor(db)
	processor.Gateway = racingGateway{db: db}

	resident := createResident(t, db, "a@example.com", true)
	bill := createDueBill(t, db, resident.ID, "0006")

	_, _, err := processor.Pay(context.Background(), resident.ID, bill.ReferenceID, "03001234567", "jazzcash")
	var alreadyPaidErr *AlreadyPaidError
	if !errors.As(err, &alreadyPaidErr) {
		t.Fatalf("expected AlreadyPaidError when losing the race, got %v", err)
	}

	var stored database.Bill
	if err := db.First(&stored, bill.ID).Error; err != nil {
		t.Fatalf("reload bill: %v", err)
	}
	if stored.TransactionID != "TXN-winner" {
		t.Fatalf("losing payment overwrote the winner: %q", stored.TransactionID)
	}
}

type failingGateway struct{}

func (failingGateway) Charge(bill *database.Bill, phone, method string) (string, error) {
	return "", fmt.Errorf("gateway unavailable")
}

func TestPayLeavesBillDueWhenGatewayFails(t *testing.T) {
	db := newTestDB(t)
	processor := newTestProcessor(db)
	processor.Gateway = failingGateway{}

	resident := createResident(t, db, "a@example.com", true)
	bill := createDueBill(t, db, resident.ID, "0004")

	_, _, err := processor.Pay(context.Background(), resident.ID, bill.ReferenceID, "03001234567", "jazzcash")
	if err == nil {
		t.Fatal("expected gateway error")
	}

	var stored database.Bill
	if err := db.First(&stored, bill.ID).Error; err != nil {
		t.Fatalf("reload bill: %v", err)
	}
	if stored.Status != database.BillStatusDue {
		t.Fatalf("bill must stay due after gateway failure, got %q", stored.Status)
	}
}
