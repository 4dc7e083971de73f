package billing

import (
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"urbanease/database"
)

// Reconciler hosts the offline maintenance sweeps over the bills table.
// Each sweep is idempotent and never raises for individual-record failures:
// it logs, moves on, and reports aggregate counts.
type Reconciler struct {
	DB   *gorm.DB
	Now  func() time.Time
	Rand *rand.Rand
}

// Summary reports what one full reconciliation run changed.
type Summary struct {
	OrphansRemoved    int
	DuplicatesRemoved int
	FieldsBackfilled  int
	IndexEnsured      bool
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{
		DB:   db,
		Now:  time.Now,
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RunAll executes every sweep in dependency order: orphans and duplicates
// must be gone before the unique index can be enforced.
func (r *Reconciler) RunAll() Summary {
	var summary Summary

	orphans, err := r.SweepOrphans()
	if err != nil {
		log.Printf("reconcile: orphan sweep: %v", err)
	}
	summary.OrphansRemoved = orphans

	duplicates, err := r.SweepDuplicates()
	if err != nil {
		log.Printf("reconcile: duplicate sweep: %v", err)
	}
	summary.DuplicatesRemoved = duplicates

	backfilled, err := r.BackfillRequiredFields()
	if err != nil {
		log.Printf("reconcile: backfill: %v", err)
	}
	summary.FieldsBackfilled = backfilled

	if err := r.EnsureBillUniqueIndex(); err != nil {
		log.Printf("reconcile: unique index not enforced: %v", err)
	} else {
		summary.IndexEnsured = true
	}

	return summary
}

// SweepOrphans deletes every bill whose user_id no longer resolves to a
// user. Re-running on a clean table removes nothing.
func (r *Reconciler) SweepOrphans() (int, error) {
	userIDs := r.DB.Model(&database.User{}).Select("id")
	result := r.DB.Unscoped().
		Where("user_id NOT IN (?)", userIDs).
		Delete(&database.Bill{})
	return int(result.RowsAffected), result.Error
}

// SweepDuplicates keeps exactly one bill per (user_id, billing_month, type)
// group and deletes the rest. Survivor selection is deterministic: paid
// bills outrank due ones, then the most recently created wins, with the
// highest id as the final tie-break so reruns pick the same survivor.
func (r *Reconciler) SweepDuplicates() (int, error) {
	type groupKey struct {
		UserID       uint
		BillingMonth string
		Type         string
	}

	var groups []groupKey
	err := r.DB.Model(&database.Bill{}).
		Select("user_id, billing_month, type").
		Group("user_id, billing_month, type").
		Having("COUNT(*) > 1").
		Scan(&groups).Error
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range groups {
		var bills []database.Bill
		err := r.DB.
			Where("user_id = ? AND billing_month = ? AND type = ?", key.UserID, key.BillingMonth, key.Type).
			Order("CASE WHEN status = 'paid' THEN 0 ELSE 1 END, created_at DESC, id DESC").
			Find(&bills).Error
		if err != nil {
			log.Printf("reconcile: loading duplicate group (user %d, %q, %s): %v",
				key.UserID, key.BillingMonth, key.Type, err)
			continue
		}
		if len(bills) < 2 {
			continue
		}

		for _, extra := range bills[1:] {
			if err := r.DB.Unscoped().Delete(&database.Bill{}, extra.ID).Error; err != nil {
				log.Printf("reconcile: deleting duplicate bill %d: %v", extra.ID, err)
				continue
			}
			removed++
		}
	}

	return removed, nil
}

// BackfillRequiredFields fills in missing reference_id, bill_id, provider,
// or billing_month values using the same generation rules as dispatch.
// Fields that are already present are never overwritten.
func (r *Reconciler) BackfillRequiredFields() (int, error) {
	var bills []database.Bill
	err := r.DB.
		Where("reference_id IS NULL OR reference_id = ''").
		Or("bill_id IS NULL OR bill_id = ''").
		Or("provider IS NULL OR provider = ''").
		Or("billing_month IS NULL OR billing_month = ''").
		Find(&bills).Error
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, bill := range bills {
		updates := map[string]interface{}{}
		if bill.ReferenceID == "" {
			updates["reference_id"] = NewReferenceID(r.Rand, r.Now())
		}
		if bill.BillID == "" {
			updates["bill_id"] = NewBillID(r.Rand, bill.Type, r.Now())
		}
		if bill.Provider == "" {
			updates["provider"] = ProviderFor(bill.Type)
		}
		if bill.BillingMonth == "" {
			updates["billing_month"] = r.Now().Format("January 2006")
		}
		if len(updates) == 0 {
			continue
		}

		if err := r.DB.Model(&database.Bill{}).Where("id = ?", bill.ID).Updates(updates).Error; err != nil {
			log.Printf("reconcile: backfilling bill %d: %v", bill.ID, err)
			continue
		}
		fixed++
	}

	return fixed, nil
}

// EnsureBillUniqueIndex creates the compound unique index when it is
// missing. Creation fails while duplicates remain; the caller logs and
// continues rather than crashing the job.
func (r *Reconciler) EnsureBillUniqueIndex() error {
	migrator := r.DB.Migrator()
	if migrator.HasIndex(&database.Bill{}, "idx_bills_user_month_type") {
		return nil
	}
	return migrator.CreateIndex(&database.Bill{}, "idx_bills_user_month_type")
}
