package billing

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"urbanease/database"
)

// Provider and amount policy per bill type. The amounts are a placeholder
// billing policy, not a tariff engine; dispatch lets callers inject their
// own amount source for deterministic tests.
const (
	ProviderElectricity = "IESCO"
	ProviderGas         = "SNGPL"
	ProviderMaintenance = "Urban Ease Residency"
	ProviderDefault     = "UrbanEase"

	MaintenanceAmount = 1500
	DefaultAmount     = 1000
)

func billPrefix(billType string) string {
	switch billType {
	case database.BillTypeElectricity:
		return "ELEC"
	case database.BillTypeGas:
		return "GAS"
	case database.BillTypeMaintenance:
		return "MAINT"
	default:
		return "BILL"
	}
}

// ProviderFor returns the fixed provider label for a bill type.
func ProviderFor(billType string) string {
	switch billType {
	case database.BillTypeElectricity:
		return ProviderElectricity
	case database.BillTypeGas:
		return ProviderGas
	case database.BillTypeMaintenance:
		return ProviderMaintenance
	default:
		return ProviderDefault
	}
}

// DefaultAmountFor returns a pseudo-random amount within the per-type range.
func DefaultAmountFor(rng *rand.Rand, billType string) float64 {
	switch billType {
	case database.BillTypeElectricity:
		return float64(2000 + rng.Intn(3001)) // 2000-5000
	case database.BillTypeGas:
		return float64(500 + rng.Intn(1501)) // 500-2000
	case database.BillTypeMaintenance:
		return MaintenanceAmount
	default:
		return DefaultAmount
	}
}

// NewBillID generates a human-readable display id: {prefix}-{timestamp}-{rand4}.
// Uniqueness beyond timestamp+random odds is backed by the unique index;
// callers retry with a fresh id on conflict.
func NewBillID(rng *rand.Rand, billType string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%04d", billPrefix(billType), now.UnixMilli(), rng.Intn(10000))
}

// NewReferenceID generates the payment lookup token: REF-{timestamp}-{rand4}.
func NewReferenceID(rng *rand.Rand, now time.Time) string {
	return fmt.Sprintf("REF-%d-%04d", now.UnixMilli(), rng.Intn(10000))
}

// NewTransactionID generates a simulated settlement id: TXN-{timestamp}.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("TXN-%d", now.Unix())
}

// NormalizeType lowercases and trims a bill type label so that
// "Electricity" and "electricity" address the same obligation.
func NormalizeType(billType string) string {
	return strings.ToLower(strings.TrimSpace(billType))
}
