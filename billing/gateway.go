package billing

import (
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"

	"urbanease/database"
)

// Gateway settles a payment and returns a transaction id. Real-money
// integration lives entirely behind this interface; the rest of the
// payment path never knows which implementation ran.
type Gateway interface {
	Charge(bill *database.Bill, phone, method string) (string, error)
}

// SimulatedGateway fabricates a transaction id with no external call.
// This is the default gateway.
type SimulatedGateway struct {
	Now func() time.Time
}

func (g *SimulatedGateway) Charge(bill *database.Bill, phone, method string) (string, error) {
	return NewTransactionID(g.Now()), nil
}

// RazorpayGateway creates a Razorpay order for the bill amount and returns
// its id as the transaction reference. Selected only when PAYMENT_GATEWAY
// is set to "razorpay" with live keys configured.
type RazorpayGateway struct {
	Key    string
	Secret string
}

func (g *RazorpayGateway) Charge(bill *database.Bill, phone, method string) (string, error) {
	client := razorpay.NewClient(g.Key, g.Secret)

	// Razorpay amounts are in the smallest currency unit.
	data := map[string]interface{}{
		"amount":   int64(bill.Amount * 100),
		"currency": "PKR",
		"receipt":  bill.ReferenceID,
		"notes": map[string]interface{}{
			"user_id":       bill.UserID,
			"billing_month": bill.BillingMonth,
			"type":          bill.Type,
			"method":        method,
		},
	}

	order, err := client.Order.Create(data, nil)
	if err != nil {
		return "", err
	}

	id, ok := order["id"].(string)
	if !ok {
		return "", fmt.Errorf("razorpay order response missing id")
	}
	return id, nil
}
