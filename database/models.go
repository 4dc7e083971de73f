package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a resident or staff account in the system
type User struct {
	gorm.Model
	Name         string `json:"name"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	PasswordHash string `json:"-"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	PropertyType string `json:"property_type"`

	// House address fields (property_type = house)
	Block   string `json:"block"`
	Street  string `json:"street"`
	HouseNo string `json:"house_no"`

	// Apartment address fields (property_type = apartment)
	PlazaName   string `json:"plaza_name"`
	FloorNumber string `json:"floor_number"`
	FlatNumber  string `json:"flat_number"`

	IsVerified bool `json:"is_verified" gorm:"default:false"`
}

// FormattedAddress renders the address snapshot used on bills,
// based on whichever property-type fields are populated.
func (u *User) FormattedAddress() string {
	if u.PropertyType == PropertyApartment {
		return strings.TrimSpace(fmt.Sprintf("Flat %s, Floor %s, %s", u.FlatNumber, u.FloorNumber, u.PlazaName))
	}
	return strings.TrimSpace(fmt.Sprintf("House %s, Street %s, Block %s", u.HouseNo, u.Street, u.Block))
}

// Bill represents one billing obligation for one resident, one type, one month.
// The compound unique index is the duplicate-prevention mechanism for
// dispatch: an insert that conflicts on it means the bill already exists.
type Bill struct {
	gorm.Model
	UserID        uint       `json:"user_id" gorm:"uniqueIndex:idx_bills_user_month_type"`
	BillingMonth  string     `json:"billing_month" gorm:"uniqueIndex:idx_bills_user_month_type"`
	Type          string     `json:"type" gorm:"uniqueIndex:idx_bills_user_month_type"`
	ConsumerID    string     `json:"consumer_id"`
	ConsumerName  string     `json:"consumer_name"`
	Provider      string     `json:"provider"`
	BillID        string     `json:"bill_id" gorm:"uniqueIndex"`
	ReferenceID   string     `json:"reference_id" gorm:"uniqueIndex"`
	Amount        float64    `json:"amount"`
	DueDate       time.Time  `json:"due_date"`
	Status        string     `json:"status"`
	PaidDate      *time.Time `json:"paid_date"`
	Method        string     `json:"method"`
	PayerPhone    string     `json:"payer_phone"`
	TransactionID string     `json:"transaction_id"`
	Address       string     `json:"address"`
	User          User       `gorm:"foreignKey:UserID" json:"-"`
}

// Complaint represents a resident-submitted issue ticket
type Complaint struct {
	gorm.Model
	UserID      uint   `json:"user_id"`
	Subject     string `json:"subject"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Response    string `json:"response"`
	User        User   `gorm:"foreignKey:UserID" json:"-"`
}

// Notice represents a community announcement, active until its expiry date
type Notice struct {
	gorm.Model
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ExpiryDate  time.Time `json:"expiry_date"`
}

// ChatMessage represents a direct or community chat message.
// ReceiverID holds either a user id or the literal "community".
type ChatMessage struct {
	gorm.Model
	SenderID       uint   `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Message        string `json:"message"`
	Attachment     string `json:"attachment"`
	AttachmentType string `json:"attachment_type"`
	Sender         User   `gorm:"foreignKey:SenderID" json:"-"`
}

// Constants for status values
const (
	BillStatusDue      = "due"
	BillStatusPaid     = "paid"
	BillStatusUpcoming = "upcoming"
	BillStatusFailed   = "failed"

	BillTypeElectricity = "electricity"
	BillTypeGas         = "gas"
	BillTypeMaintenance = "maintenance"

	ComplaintStatusPending    = "pending"
	ComplaintStatusInProgress = "in-progress"
	ComplaintStatusResolved   = "resolved"
	ComplaintStatusRejected   = "rejected"

	PropertyHouse     = "house"
	PropertyApartment = "apartment"

	// ChatMessage receiver for the shared community channel
	CommunityReceiver = "community"

	// User roles
	RoleResident   = "resident"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)
