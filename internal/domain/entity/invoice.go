package entity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/billing"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DateLayout is the wire and storage format of calendar dates
const DateLayout = "2006-01-02"

// Invoice represents a billable record owned by one user
type Invoice struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	ClientName    string             `gorm:"size:255;not null" json:"client_name"`
	ClientEmail   string             `gorm:"size:255;not null" json:"client_email"`
	Amount        decimal.Decimal    `gorm:"type:numeric;not null;default:0" json:"amount"`
	VATPercentage decimal.Decimal    `gorm:"type:numeric;not null;default:0" json:"vat_percentage"`
	VATAmount     decimal.Decimal    `gorm:"type:numeric;not null;default:0" json:"vat_amount"`
	TotalAmount   decimal.Decimal    `gorm:"type:numeric;not null;default:0" json:"total_amount"`
	DueDate       time.Time          `gorm:"type:date;not null;index" json:"due_date"`
	Status        enum.InvoiceStatus `gorm:"size:20;not null;default:'unpaid';index" json:"status"`
	CreatedAt     time.Time          `gorm:"autoCreateTime:false;not null" json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// Relationships
	User  User          `gorm:"foreignKey:UserID" json:"-"`
	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
}

// BeforeCreate generates a UUID and stamps created_at once
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// ApplyTotals copies a calculator result onto the invoice. It is the only
// way the monetary fields are written.
func (i *Invoice) ApplyTotals(t billing.Totals) {
	i.Amount = t.Amount
	i.VATPercentage = t.VATPercentage
	i.VATAmount = t.VATAmount
	i.TotalAmount = t.TotalAmount
}

// Totals returns the monetary fields as a calculator result
func (i *Invoice) Totals() billing.Totals {
	return billing.Totals{
		Amount:        i.Amount,
		VATPercentage: i.VATPercentage,
		VATAmount:     i.VATAmount,
		TotalAmount:   i.TotalAmount,
	}
}

// MarkAsPaid moves the invoice to paid. changed is false when it already was.
func (i *Invoice) MarkAsPaid() (changed bool, err error) {
	next, changed, err := billing.MarkAsPaid(i.Status)
	if err != nil {
		return false, err
	}
	i.Status = next
	return changed, nil
}

// IsOverdue reports whether the invoice is unpaid and past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return billing.IsOverdue(i.Status, i.DueDate, now)
}

// Number is the human facing invoice number, e.g. MGL3f9a1c
func (i *Invoice) Number() string {
	id := strings.ReplaceAll(i.ID.String(), "-", "")
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "MGL" + id
}

// MarshalJSON adds the display-only fields and renders due_date as a plain date
func (i Invoice) MarshalJSON() ([]byte, error) {
	type Alias Invoice
	items := i.Items
	if items == nil {
		items = []InvoiceItem{}
	}
	return json.Marshal(&struct {
		Alias
		Items     []InvoiceItem `json:"items"`
		DueDate   string        `json:"due_date"`
		Number    string        `json:"number"`
		IsOverdue bool          `json:"is_overdue"`
	}{
		Alias:     Alias(i),
		Items:     items,
		DueDate:   i.DueDate.UTC().Format(DateLayout),
		Number:    i.Number(),
		IsOverdue: i.IsOverdue(time.Now()),
	})
}

// InvoiceItem represents a line on an invoice. Amount is whatever the user
// entered and is not derived from quantity and rate.
type InvoiceItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position  int             `gorm:"not null;default:0" json:"position"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Quantity  decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"quantity"`
	Rate      decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"rate"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"amount"`
}

// BeforeCreate generates a UUID before creating a new line item
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}
