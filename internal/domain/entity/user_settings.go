package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Defaults applied when a user's settings row is first created
const (
	DefaultCurrency = "NGN"
)

// DefaultVATPercentage is the VAT rate pre-filled on new invoices
var DefaultVATPercentage = decimal.RequireFromString("7.5")

// UserSettings holds per-user invoicing preferences and the business header
// printed on outgoing invoices
type UserSettings struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Invoicing
	Currency             string          `gorm:"size:10;default:'NGN'" json:"currency"`
	DefaultVATPercentage decimal.Decimal `gorm:"type:numeric;not null;default:7.5" json:"default_vat_percentage"`

	// Business header
	BusinessName    string `gorm:"size:255" json:"business_name"`
	BusinessEmail   string `gorm:"size:255" json:"business_email"`
	BusinessAddress string `gorm:"type:text" json:"business_address"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// NewUserSettings returns settings populated with defaults for userID
func NewUserSettings(userID uuid.UUID) *UserSettings {
	return &UserSettings{
		UserID:               userID,
		Currency:             DefaultCurrency,
		DefaultVATPercentage: DefaultVATPercentage,
	}
}

// BeforeCreate generates a UUID before creating new settings
func (s *UserSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the UserSettings model
func (UserSettings) TableName() string {
	return "user_settings"
}
