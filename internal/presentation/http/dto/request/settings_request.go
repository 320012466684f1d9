package request

// UpdateSettingsRequest is a partial update; omitted fields keep their value
type UpdateSettingsRequest struct {
	Currency             *string         `json:"currency"`
	DefaultVATPercentage *FlexibleNumber `json:"default_vat_percentage"`
	BusinessName         *string         `json:"business_name" binding:"omitempty,max=255"`
	BusinessEmail        *string         `json:"business_email"`
	BusinessAddress      *string         `json:"business_address"`
}
