package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errNotANumber = errors.New("expected a number or a numeric string")

// FlexibleNumber accepts either a JSON number or a string. Form inputs send
// amounts as text, so numeric parsing and its field errors happen in the
// service layer rather than during decoding.
type FlexibleNumber string

// UnmarshalJSON implements json.Unmarshaler
func (n *FlexibleNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = FlexibleNumber(strings.TrimSpace(s))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return errNotANumber
	}
	*n = FlexibleNumber(num.String())
	return nil
}

// String returns the raw text of the number
func (n FlexibleNumber) String() string {
	return string(n)
}

// InvoiceRequest is the body of create and update invoice requests
type InvoiceRequest struct {
	ClientName    string               `json:"client_name" binding:"required,max=255"`
	ClientEmail   string               `json:"client_email" binding:"required,email"`
	Amount        FlexibleNumber       `json:"amount" binding:"required"`
	VATPercentage *FlexibleNumber      `json:"vat_percentage"`
	DueDate       string               `json:"due_date" binding:"required"`
	Items         []InvoiceItemRequest `json:"items" binding:"omitempty,dive"`
}

// InvoiceItemRequest is one line item of an invoice
type InvoiceItemRequest struct {
	Name     string         `json:"name" binding:"max=255"`
	Quantity FlexibleNumber `json:"quantity"`
	Rate     FlexibleNumber `json:"rate"`
	Amount   FlexibleNumber `json:"amount"`
}

// ListInvoicesQuery holds the query string of the invoice list and export endpoints
type ListInvoicesQuery struct {
	Status    string `form:"status"`
	Overdue   bool   `form:"overdue"`
	Search    string `form:"search"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

// PreviewTotalsRequest asks for the derived totals of an unsaved invoice
type PreviewTotalsRequest struct {
	Amount        FlexibleNumber `json:"amount"`
	VATPercentage FlexibleNumber `json:"vat_percentage"`
}
