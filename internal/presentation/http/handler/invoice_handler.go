package handler

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/maglo-api/internal/application/service"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/presentation/http/dto/request"
	"github.com/sangkips/maglo-api/internal/presentation/http/dto/response"
	"github.com/sangkips/maglo-api/pkg/export"
)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func toInvoiceInput(req *request.InvoiceRequest) *service.InvoiceInput {
	input := &service.InvoiceInput{
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		Amount:      req.Amount.String(),
		DueDate:     req.DueDate,
		Items:       make([]service.InvoiceItemInput, 0, len(req.Items)),
	}
	if req.VATPercentage != nil {
		vat := req.VATPercentage.String()
		input.VATPercentage = &vat
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.InvoiceItemInput{
			Name:     item.Name,
			Quantity: item.Quantity.String(),
			Rate:     item.Rate.String(),
			Amount:   item.Amount.String(),
		})
	}
	return input
}

func toListInput(q *request.ListInvoicesQuery) *service.ListInvoicesInput {
	return &service.ListInvoicesInput{
		Status:    q.Status,
		Overdue:   q.Overdue,
		Search:    q.Search,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		PerPage:   q.PerPage,
	}
}

// ListInvoices returns a page of the caller's invoices
// @Summary List invoices
// @Tags invoices
// @Security BearerAuth
// @Produce json
// @Param status query string false "all, paid, unpaid or pending"
// @Param overdue query bool false "only unpaid invoices past their due date"
// @Param search query string false "client name or email"
// @Success 200 {object} response.APIResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}

	var query request.ListInvoicesQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), principal, toListInput(&query))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Invoices retrieved successfully", result)
}

// CreateInvoice creates an unpaid invoice with computed totals
// @Summary Create invoice
// @Tags invoices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.InvoiceRequest true "Invoice"
// @Success 201 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}

	var req request.InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), principal, toInvoiceInput(&req))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice created successfully", invoice)
}

// GetInvoice returns one invoice with its items
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "Invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), principal, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", invoice)
}

// UpdateInvoice replaces the editable fields of an invoice
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "Invoice")
	if !ok {
		return
	}

	var req request.InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), principal, id, toInvoiceInput(&req))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice updated successfully", invoice)
}

// MarkInvoicePaid moves an unpaid invoice to paid
func (h *InvoiceHandler) MarkInvoicePaid(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "Invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkInvoicePaid(c.Request.Context(), principal, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice marked as paid", invoice)
}

// DeleteInvoice permanently removes an invoice
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "Invoice")
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), principal, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice deleted successfully", nil)
}

// PreviewTotals computes VAT and total for an unsaved form
func (h *InvoiceHandler) PreviewTotals(c *gin.Context) {
	if _, ok := GetPrincipal(c); !ok {
		return
	}

	var req request.PreviewTotalsRequest
	if !bindJSON(c, &req) {
		return
	}

	totals, err := h.invoiceService.PreviewTotals(req.Amount.String(), req.VATPercentage.String())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Totals calculated successfully", totals)
}

// SendInvoice emails the invoice to its client
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "Invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.SendInvoice(c.Request.Context(), principal, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice sent to "+invoice.ClientEmail, invoice)
}

// ExportInvoices downloads the filtered invoices as an xlsx workbook
func (h *InvoiceHandler) ExportInvoices(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}

	var query request.ListInvoicesQuery
	if !bindQuery(c, &query) {
		return
	}

	var buf bytes.Buffer
	if err := h.invoiceService.ExportInvoices(c.Request.Context(), principal, toListInput(&query), &buf); err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("invoices-%s.xlsx", time.Now().UTC().Format(entity.DateLayout))
	response.Attachment(c, filename, export.ContentType, buf.Bytes())
}
