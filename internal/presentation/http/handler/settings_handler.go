package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/maglo-api/internal/application/service"
	"github.com/sangkips/maglo-api/internal/presentation/http/dto/request"
	"github.com/sangkips/maglo-api/internal/presentation/http/dto/response"
)

// SettingsHandler handles settings-related HTTP requests
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetSettings retrieves user settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}

	settings, err := h.settingsService.GetSettings(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Settings retrieved successfully", settings)
}

// UpdateSettings updates user settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return
	}

	var req request.UpdateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	input := &service.UpdateSettingsInput{
		Currency:        req.Currency,
		BusinessName:    req.BusinessName,
		BusinessEmail:   req.BusinessEmail,
		BusinessAddress: req.BusinessAddress,
	}
	if req.DefaultVATPercentage != nil {
		vat := req.DefaultVATPercentage.String()
		input.DefaultVATPercentage = &vat
	}

	settings, err := h.settingsService.UpdateSettings(c.Request.Context(), principal, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Settings updated successfully", settings)
}
