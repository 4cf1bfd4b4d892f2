package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentBrowser/internal/providers/settings"
)

// SettingRequest carries a new value for one key.
type SettingRequest struct {
	Value string `json:"value"`
}

// ListSettings lists every setting with credentials masked.
func (h *Handlers) ListSettings(c *gin.Context) {
	body := gin.H{"settings": h.settings.List()}
	if h.models != nil {
		body["llm"] = h.models.Status()
	}
	c.JSON(http.StatusOK, body)
}

// UpdateSetting stores a value. Keys are dotted, e.g. provider_keys.openai.
func (h *Handlers) UpdateSetting(c *gin.Context) {
	var req SettingRequest
	if !bind(c, &req) {
		return
	}
	key := c.Param("key")
	if err := h.settings.Set(key, req.Value); err != nil {
		errorResponse(c, settingStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "settings": h.settings.List()})
}

// ResetSetting restores a key to its default.
func (h *Handlers) ResetSetting(c *gin.Context) {
	key := c.Param("key")
	if err := h.settings.Reset(key); err != nil {
		errorResponse(c, settingStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "settings": h.settings.List()})
}

func settingStatus(err error) int {
	switch {
	case errors.Is(err, settings.ErrUnknownKey):
		return http.StatusNotFound
	case errors.Is(err, settings.ErrInvalidValue):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
