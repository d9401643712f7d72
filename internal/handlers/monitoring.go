package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errLoadTemperatures = "failed to load temperatures"
	errLoadState        = "failed to load state"
	errNoReading        = "no reading for key"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Latest temperatures
// @Description  Latest reading of every entity that has one, keyed by entity key.
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]models.TemperatureReading
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/temperatures [get]
// @Security     BearerAuth
func (h *Handler) getTemperatures(c *gin.Context) {
	temps, err := h.services.Temperatures(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadTemperatures, "temperatures_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, temps)
}

// @Summary      Latest temperature of one entity
// @Tags         monitoring
// @Produce      json
// @Param        key  path  string  true  "Entity key (room key, pipe)"
// @Success      200  {object}  models.TemperatureReading
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/temperatures/{key} [get]
// @Security     BearerAuth
func (h *Handler) getTemperature(c *gin.Context) {
	key := c.Param("key")
	reading, err := h.services.Temperature(c.Request.Context(), key)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadTemperatures, "temperature_load_failed", err, "key", key)
		return
	}
	if reading == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoReading, "key": key})
		return
	}
	c.JSON(http.StatusOK, reading)
}

// @Summary      Combined snapshot
// @Description  Latest temperature, setpoint and relay state per entity. The stove is included once it has a recorded state.
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  map[string]models.EntityState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Snapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadState, "state_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
