package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getTradingInterval returns the automated trading interval
// @Summary      Trading interval
// @Description  Interval between automated trading rounds, in seconds (default 300)
// @Tags         config
// @Produce      json
// @Success      200  {object}  tradingIntervalPayload
// @Failure      500  {object}  map[string]string
// @Router       /config/trading-interval [get]
func (h *Handler) getTradingInterval(c *gin.Context) {
	seconds, err := h.services.Settings.TradingInterval(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, tradingIntervalPayload{IntervalSeconds: seconds})
}

// updateTradingInterval changes the automated trading interval
// @Summary      Update trading interval
// @Description  Set the interval between automated trading rounds (60-3600 seconds)
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        request  body      tradingIntervalPayload  true  "New interval"
// @Success      200      {object}  tradingIntervalPayload
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /config/trading-interval [put]
func (h *Handler) updateTradingInterval(c *gin.Context) {
	var payload tradingIntervalPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.services.Settings.SetTradingInterval(c.Request.Context(), payload.IntervalSeconds); err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, payload)
}
