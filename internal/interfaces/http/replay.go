package http

import (
	"fmt"
	"net/http"

	appreplay "papertrader/internal/application/service/replay"

	"github.com/gin-gonic/gin"
)

// startReplay starts a replay session
// @Summary      Start replay
// @Description  Reset every account and start a virtual-clock replay over [start_date, end_date]
// @Tags         replay
// @Accept       json
// @Produce      json
// @Param        request  body      replayStartRequest  true  "Replay window and pacing"
// @Success      200      {object}  replayStateResponse
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /replay/start [post]
func (h *Handler) startReplay(c *gin.Context) {
	var payload replayStartRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	start, err := parseDate(payload.StartDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("start_date: %w", err))
		return
	}
	end, err := parseDate(payload.EndDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, fmt.Errorf("end_date: %w", err))
		return
	}
	params := appreplay.StartParams{
		Start:           start,
		End:             end,
		SpeedMultiplier: defaultSpeedMultiplier,
		IntervalDays:    defaultIntervalDays,
	}
	if payload.SpeedMultiplier != nil {
		params.SpeedMultiplier = *payload.SpeedMultiplier
	}
	if payload.TradingIntervalDays != nil {
		params.IntervalDays = *payload.TradingIntervalDays
	}

	state, err := h.services.Replay.Start(c.Request.Context(), params)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	h.invalidateCurves(c.Request.Context())
	c.JSON(http.StatusOK, newStateResponse(state, true))
}

// stopReplay stops the replay session
// @Summary      Stop replay
// @Description  Stop the replay session and restore the live trading cadence
// @Tags         replay
// @Produce      json
// @Success      200  {object}  replayStateResponse
// @Router       /replay/stop [post]
func (h *Handler) stopReplay(c *gin.Context) {
	h.services.Replay.Stop(c.Request.Context())
	h.invalidateCurves(c.Request.Context())
	c.JSON(http.StatusOK, newStateResponse(h.services.Replay.State()))
}

// getReplayState returns the replay session state
// @Summary      Replay state
// @Description  Current replay window, virtual clock and progress
// @Tags         replay
// @Produce      json
// @Success      200  {object}  replayStateResponse
// @Router       /replay/state [get]
func (h *Handler) getReplayState(c *gin.Context) {
	c.JSON(http.StatusOK, newStateResponse(h.services.Replay.State()))
}

// advanceReplay moves the virtual clock
// @Summary      Advance replay
// @Description  Advance the virtual clock by seconds × speed multiplier and trigger a decision round
// @Tags         replay
// @Accept       json
// @Produce      json
// @Param        request  body      replayAdvanceRequest  false  "Real seconds to advance (default 300)"
// @Success      200      {object}  replayAdvanceResponse
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /replay/advance [post]
func (h *Handler) advanceReplay(c *gin.Context) {
	var payload replayAdvanceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			writeError(c, http.StatusBadRequest, err)
			return
		}
	}
	seconds := int64(defaultAdvanceSeconds)
	if payload.Seconds != nil {
		seconds = *payload.Seconds
	}

	result, err := h.services.Replay.Advance(c.Request.Context(), seconds)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	h.invalidateCurves(c.Request.Context())
	c.JSON(http.StatusOK, replayAdvanceResponse{
		CurrentDate: formatTime(result.Current),
		Ended:       result.Ended,
	})
}
