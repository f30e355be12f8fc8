package http

import (
	"errors"
	"net/http"
	"strconv"

	curve "papertrader/internal/domain/entity/curve"

	"github.com/gin-gonic/gin"
)

var errInvalidAccountID = errors.New("account_id must be a positive integer")

// getCurves returns the asset curves of every account
// @Summary      All asset curves
// @Description  Reconstructed asset curves for every account, sorted by timestamp then account id
// @Tags         curves
// @Produce      json
// @Param        timeframe  query     string  false  "Grid step: 5m, 1h or 1d (default 1h)"
// @Success      200        {array}   curvePointResponse
// @Failure      500        {object}  map[string]string
// @Router       /curves [get]
func (h *Handler) getCurves(c *gin.Context) {
	tf := curve.ParseTimeframe(c.Query("timeframe"))
	points, err := h.services.Curves.AllAccounts(c.Request.Context(), tf)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, newCurveResponse(points))
}

// getAccountCurve returns the asset curve of one account
// @Summary      Account asset curve
// @Description  Reconstructed asset curve for a single account
// @Tags         curves
// @Produce      json
// @Param        account_id  path      int     true   "Account ID"
// @Param        timeframe   query     string  false  "Grid step: 5m, 1h or 1d (default 1h)"
// @Success      200         {array}   curvePointResponse
// @Failure      400         {object}  map[string]string
// @Failure      404         {object}  map[string]string
// @Failure      500         {object}  map[string]string
// @Router       /curves/{account_id} [get]
func (h *Handler) getAccountCurve(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		writeError(c, http.StatusBadRequest, errInvalidAccountID)
		return
	}
	tf := curve.ParseTimeframe(c.Query("timeframe"))
	points, err := h.services.Curves.SingleAccount(c.Request.Context(), accountID, tf)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, newCurveResponse(points))
}

// getSnapshot returns live account valuations
// @Summary      Account snapshot
// @Description  Current valuation of every account at the virtual clock, or now outside replay
// @Tags         curves
// @Produce      json
// @Success      200  {object}  curve.Snapshot
// @Failure      500  {object}  map[string]string
// @Router       /snapshot [get]
func (h *Handler) getSnapshot(c *gin.Context) {
	at := h.now().UTC()
	if state, active := h.services.Replay.State(); active {
		at = state.Current
	}
	snapshot, err := h.services.Snapshots.Snapshot(c.Request.Context(), at)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
