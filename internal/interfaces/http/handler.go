// @title           Papertrader API
// @version         1.0
// @description     Replay sessions and account asset curves for simulated trading accounts
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	appcurve "papertrader/internal/application/service/curve"
	appreplay "papertrader/internal/application/service/replay"
	appsettings "papertrader/internal/application/service/settings"
	curve "papertrader/internal/domain/entity/curve"
	ledger "papertrader/internal/domain/entity/ledger"
	replaystate "papertrader/internal/domain/entity/replay"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	replayBasePath = "/api/v1/replay"
	curvesBasePath = "/api/v1/curves"
	configBasePath = "/api/v1/config"
)

// ReplaySession is the replay controller surface used by the API.
type ReplaySession interface {
	Start(ctx context.Context, params appreplay.StartParams) (replaystate.State, error)
	Stop(ctx context.Context)
	Advance(ctx context.Context, seconds int64) (appreplay.AdvanceResult, error)
	State() (replaystate.State, bool)
}

type CurveBuilder interface {
	AllAccounts(ctx context.Context, tf curve.Timeframe) ([]curve.Point, error)
	SingleAccount(ctx context.Context, accountID int64, tf curve.Timeframe) ([]curve.Point, error)
}

type Settings interface {
	TradingInterval(ctx context.Context) (int, error)
	SetTradingInterval(ctx context.Context, seconds int) error
}

type SnapshotSource interface {
	Snapshot(ctx context.Context, virtualNow time.Time) (curve.Snapshot, error)
}

// Services groups the application services behind the routes. Snapshots
// and Stream are optional.
type Services struct {
	Replay    ReplaySession
	Curves    CurveBuilder
	Settings  Settings
	Snapshots SnapshotSource
	Stream    gin.HandlerFunc
}

type Handler struct {
	router   *gin.Engine
	services Services
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *logrus.Entry
	now      func() time.Time
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(services Services, cache *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:   router,
		services: services,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.WithField("component", "http"),
		now:      time.Now,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if h.services.Stream != nil {
		h.router.GET("/ws", h.services.Stream)
	}

	replay := h.router.Group(replayBasePath)
	{
		replay.POST("/start", h.startReplay)
		replay.POST("/stop", h.stopReplay)
		replay.GET("/state", h.getReplayState)
		replay.POST("/advance", h.advanceReplay)
	}

	curves := h.router.Group(curvesBasePath)
	if h.cache != nil {
		curves.Use(h.cacheMiddleware())
	}
	{
		curves.GET("", h.getCurves)
		curves.GET("/:account_id", h.getAccountCurve)
	}

	cfg := h.router.Group(configBasePath)
	{
		cfg.GET("/trading-interval", h.getTradingInterval)
		cfg.PUT("/trading-interval", h.updateTradingInterval)
	}

	if h.services.Snapshots != nil {
		h.router.GET("/api/v1/snapshot", h.getSnapshot)
	}
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, appreplay.ErrValidation),
		errors.Is(err, appreplay.ErrNotActive),
		errors.Is(err, appsettings.ErrIntervalOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, appreplay.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrAccountNotFound), errors.Is(err, appcurve.ErrAccountNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
