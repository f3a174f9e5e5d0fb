package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"laundry-reservation-backend/config"
	"laundry-reservation-backend/internal/mw"
	"laundry-reservation-backend/internal/reservation"
	"laundry-reservation-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, svc *reservation.Service, s store.Store, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(svc, s, webpushOptions)

	// Zero values disable the middleware; tests construct the router with a
	// bare ServerConfig.
	passthrough := func(c *gin.Context) { c.Next() }

	rateLimiter := passthrough
	if cfg.RateLimitPerSec > 0 {
		rateLimiter = mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	}

	caching := passthrough
	if cfg.CacheTTLSeconds > 0 {
		cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
		cacheStore := cache.New(cacheTTL, 10*cacheTTL)
		caching = mw.Cache(cacheStore, cacheTTL)
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/machines", caching, handler.GetMachines)
		api.GET("/machines/:machine", caching, handler.GetMachine)

		api.POST("/machines/:machine/start", handler.StartMachine)
		api.POST("/machines/:machine/extend", handler.ExtendMachine)
		api.POST("/machines/:machine/finish", handler.FinishMachine)

		api.POST("/machines/:machine/queue", handler.JoinQueue)
		api.POST("/machines/:machine/queue/swap", handler.SwapQueue)
		api.POST("/machines/:machine/queue/leave", handler.LeaveQueue)
		api.POST("/machines/:machine/skip", handler.SkipQueueHead)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
