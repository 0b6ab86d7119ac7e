package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	alertdomain "github.com/vantage-sense/vantage/internal/alert/domain"
	"github.com/vantage-sense/vantage/internal/alerting/livehub"
	"github.com/vantage-sense/vantage/internal/config"
	measurementdomain "github.com/vantage-sense/vantage/internal/measurement/domain"
	"github.com/vantage-sense/vantage/internal/ratelimit"
	thresholddomain "github.com/vantage-sense/vantage/internal/threshold/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node

	measurementSvc measurementdomain.Service
	thresholdSvc   thresholddomain.Service
	alertSvc       alertdomain.Service
	liveAlerts     *livehub.Hub
	ingestLimiter  *ratelimit.MeasurementIngestLimiter
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node

	MeasurementSvc measurementdomain.Service
	ThresholdSvc   thresholddomain.Service
	AlertSvc       alertdomain.Service
	LiveAlerts     *livehub.Hub
	IngestLimiter  *ratelimit.MeasurementIngestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		db:     p.DB,
		log:    p.Log.Named("server"),
		genID:  p.GenID,

		measurementSvc: p.MeasurementSvc,
		thresholdSvc:   p.ThresholdSvc,
		alertSvc:       p.AlertSvc,
		liveAlerts:     p.LiveAlerts,
		ingestLimiter:  p.IngestLimiter,
	}
}

// RegisterAPIRoutes mounts the authenticated v1 surface.
func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")
	v1.Use(s.TokenRequired())

	v1.POST("/measurements", s.IngestMeasurement)
	v1.GET("/measurements", s.ListMeasurements)

	v1.GET("/thresholds", s.GetThresholdProfile)
	v1.PUT("/thresholds", s.UpsertThresholdProfile)

	v1.GET("/alerts", s.ListAlerts)
	v1.GET("/alerts/stream", s.StreamAlerts)
	v1.POST("/alerts/:id/read", s.MarkAlertRead)
	v1.POST("/alerts/:id/acknowledge", s.AcknowledgeAlert)
	v1.POST("/alerts/:id/resolve", s.ResolveAlert)
}

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
	}),
	fx.Invoke(run),
)
