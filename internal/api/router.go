package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/api/handler"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/api/middleware"
	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
)

// Deps carries everything the HTTP layer needs. Without Rekognition the
// LPR service still exists and its route answers 503.
type Deps struct {
	Env       string
	Logger    zerolog.Logger
	Auth      handler.Authenticator
	AuthMw    *middleware.AuthMiddleware
	Plates    handler.PlateChecker
	Vehicles  handler.VehicleRegistry
	LPR       handler.PlateRecognizer
	Gate      handler.GateEventProcessor
	WSManager *handler.WebSocketManager
	Metrics   http.Handler
}

func SetupRouter(d Deps) *gin.Engine {
	if d.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger.With().Str("component", "http").Logger()))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	if d.WSManager != nil {
		wsHandler := handler.NewWebSocketHandler(d.WSManager)
		r.GET("/ws", wsHandler.HandleWebSocket)
	}

	authHandler := handler.NewAuthHandler(d.Auth)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(d.AuthMw.Authenticate())
	{
		plateH := handler.NewPlateHandler(d.Plates)
		v1.POST("/plates/validate", plateH.Validate)

		vehicleH := handler.NewVehicleHandler(d.Vehicles)
		vehicleRoutes := v1.Group("/vehicles")
		{
			vehicleRoutes.GET("", vehicleH.List)
			vehicleRoutes.GET("/:plate", vehicleH.Get)
			vehicleRoutes.POST("", d.AuthMw.AuthorizeRole(domain.RoleAdmin), vehicleH.Create)
			vehicleRoutes.PUT("/:plate", d.AuthMw.AuthorizeRole(domain.RoleAdmin), vehicleH.UpdateAuthorization)
			vehicleRoutes.DELETE("/:plate", d.AuthMw.AuthorizeRole(domain.RoleAdmin), vehicleH.Delete)
		}

		lprH := handler.NewLPRHandler(d.LPR, d.Logger)
		v1.POST("/lpr/process-image", d.AuthMw.AuthorizeRole(domain.RoleAdmin, domain.RoleOperator), lprH.ProcessImage)

		gateH := handler.NewGateEventHandler(d.Gate)
		gateRoutes := v1.Group("/gate-events")
		gateRoutes.Use(d.AuthMw.AuthorizeRole(domain.RoleAdmin, domain.RoleOperator))
		{
			gateRoutes.POST("/plate-read", gateH.PlateRead)
			gateRoutes.POST("/:event_id/override", gateH.Override)
			gateRoutes.GET("/pending", gateH.Pending)
		}
	}
	return r
}
