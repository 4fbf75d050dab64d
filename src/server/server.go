package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	cfg "reefing/src/configuration"
	"reefing/src/logger"
)

func corsConfig(config cfg.CORSProperties) cors.Config {
	suffixes := config.OriginSuffixes
	return cors.Config{
		AllowOrigins:  config.Origins,
		AllowMethods:  []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control", logger.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", logger.RequestIDHeader},
		AllowOriginFunc: func(origin string) bool {
			for _, suffix := range suffixes {
				if suffix != "" && strings.HasSuffix(origin, suffix) {
					return true
				}
			}
			return false
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.FromContext(c.Request.Context()).WithField("panic", recovered).Error("handler panicked")
		fail(c, http.StatusInternalServerError, "Internal server error")
	})
}

// NewRouter wires middleware and routes. metrics may be nil.
func NewRouter(config *cfg.Properties, handler *AppHandler, auth *AuthHandler, metrics *HTTPMetrics) *gin.Engine {
	router := gin.New()
	router.Use(logger.Middleware(), recovery())
	if metrics != nil {
		router.Use(metrics.Middleware())
		router.GET("/metrics", metrics.Handler())
	}
	router.Use(cors.New(corsConfig(config.CORS)))
	if config.Server.Pprof {
		pprof.Register(router)
	}

	router.GET("/", handler.Root)

	api := router.Group("/api")
	api.GET("/health", handler.GetHealth)

	public := api.Group("/public")
	public.GET("/explore", handler.Explore)
	public.GET("/collection/:username", handler.Collection)

	authorized := api.Group("", auth.RequireToken(), auth.EnsureUser())
	authorized.GET("/health/db", handler.GetHealthDB)
	authorized.GET("/health/s3", handler.GetHealthS3)

	users := authorized.Group("/users")
	users.POST("/sync", handler.SyncUser)
	users.GET("/me", handler.GetMe)
	users.PUT("/me", handler.UpdateMe)
	users.POST("/me/photo", handler.UploadProfilePhoto)
	users.DELETE("/me/photo", handler.DeleteProfilePhoto)

	aquariums := authorized.Group("/aquariums")
	aquariums.GET("", handler.ListAquariums)
	aquariums.POST("", handler.CreateAquarium)
	aquariums.GET("/:id", handler.GetAquarium)
	aquariums.PUT("/:id", handler.UpdateAquarium)
	aquariums.DELETE("/:id", handler.DeleteAquarium)
	aquariums.GET("/:id/photos", handler.ListAquariumPhotos)
	aquariums.POST("/:id/photos", handler.UploadAquariumPhotos)
	aquariums.POST("/:id/photo", handler.UploadAquariumPhotos)
	aquariums.DELETE("/:id/photos/:photoId", handler.DeleteAquariumPhoto)

	aquariums.GET("/:id/equipment", handler.ListEquipment)
	aquariums.POST("/:id/equipment", handler.CreateEquipment)
	aquariums.PUT("/:id/equipment/:equipmentId", handler.UpdateEquipment)
	aquariums.DELETE("/:id/equipment/:equipmentId", handler.DeleteEquipment)

	aquariums.GET("/:id/corals", handler.ListCorals)
	aquariums.POST("/:id/corals", handler.CreateCoral)
	aquariums.PUT("/:id/corals/:coralId", handler.UpdateCoral)
	aquariums.DELETE("/:id/corals/:coralId", handler.DeleteCoral)
	aquariums.POST("/:id/corals/:coralId/photo", handler.UploadCoralPhoto)
	aquariums.DELETE("/:id/corals/:coralId/photo", handler.DeleteCoralPhoto)

	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Not found")
	})
	return router
}

// RunServer serves the API until ctx is cancelled, then shuts down gracefully.
func RunServer(ctx context.Context, config *cfg.Properties, handler *AppHandler, auth *AuthHandler) error {
	var metrics *HTTPMetrics
	if config.Server.Metrics {
		metrics = NewHTTPMetrics()
	}
	srv := &http.Server{
		Addr:         ":" + config.Server.Port,
		Handler:      NewRouter(config, handler, auth, metrics),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Default().WithField("addr", srv.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Default().Info("shutting down server")
	return srv.Shutdown(shutdownCtx)
}
