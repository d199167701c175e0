package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	app "github.com/SatishBytes/thumbly/src/app"
	cfg "github.com/SatishBytes/thumbly/src/configuration"
	db "github.com/SatishBytes/thumbly/src/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with CORS, the API routes and the
// 404/405 fallbacks. Dependencies come in through the handler so tests can
// run the full router against stubs.
func NewRouter(handler *AppHandler, allowedOrigins []string) *gin.Engine {
	router := gin.Default()
	router.HandleMethodNotAllowed = true
	//
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	pprof.Register(router)

	// Register Routes
	router.GET("/health", handler.GetHealth)
	router.POST("/api/upload", handler.PostUpload)
	router.GET("/api/list", handler.GetList)
	router.DELETE("/api/delete", handler.DeleteThumbnail)
	router.POST("/api/gen-ai-thumbnail", handler.PostGenerate)

	router.NoRoute(func(ctx *gin.Context) { ctx.JSON(http.StatusNotFound, gin.H{}) })
	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method Not Allowed"})
	})
	return router
}

func RunServer(config *cfg.Properties) {
	clientS3, err := app.NewMinioS3Client(
		config.S3.Host,
		config.S3.AccessKey,
		config.S3.SecretKey,
		config.S3.Bucket,
		config.S3.UseSSL)
	if err != nil {
		log.Fatalf("could not connect to minio %v", err)
	}
	gemini := app.NewGeminiClient(
		config.Gemini.Host,
		config.Gemini.APIKey,
		config.Gemini.Model,
		config.Gemini.Timeout)
	identity := NewIdentityResolver(config, db.NewSessionStore())

	handler := NewHandler(clientS3, gemini, identity)
	router := NewRouter(handler, config.Server.AllowedOrigins)

	// Start the server
	router.Run(fmt.Sprintf(":%s", config.Server.Port))
}
