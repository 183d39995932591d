package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig bundles what NewRouter wires.
type RouterConfig struct {
	Query          *QueryHandler
	Dataset        *DatasetHandler
	AdminTokenHash string
	Logger         *zap.Logger
}

// NewRouter sets up the gin engine with every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	r.GET("/health", cfg.Query.Health)

	api := r.Group("/api")
	{
		// Question endpoints
		api.POST("/perguntas", cfg.Query.Ask)
		api.GET("/respostas/:ticket", cfg.Query.GetAnswer)

		// Dataset endpoints
		if cfg.Dataset != nil {
			api.GET("/dataset", cfg.Dataset.Info)
			admin := api.Group("/dataset", RequireAdminToken(cfg.AdminTokenHash))
			admin.POST("", cfg.Dataset.Upload)
			admin.POST("/reload", cfg.Dataset.Reload)
			admin.GET("/arquivos", cfg.Dataset.ListFiles)
		}
	}
	return r
}
