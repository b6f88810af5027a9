package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "h1b-statistics/docs"
	"h1b-statistics/internal/api/handler"
	"h1b-statistics/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/counts", h.CreateCounts)
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/runs/*", h.GetRun)
	r.Handle("/swagger/*", httpSwagger.WrapHandler)
}
