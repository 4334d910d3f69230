package routes

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"todo-realtime/internal/controller"
	"todo-realtime/internal/hub"
	"todo-realtime/internal/middleware"
	"todo-realtime/internal/service"
)

// Deps are the objects the router hands to its handlers.
type Deps struct {
	Todos        *service.Todos
	Hub          *hub.Hub
	JWTSecret    string
	CORSOrigins  []string
	WSSendBuffer int
}

func Router(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware(d.CORSOrigins))

	// Health for load balancers and K8s probes
	router.GET("/health", controller.Health)
	router.GET("/ready", controller.Ready(d.Todos))

	todos := controller.NewTodos(d.Todos)
	socket := controller.NewSocket(d.Hub, d.Todos, d.WSSendBuffer)

	// Protected: JWT required
	api := router.Group("")
	api.Use(middleware.Auth(d.JWTSecret))
	{
		api.GET("/todos/", todos.List)
		api.POST("/todos/", todos.Create)
		api.GET("/todos/:id/", todos.Get)
		api.PUT("/todos/:id/", todos.Update)
		api.PATCH("/todos/:id/", todos.Patch)
		api.DELETE("/todos/:id/", todos.Delete)

		api.GET("/socket/todos/", socket.Serve)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
