package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskline/backend/api/handler"
)

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	Profile  *apiHandler.ProfileHandler
	Task     *apiHandler.TaskHandler
	Template *apiHandler.TemplateHandler
	Instance *apiHandler.InstanceHandler
	View     *apiHandler.ViewHandler
	Holiday  *apiHandler.HolidayHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", handlers.Auth.Logout)

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))

	r.GET("/api/v1/groups", authMiddleware(handlers.Profile.GetGroups))
	r.POST("/api/v1/groups", authMiddleware(handlers.Profile.SaveGroup))
	r.DELETE("/api/v1/groups/{id}", authMiddleware(handlers.Profile.DeleteGroup))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.POST("/api/v1/tasks/{id}/complete", authMiddleware(handlers.Task.CompleteTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	r.GET("/api/v1/templates", authMiddleware(handlers.Template.GetTemplates))
	r.POST("/api/v1/templates", authMiddleware(handlers.Template.CreateTemplate))
	r.PUT("/api/v1/templates/{id}", authMiddleware(handlers.Template.UpdateTemplate))
	r.POST("/api/v1/templates/{id}/deactivate", authMiddleware(handlers.Template.DeactivateTemplate))
	r.DELETE("/api/v1/templates/{id}", authMiddleware(handlers.Template.DeleteTemplate))
	r.GET("/api/v1/templates/{id}/expand", authMiddleware(handlers.Template.ExpandTemplate))

	r.GET("/api/v1/templates/{id}/instances", authMiddleware(handlers.Instance.ListInstances))
	r.POST("/api/v1/templates/{id}/reconcile", authMiddleware(handlers.Instance.ReconcileTemplate))
	r.PATCH("/api/v1/instances/{id}", authMiddleware(handlers.Instance.PatchInstance))

	r.GET("/api/v1/views/{view}", authMiddleware(handlers.View.GetView))
	r.GET("/api/v1/query", authMiddleware(handlers.View.QueryTasks))

	r.GET("/api/v1/holidays", authMiddleware(handlers.Holiday.List))
	r.POST("/api/v1/holidays", authMiddleware(handlers.Holiday.Create))
	r.DELETE("/api/v1/holidays/{date}", authMiddleware(handlers.Holiday.Delete))
	r.GET("/api/v1/holidays/check", authMiddleware(handlers.Holiday.Check))

	return r
}
