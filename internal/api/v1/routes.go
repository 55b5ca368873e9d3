package v1

import (
	"time"

	"bugboard/configs"
	"bugboard/internal/api/v1/handlers"
	"bugboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// NewApp builds the fiber app with the shared middleware and every route.
func NewApp(cfg configs.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "bugboard",
		BodyLimit: 4 << 20,
	})

	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PATCH,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, apikey, x-client-info",
		AllowCredentials: cfg.CORSOrigins != "*",
	}))
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: 1 * time.Minute,
		}))
	}

	app.Get("/healthz", handlers.Healthz)
	RegisterRoutes(app)
	return app
}

func RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)
	authRoutes.Post("/logout", handlers.Logout)

	// Profile; bootstrap runs right after signup, before a session exists.
	api.Post("/profile/bootstrap", handlers.BootstrapProfile)
	profileRoutes := api.Group("/profile", middleware.Authenticate)
	profileRoutes.Get("/", handlers.GetProfile)
	profileRoutes.Patch("/", handlers.UpdateProfile)
	profileRoutes.Post("/logo", handlers.UploadCompanyLogo)
	api.Get("/uploads/:filename", handlers.GetUpload)

	// Tasks and comments live on the resolved board.
	taskRoutes := api.Group("/tasks", middleware.Authenticate, middleware.ResolveBoard)
	taskRoutes.Get("/", handlers.ListTasks)
	taskRoutes.Post("/", handlers.CreateTask)
	taskRoutes.Get("/:id", handlers.GetTask)
	taskRoutes.Patch("/:id", handlers.UpdateTask)
	taskRoutes.Delete("/:id", handlers.DeleteTask)
	taskRoutes.Get("/:id/comments", handlers.ListComments)
	taskRoutes.Post("/:id/comments", handlers.CreateComment)

	// Reports belong to their author; promotion lands on the author's board.
	reportRoutes := api.Group("/reports", middleware.Authenticate)
	reportRoutes.Get("/", handlers.ListReports)
	reportRoutes.Post("/", handlers.CreateReport)
	reportRoutes.Patch("/:id", handlers.UpdateReport)
	reportRoutes.Delete("/:id", handlers.DeleteReport)
	reportRoutes.Post("/:id/promote", middleware.ResolveBoard, handlers.PromoteReport)

	// GitHub
	githubRoutes := api.Group("/github", middleware.Authenticate)
	githubRoutes.Get("/projects", handlers.ListGithubProjects)
	githubRoutes.Post("/projects", handlers.CreateGithubProject)
	githubRoutes.Delete("/projects", handlers.DeleteGithubProject)
	githubRoutes.Delete("/projects/:id", handlers.DeleteGithubProject)
	githubRoutes.Post("/create-issue", middleware.ResolveBoard, handlers.CreateGithubIssue)
	githubRoutes.Post("/create-branch", middleware.ResolveBoard, handlers.CreateGithubBranch)

	// Live board events
	api.Get("/ws/board", handlers.RequireUpgrade, middleware.Authenticate, middleware.ResolveBoard, handlers.BoardSocket)
}
