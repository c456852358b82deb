package api

import (
	"log/slog"
	"time"

	"github.com/freekieb7/casetrack/internal/cases"
	"github.com/freekieb7/casetrack/internal/config"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/kv"
	"github.com/freekieb7/casetrack/internal/middleware"
	"github.com/freekieb7/casetrack/internal/session"
	"github.com/freekieb7/casetrack/internal/telemetry"
	"github.com/freekieb7/casetrack/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// multipart framing on top of the largest accepted file
const bodyLimitOverhead = 1 << 20

type Dependencies struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     *kv.Store
	Sessions  *session.Store
	Identity  *identity.Gateway
	Directory *user.Manager
	Cases     *cases.Manager
	// Files serves locally stored attachments under /files. Nil for remote storage.
	Files FileOpener
}

// NewApp builds the fiber application with every route registered.
func NewApp(deps Dependencies) *fiber.App {
	maxUpload := deps.Config.Storage.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = config.MaxUploadSize
	}

	app := fiber.New(fiber.Config{
		AppName:               deps.Config.Telemetry.ServiceName,
		ReadTimeout:           deps.Config.Server.ReadTimeout,
		WriteTimeout:          deps.Config.Server.WriteTimeout,
		BodyLimit:             int(maxUpload) + bodyLimitOverhead,
		DisableStartupMessage: true,
		// params, queries and parsed bodies end up in long-lived service state
		Immutable:    true,
		ErrorHandler: errorHandler(deps.Logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(telemetry.FiberMiddleware(deps.Config.Telemetry.ServiceName))
	app.Use(middleware.Logger(deps.Logger))
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.SessionIdentity(deps.Logger, deps.Sessions))

	health := NewHealthHandler(deps.Store)
	auth := NewAuthHandler(deps.Logger, deps.Sessions, deps.Identity, deps.Directory)
	caseHandler := NewCaseHandler(deps.Logger, deps.Cases)
	directory := NewDirectoryHandler(deps.Logger, deps.Directory)

	authLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many sign-in attempts, try again later",
			})
		},
	})

	authGroup := app.Group("/auth")
	authGroup.Get("/login", authLimiter, auth.Login)
	authGroup.Get("/callback", authLimiter, auth.Callback)
	authGroup.Post("/logout", auth.Logout)
	authGroup.Get("/me", auth.Me)

	api := app.Group("/api")
	api.Get("/health", health.Healthy)

	api.Get("/cases", caseHandler.ListCases)
	api.Post("/cases", caseHandler.CreateCase)
	api.Get("/cases/:id", caseHandler.GetCase)
	api.Patch("/cases/:id", caseHandler.UpdateCase)
	api.Delete("/cases/:id", caseHandler.DeleteCase)
	api.Post("/cases/:id/status", caseHandler.SetStatus)
	api.Get("/cases/:id/notes", caseHandler.ListNotes)
	api.Post("/cases/:id/notes", caseHandler.AddNote)
	api.Get("/cases/:id/attachments", caseHandler.ListAttachments)
	api.Post("/cases/:id/attachments", caseHandler.UploadAttachment)
	api.Get("/cases/:id/attachments/:attachmentID/download", caseHandler.DownloadAttachment)

	api.Get("/case-managers", directory.ListCaseManagers)

	admin := api.Group("/admin", middleware.RequireAdmin(deps.Directory))
	admin.Get("/users", directory.ListUsers)
	admin.Post("/users", directory.AddUser)
	admin.Patch("/users/:id", directory.UpdateUser)
	admin.Delete("/users/:id", directory.RemoveUser)
	admin.Get("/case-managers", directory.ListCaseManagers)
	admin.Post("/case-managers", directory.AddCaseManager)
	admin.Delete("/case-managers/:id", directory.RemoveCaseManager)

	if deps.Files != nil {
		app.Get("/files/:key", NewFileHandler(deps.Logger, deps.Files).Serve)
	}

	return app
}
