package router

import (
	"ideanest-backend/internal/app"
	authsvc "ideanest-backend/internal/application/auth"
	"ideanest-backend/internal/application/documents"
	authhandler "ideanest-backend/internal/interfaces/handlers/auth"
	chainhandler "ideanest-backend/internal/interfaces/handlers/chain"
	healthhandler "ideanest-backend/internal/interfaces/handlers/health"
	invhandler "ideanest-backend/internal/interfaces/handlers/investments"
	profilehandler "ideanest-backend/internal/interfaces/handlers/profiles"
	projecthandler "ideanest-backend/internal/interfaces/handlers/projects"
	"ideanest-backend/internal/middleware"
	"ideanest-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// bodyLimit lets moderately oversize MOUs reach the document service, which
// reports them with their size.
const bodyLimit = 2*documents.MaxSize + 1<<20

// CreateApp builds the Fiber app with global middleware and every route.
func CreateApp(c *app.Container) *fiber.App {
	cfg := c.Config
	fa := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               bodyLimit,
	})

	fa.Use(middleware.Tracing())
	fa.Use(middleware.RouteLogger())
	fa.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	fa.Use(middleware.HealthMarker(c.Rdb))
	fa.Use(middleware.Metrics(c.Metrics))
	fa.Use(middleware.SessionWithClient(c.Rdb))

	fa.Get("/metrics", adaptor.HTTPHandler(c.Metrics.Handler()))

	hh := &healthhandler.Handlers{Rdb: c.Rdb, Checker: c.Health, HealthAdminKey: cfg.HealthAdminKey}
	fa.Get("/", hh.Dashboard)
	fa.Get("/reset", hh.Reset)
	fa.Get("/health/json", hh.JSON)
	fa.Get("/health/errors", hh.Errors)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	api := fa.Group("/api/v1")

	ah := &authhandler.Handlers{UserFinder: &authsvc.GormUserFinder{DB: c.DB}, Rdb: c.Rdb, Config: sessionCfg}
	ag := api.Group("/auth")
	ag.Post("/login", ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)
	ag.Delete("/sessions", middleware.RequireAuth(), ah.LogoutAll)

	ph := &profilehandler.Handlers{Service: c.Profiles, Config: sessionCfg}
	api.Post("/profiles/create-profile", ph.CreateProfile)
	pg := api.Group("/profiles", middleware.RequireAuth())
	pg.Get("/view-profile", ph.ViewProfile)
	pg.Put("/update-profile", ph.UpdateProfile)

	ih := &invhandler.Handlers{Service: c.Negotiation}

	prh := &projecthandler.Handlers{Service: c.Projects}
	prg := api.Group("/projects", middleware.RequireAuth())
	prg.Post("/", middleware.AuthorizePermission(constants.CreateProject), prh.Create)
	prg.Get("/active", prh.ListActive)
	prg.Get("/mine", middleware.AuthorizePermission(constants.ManageProject), prh.ListMine)
	prg.Get("/:id", prh.Get)
	prg.Get("/:id/investments", middleware.AuthorizePermission(constants.ViewInvestments), ih.ListForProject)
	prg.Put("/:id", middleware.AuthorizePermission(constants.ManageProject), prh.Update)
	prg.Patch("/:id/status", middleware.AuthorizePermission(constants.ManageProject), prh.ChangeStatus)
	prg.Delete("/:id", middleware.AuthorizePermission(constants.ManageProject), prh.Delete)

	ig := api.Group("/investments", middleware.RequireAuth())
	ig.Post("/", middleware.AuthorizePermission(constants.OpenInvestment), ih.Open)
	ig.Get("/mine", middleware.AuthorizePermission(constants.OpenInvestment), ih.ListMine)
	ig.Get("/incoming", middleware.AuthorizePermission(constants.ManageProject), ih.ListIncoming)
	ig.Get("/:id", middleware.AuthorizePermission(constants.ViewInvestments), ih.Get)
	ig.Get("/:id/events", middleware.AuthorizePermission(constants.ViewInvestments), ih.Events)
	ig.Get("/:id/transactions", middleware.AuthorizePermission(constants.ViewInvestments), ih.Transactions)
	ig.Patch("/:id/calendly", middleware.AuthorizePermission(constants.Negotiate), ih.SetCalendlyLink)
	ig.Patch("/:id/call-status", middleware.AuthorizePermission(constants.Negotiate), ih.SetCallStatus)
	ig.Patch("/:id/deal-status", middleware.AuthorizePermission(constants.Negotiate), ih.SetDealStatus)
	ig.Post("/:id/documents", middleware.AuthorizePermission(constants.UploadDocument), ih.UploadMOU)
	ig.Post("/:id/withdraw", middleware.AuthorizePermission(constants.Negotiate), ih.Withdraw)
	ig.Post("/:id/chain/lock-funds", middleware.AuthorizePermission(constants.LockFunds), ih.LockFunds)
	ig.Post("/:id/chain/schedule-call", middleware.AuthorizePermission(constants.Negotiate), ih.ScheduleCall)
	ig.Post("/:id/chain/anchor-mou", middleware.AuthorizePermission(constants.UploadDocument), ih.AnchorMOU)
	ig.Post("/:id/chain/release-funds", middleware.AuthorizePermission(constants.ReleaseFunds), ih.ReleaseFunds)
	ig.Post("/:id/settle", middleware.AuthorizePermission(constants.SettleInvestment), ih.Settle)

	ch := &chainhandler.Handlers{Wallet: c.Wallet}
	cg := api.Group("/chain", middleware.RequireAuth())
	cg.Get("/status", ch.Status)
	cg.Post("/connect", ch.Connect)

	return fa
}
