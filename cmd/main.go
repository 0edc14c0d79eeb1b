package main

import (
	"time"

	"helpdesk-service/internal/audit"
	"helpdesk-service/internal/handler"
	"helpdesk-service/internal/middleware"
	"helpdesk-service/internal/model"
	"helpdesk-service/pkg/config"
	"helpdesk-service/pkg/database"
	"helpdesk-service/pkg/jwtutil"
	"helpdesk-service/pkg/logger"
	"helpdesk-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting helpdesk service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.User{},
		&model.Team{},
		&model.TeamMember{},
		&model.Client{},
		&model.Ticket{},
		&model.TimeEntry{},
		&model.Expense{},
		&model.Comment{},
		&model.Invoice{},
		&model.ActivityLog{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host), zap.String("db_name", cfg.DB.DBName))

	// Wire the audit layer and declare which tables carry which audit
	// columns. Tables added here later can skip registration and fall
	// back to schema probing, but registration avoids the probe entirely.
	audit.Init(database.GetDB(), log)
	audit.RegisterTable(model.TableClients, audit.Capabilities{CreatedBy: true, UpdatedBy: true})
	audit.RegisterTable(model.TableTickets, audit.Capabilities{})
	audit.RegisterTable(model.TableTimeEntries, audit.Capabilities{CreatedBy: true, UpdatedBy: true, DeletedBy: true})
	audit.RegisterTable(model.TableExpenses, audit.Capabilities{CreatedBy: true, UpdatedBy: true, DeletedBy: true})
	audit.RegisterTable(model.TableComments, audit.Capabilities{CreatedBy: true, UpdatedBy: true, DeletedBy: true})
	audit.RegisterTable(model.TableInvoices, audit.Capabilities{CreatedBy: true, UpdatedBy: true})
	log.Info("Audit layer initialized")

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.MetricsMiddleware)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := c.Response().Status

			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.HealthCheck)
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/auth/register", handler.Register)
	e.POST("/auth/login", handler.Login)

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	api.POST("/auth/select-team", handler.SelectTeam)
	api.POST("/teams", handler.CreateTeam)
	api.GET("/teams", handler.ListMyTeams)

	// Team-scoped routes
	scoped := api.Group("")
	scoped.Use(middleware.RequireTeamContext)

	scoped.POST("/teams/members", handler.AddTeamMember)

	scoped.POST("/clients", handler.CreateClient)
	scoped.GET("/clients", handler.ListClients)
	scoped.GET("/clients/:id", handler.GetClient)
	scoped.PUT("/clients/:id", handler.UpdateClient)
	scoped.DELETE("/clients/:id", handler.DeleteClient)

	scoped.POST("/tickets", handler.CreateTicket)
	scoped.GET("/tickets", handler.ListTickets)
	scoped.GET("/tickets/:id", handler.GetTicket)
	scoped.PUT("/tickets/:id", handler.UpdateTicket)
	scoped.DELETE("/tickets/:id", handler.CloseTicket)

	scoped.POST("/tickets/:id/comments", handler.CreateComment)
	scoped.GET("/tickets/:id/comments", handler.ListComments)
	scoped.PUT("/comments/:id", handler.UpdateComment)
	scoped.DELETE("/comments/:id", handler.DeleteComment)

	scoped.POST("/time-entries", handler.CreateTimeEntry)
	scoped.GET("/time-entries", handler.ListTimeEntries)
	scoped.PUT("/time-entries/:id", handler.UpdateTimeEntry)
	scoped.DELETE("/time-entries/:id", handler.DeleteTimeEntry)

	scoped.POST("/expenses", handler.CreateExpense)
	scoped.GET("/expenses", handler.ListExpenses)
	scoped.PUT("/expenses/:id", handler.UpdateExpense)
	scoped.DELETE("/expenses/:id", handler.DeleteExpense)

	scoped.POST("/invoices", handler.CreateInvoice)
	scoped.GET("/invoices", handler.ListInvoices)
	scoped.GET("/invoices/:id", handler.GetInvoice)

	// The activity feed tolerates a token without team context, so it
	// sits behind auth only
	api.GET("/activity", handler.ListActivity)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
