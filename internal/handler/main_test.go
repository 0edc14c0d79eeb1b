package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"helpdesk-service/internal/audit"
	"helpdesk-service/internal/model"
	"helpdesk-service/pkg/config"
	"helpdesk-service/pkg/database"
	"helpdesk-service/pkg/jwtutil"
	"helpdesk-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "handlertest"}})
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	os.Exit(m.Run())
}

// setupTest opens a fresh in-memory database, migrates the schema and
// wires the global database handle and the audit layer to it.
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := db.AutoMigrate(
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
		t.Fatalf("migrating test schema: %v", err)
	}

	database.SetDB(db)
	audit.Init(db, zap.NewNop())
	audit.RegisterTable(model.TableClients, audit.Capabilities{CreatedBy: true, UpdatedBy: true})
	audit.RegisterTable(model.TableTickets, audit.Capabilities{})
	audit.RegisterTable(model.TableTimeEntries, audit.Capabilities{CreatedBy: true, UpdatedBy: true, DeletedBy: true})
	audit.RegisterTable(model.TableExpenses, audit.Capabilities{CreatedBy: true, UpdatedBy: true, DeletedBy: true})
	audit.RegisterTable(model.TableComments, audit.Capabilities{CreatedBy: true, UpdatedBy: true, DeletedBy: true})
	audit.RegisterTable(model.TableInvoices, audit.Capabilities{CreatedBy: true, UpdatedBy: true})

	return db
}

// request builds an echo context carrying the claims the auth middleware
// would have set for an authenticated, team-scoped request.
func request(method, path, body string, userID, teamID uint) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
		c.Set("email", "user@example.test")
	}
	if teamID != 0 {
		c.Set("team_id", teamID)
	}
	return c, rec
}
