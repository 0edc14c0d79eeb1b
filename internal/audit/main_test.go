package audit

import (
	"os"
	"testing"

	"helpdesk-service/internal/model"
	"helpdesk-service/pkg/config"
	"helpdesk-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	// Metric vars must exist before any code path increments them.
	// promauto panics on duplicate registration, so this runs exactly once.
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "test"}})
	os.Exit(m.Run())
}

// newTestDB opens a private in-memory database, migrates the schema and
// points the audit layer at it.
func newTestDB(t *testing.T) *gorm.DB {
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

	Init(db, zap.NewNop())
	return db
}

func registerDeploymentTables() {
	RegisterTable(model.TableClients, Capabilities{CreatedBy: true, UpdatedBy: true})
	RegisterTable(model.TableTickets, Capabilities{})
	RegisterTable(model.TableTimeEntries, Capabilities{CreatedBy: true, UpdatedBy: true, DeletedBy: true})
	RegisterTable(model.TableExpenses, Capabilities{CreatedBy: true, UpdatedBy: true, DeletedBy: true})
	RegisterTable(model.TableComments, Capabilities{CreatedBy: true, UpdatedBy: true, DeletedBy: true})
	RegisterTable(model.TableInvoices, Capabilities{CreatedBy: true, UpdatedBy: true})
}
