package audit

import (
	"sync"

	"helpdesk-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Optional per-user audit columns. Not every table carries them: the
// schema evolved table by table and was never migrated destructively,
// so their presence has to be resolved per table before a write.
const (
	ColumnCreatedBy = "created_by"
	ColumnUpdatedBy = "updated_by"
	ColumnDeletedBy = "deleted_by"
)

// commonAuditColumns are the lifecycle columns for which "absent" is the
// safe answer when a table cannot be probed. Writing one of these to a
// table that lacks it would reject the whole mutation; omitting it never
// does.
var commonAuditColumns = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"deleted_at":    true,
	ColumnCreatedBy: true,
	ColumnUpdatedBy: true,
	ColumnDeletedBy: true,
}

// Capabilities declares which optional audit columns a table supports.
// Registered explicitly at the composition root for known tables so that
// an empty table is never mistaken for a table without audit columns.
type Capabilities struct {
	CreatedBy bool
	UpdatedBy bool
	DeletedBy bool
}

var (
	db  *gorm.DB
	log *zap.Logger

	mu            sync.RWMutex
	capabilities  map[string]Capabilities
	probedColumns map[string]map[string]bool
)

// Init wires the audit layer to a database handle and logger. It resets
// the capability registry and the probed-column cache, so tests can call
// it with a fresh database.
func Init(gdb *gorm.DB, logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	db = gdb
	log = logger
	capabilities = make(map[string]Capabilities)
	probedColumns = make(map[string]map[string]bool)
}

// RegisterTable declares the audit-column capabilities of a table.
// Registered answers win over probing and are never sampled.
func RegisterTable(table string, caps Capabilities) {
	mu.Lock()
	defer mu.Unlock()
	capabilities[table] = caps
}

// ColumnExists reports whether a column can safely be set on rows of the
// given table. It never returns an error: probe failures are logged and
// resolved conservatively, erring toward omitting an optional column
// rather than blocking the caller's mutation.
func ColumnExists(table, column string) bool {
	mu.RLock()
	caps, registered := capabilities[table]
	cols, probed := probedColumns[table]
	mu.RUnlock()

	if registered {
		switch column {
		case ColumnCreatedBy:
			return caps.CreatedBy
		case ColumnUpdatedBy:
			return caps.UpdatedBy
		case ColumnDeletedBy:
			return caps.DeletedBy
		}
	}

	if probed {
		return cols[column]
	}

	cols, err := probeColumns(table)
	if err != nil {
		log.Warn("audit column probe failed, treating column as absent",
			zap.String("table", table),
			zap.String("column", column),
			zap.Error(err))
		prometheus.ColumnProbeFailureCounter.Inc()
		return !commonAuditColumns[column]
	}

	if cols == nil {
		// Table is empty and exposes no metadata. Nothing worth caching:
		// assume the optional audit columns are absent and let anything
		// else through.
		return !commonAuditColumns[column]
	}

	mu.Lock()
	if existing, ok := probedColumns[table]; ok {
		// Another request probed the same table first; keep its entry.
		// Entries are add-only, so a redundant probe is the worst case.
		cols = existing
	} else {
		probedColumns[table] = cols
	}
	mu.Unlock()

	return cols[column]
}

// probeColumns resolves the column set of a table, preferring schema
// metadata over data sampling. A nil map with a nil error means the table
// yielded neither metadata nor rows.
func probeColumns(table string) (map[string]bool, error) {
	// Schema metadata first: one information_schema read, no row data.
	if types, err := db.Migrator().ColumnTypes(table); err == nil && len(types) > 0 {
		cols := make(map[string]bool, len(types))
		for _, ct := range types {
			cols[ct.Name()] = true
		}
		return cols, nil
	}

	// Fall back to sampling one row and taking its key set.
	prometheus.ColumnProbeFallbackCounter.Inc()
	var sample []map[string]interface{}
	if err := db.Table(table).Limit(1).Find(&sample).Error; err != nil {
		return nil, err
	}
	if len(sample) == 0 {
		return nil, nil
	}

	cols := make(map[string]bool, len(sample[0]))
	for name := range sample[0] {
		cols[name] = true
	}
	return cols, nil
}
