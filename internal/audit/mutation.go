package audit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is a generic entity record: a mapping from column name to value.
// The mutation wrappers operate on rows and explicit table names so one
// implementation covers every table regardless of which optional audit
// columns it carries.
type Row = map[string]interface{}

// Actor identifies who performs a mutation and on behalf of which team
type Actor struct {
	UserID uint
	TeamID uint
	IP     string
}

// ErrNotFound is returned when an update or soft delete targets an id
// that does not exist, is already deleted, or belongs to another team.
var ErrNotFound = errors.New("record not found")

// CreateWithAudit inserts a row into the given table, stamping the team
// and whichever audit columns the table supports, and appends one
// activity record carrying the created snapshot. A failed insert
// propagates to the caller and produces no activity record.
func CreateWithAudit(ctx context.Context, table string, entity EntityType, data Row, actor Actor) (Row, error) {
	now := time.Now()

	row := make(Row, len(data)+5)
	for k, v := range data {
		row[k] = v
	}
	row["team_id"] = actor.TeamID
	row["created_at"] = now
	row["updated_at"] = now
	if ColumnExists(table, ColumnCreatedBy) {
		row[ColumnCreatedBy] = actor.UserID
	}
	if ColumnExists(table, ColumnUpdatedBy) {
		row[ColumnUpdatedBy] = actor.UserID
	}

	result := db.WithContext(ctx).Table(table).Clauses(clause.Returning{}).Create(&row)
	if result.Error != nil {
		return nil, result.Error
	}

	log.Info("entity created",
		zap.String("table", table),
		zap.String("entity", string(entity)),
		zap.Uint("team_id", actor.TeamID),
		zap.Uint("user_id", actor.UserID))

	_ = Record(ctx, Entry{
		TeamID:     actor.TeamID,
		UserID:     UserRef(actor.UserID),
		Action:     Classify(entity, OpCreate),
		EntityType: entity,
		EntityID:   rowID(row),
		IP:         actor.IP,
		Details:    map[string]interface{}{"created": row},
	})

	return row, nil
}

// UpdateWithAudit applies a patch to an existing row and appends one
// activity record holding full before and after snapshots. The feed is
// responsible for diffing them; the log stores the snapshots whole.
func UpdateWithAudit(ctx context.Context, table string, entity EntityType, id uint, data Row, actor Actor) (Row, error) {
	before, err := fetchRow(ctx, table, id, actor.TeamID)
	if err != nil {
		return nil, err
	}

	patch := make(Row, len(data)+2)
	for k, v := range data {
		patch[k] = v
	}
	patch["updated_at"] = time.Now()
	if ColumnExists(table, ColumnUpdatedBy) {
		patch[ColumnUpdatedBy] = actor.UserID
	}

	if err := db.WithContext(ctx).Table(table).Where("id = ?", id).Updates(patch).Error; err != nil {
		return nil, err
	}

	after, err := fetchRow(ctx, table, id, actor.TeamID)
	if err != nil {
		return nil, err
	}

	log.Info("entity updated",
		zap.String("table", table),
		zap.String("entity", string(entity)),
		zap.Uint("id", id),
		zap.Uint("team_id", actor.TeamID),
		zap.Uint("user_id", actor.UserID))

	_ = Record(ctx, Entry{
		TeamID:     actor.TeamID,
		UserID:     UserRef(actor.UserID),
		Action:     Classify(entity, OpUpdate),
		EntityType: entity,
		EntityID:   &id,
		IP:         actor.IP,
		Details:    map[string]interface{}{"before": before, "after": after},
	})

	return after, nil
}

// SoftDeleteWithAudit marks a row deleted without removing it, so listing
// queries filtering on deleted_at stop returning it while foreign keys
// stay intact. One activity record is appended with the pre-delete
// snapshot as its payload.
func SoftDeleteWithAudit(ctx context.Context, table string, entity EntityType, id uint, actor Actor) (Row, error) {
	before, err := fetchRow(ctx, table, id, actor.TeamID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	patch := Row{
		"deleted_at": now,
		"updated_at": now,
	}
	if ColumnExists(table, ColumnDeletedBy) {
		patch[ColumnDeletedBy] = actor.UserID
	}
	if ColumnExists(table, ColumnUpdatedBy) {
		patch[ColumnUpdatedBy] = actor.UserID
	}

	if err := db.WithContext(ctx).Table(table).Where("id = ?", id).Updates(patch).Error; err != nil {
		return nil, err
	}

	// Re-read without the deleted filter to return the final row state
	var after Row
	if err := db.WithContext(ctx).Table(table).
		Where("id = ? AND team_id = ?", id, actor.TeamID).
		Take(&after).Error; err != nil {
		return nil, err
	}

	log.Info("entity soft-deleted",
		zap.String("table", table),
		zap.String("entity", string(entity)),
		zap.Uint("id", id),
		zap.Uint("team_id", actor.TeamID),
		zap.Uint("user_id", actor.UserID))

	_ = Record(ctx, Entry{
		TeamID:     actor.TeamID,
		UserID:     UserRef(actor.UserID),
		Action:     Classify(entity, OpDelete),
		EntityType: entity,
		EntityID:   &id,
		IP:         actor.IP,
		Details:    map[string]interface{}{"deleted": before},
	})

	return after, nil
}

// fetchRow reads the live (not soft-deleted) row by id, scoped to the
// acting team.
func fetchRow(ctx context.Context, table string, id, teamID uint) (Row, error) {
	var row Row
	err := db.WithContext(ctx).Table(table).
		Where("id = ? AND team_id = ?", id, teamID).
		Where("deleted_at IS NULL").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// rowID extracts the generated id from a returned row. Drivers disagree
// on the scanned integer type, so every common width is accepted.
func rowID(row Row) *uint {
	switch v := row["id"].(type) {
	case uint:
		return &v
	case uint64:
		id := uint(v)
		return &id
	case int64:
		id := uint(v)
		return &id
	case int:
		id := uint(v)
		return &id
	case float64:
		id := uint(v)
		return &id
	default:
		return nil
	}
}
