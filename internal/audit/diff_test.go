package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangedFields(t *testing.T) {
	before := map[string]interface{}{"name": "Initech", "email": "a@b.c", "notes": ""}
	after := map[string]interface{}{"name": "Initech LLC", "email": "a@b.c", "notes": "vip"}

	assert.Equal(t, []string{"name", "notes"}, ChangedFields(before, after))
}

func TestChangedFieldsIgnoresBookkeeping(t *testing.T) {
	before := map[string]interface{}{"name": "x", "updated_at": "2026-01-01", "updated_by": 1}
	after := map[string]interface{}{"name": "x", "updated_at": "2026-02-01", "updated_by": 2}

	assert.Empty(t, ChangedFields(before, after))
}

func TestChangedFieldsHandlesAddedAndRemovedKeys(t *testing.T) {
	before := map[string]interface{}{"name": "x", "phone": "555"}
	after := map[string]interface{}{"name": "x", "address": "Main St"}

	assert.Equal(t, []string{"address", "phone"}, ChangedFields(before, after))
}

func TestChangedFieldsComparesAcrossNumericTypes(t *testing.T) {
	// Snapshots that round-tripped through JSON come back as float64
	before := map[string]interface{}{"minutes": 30}
	after := map[string]interface{}{"minutes": float64(30)}

	assert.Empty(t, ChangedFields(before, after))
}
