package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		entity EntityType
		op     Operation
		want   ActivityType
	}{
		{EntityClient, OpCreate, ActivityClientCreated},
		{EntityClient, OpUpdate, ActivityClientUpdated},
		{EntityClient, OpDelete, ActivityClientDeleted},
		{EntityTicket, OpCreate, ActivityTicketCreated},
		{EntityTicket, OpUpdate, ActivityTicketUpdated},
		{EntityTicket, OpDelete, ActivityTicketClosed},
		{EntityTimeEntry, OpCreate, ActivityTimeEntryCreated},
		{EntityTimeEntry, OpUpdate, ActivityTimeEntryUpdated},
		{EntityTimeEntry, OpDelete, ActivityTimeEntryDeleted},
		{EntityExpense, OpCreate, ActivityExpenseCreated},
		{EntityExpense, OpUpdate, ActivityExpenseUpdated},
		{EntityExpense, OpDelete, ActivityExpenseDeleted},
		{EntityComment, OpCreate, ActivityCommentAdded},
		{EntityComment, OpUpdate, ActivityCommentUpdated},
		{EntityComment, OpDelete, ActivityCommentDeleted},
		{EntityInvoice, OpCreate, ActivityInvoiceCreated},
		{EntityInvoice, OpUpdate, ActivityInvoiceUpdated},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.entity, tc.op),
			"entity %q op %q", tc.entity, tc.op)
	}
}

func TestClassifyFallsBackForUnknownCombinations(t *testing.T) {
	assert.Equal(t, ActivityEntityUpdated, Classify(EntityType("widget"), OpCreate))
	assert.Equal(t, ActivityEntityUpdated, Classify(EntityInvoice, OpDelete))
	assert.Equal(t, ActivityEntityUpdated, Classify(EntityClient, Operation("merge")))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "closed a ticket", ActivityTicketClosed.Describe())
	assert.Equal(t, "logged time", ActivityTimeEntryCreated.Describe())
	assert.Equal(t, "signed in", ActivityUserLogin.Describe())

	// Unknown tags still render something usable
	assert.Equal(t, "updated a record", ActivityType("mystery_event").Describe())
}

func TestEveryActivityTypeHasADescription(t *testing.T) {
	for entity, ops := range activityTable {
		for op, tag := range ops {
			_, ok := descriptions[tag]
			assert.True(t, ok, "no description for %s/%s tag %q", entity, op, tag)
		}
	}
}
