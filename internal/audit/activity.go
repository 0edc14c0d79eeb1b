package audit

// EntityType identifies which kind of business record a mutation targets
type EntityType string

const (
	EntityClient    EntityType = "client"
	EntityTicket    EntityType = "ticket"
	EntityTimeEntry EntityType = "timeentry"
	EntityExpense   EntityType = "expense"
	EntityComment   EntityType = "comment"
	EntityInvoice   EntityType = "invoice"

	// Account lifecycle events are journaled too, but never flow through
	// the audit-wrapped mutation helpers
	EntityUser EntityType = "user"
	EntityTeam EntityType = "team"
)

// Operation is the generic mutation kind performed on an entity
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ActivityType is the closed set of action tags recorded in the activity log
type ActivityType string

const (
	ActivityClientCreated ActivityType = "client_created"
	ActivityClientUpdated ActivityType = "client_updated"
	ActivityClientDeleted ActivityType = "client_deleted"

	ActivityTicketCreated ActivityType = "ticket_created"
	ActivityTicketUpdated ActivityType = "ticket_updated"
	// Tickets use "closed" terminology for their soft delete
	ActivityTicketClosed ActivityType = "ticket_closed"

	ActivityTimeEntryCreated ActivityType = "time_entry_created"
	ActivityTimeEntryUpdated ActivityType = "time_entry_updated"
	ActivityTimeEntryDeleted ActivityType = "time_entry_deleted"

	ActivityExpenseCreated ActivityType = "expense_created"
	ActivityExpenseUpdated ActivityType = "expense_updated"
	ActivityExpenseDeleted ActivityType = "expense_deleted"

	ActivityCommentAdded   ActivityType = "comment_added"
	ActivityCommentUpdated ActivityType = "comment_updated"
	ActivityCommentDeleted ActivityType = "comment_deleted"

	ActivityInvoiceCreated ActivityType = "invoice_created"
	ActivityInvoiceUpdated ActivityType = "invoice_updated"

	ActivityUserRegistered  ActivityType = "user_registered"
	ActivityUserLogin       ActivityType = "user_login"
	ActivityTeamCreated     ActivityType = "team_created"
	ActivityTeamMemberAdded ActivityType = "team_member_added"

	// Fallback for unrecognized entity types
	ActivityEntityUpdated ActivityType = "entity_updated"
)

var activityTable = map[EntityType]map[Operation]ActivityType{
	EntityClient: {
		OpCreate: ActivityClientCreated,
		OpUpdate: ActivityClientUpdated,
		OpDelete: ActivityClientDeleted,
	},
	EntityTicket: {
		OpCreate: ActivityTicketCreated,
		OpUpdate: ActivityTicketUpdated,
		OpDelete: ActivityTicketClosed,
	},
	EntityTimeEntry: {
		OpCreate: ActivityTimeEntryCreated,
		OpUpdate: ActivityTimeEntryUpdated,
		OpDelete: ActivityTimeEntryDeleted,
	},
	EntityExpense: {
		OpCreate: ActivityExpenseCreated,
		OpUpdate: ActivityExpenseUpdated,
		OpDelete: ActivityExpenseDeleted,
	},
	EntityComment: {
		OpCreate: ActivityCommentAdded,
		OpUpdate: ActivityCommentUpdated,
		OpDelete: ActivityCommentDeleted,
	},
	EntityInvoice: {
		OpCreate: ActivityInvoiceCreated,
		OpUpdate: ActivityInvoiceUpdated,
	},
}

// Classify maps an entity type and mutation kind to its activity tag.
// Unrecognized combinations fall back to a generic updated tag rather
// than failing.
func Classify(entity EntityType, op Operation) ActivityType {
	if ops, ok := activityTable[entity]; ok {
		if t, ok := ops[op]; ok {
			return t
		}
	}
	return ActivityEntityUpdated
}

var descriptions = map[ActivityType]string{
	ActivityClientCreated:    "created a new client",
	ActivityClientUpdated:    "updated a client",
	ActivityClientDeleted:    "deleted a client",
	ActivityTicketCreated:    "opened a ticket",
	ActivityTicketUpdated:    "updated a ticket",
	ActivityTicketClosed:     "closed a ticket",
	ActivityTimeEntryCreated: "logged time",
	ActivityTimeEntryUpdated: "updated a time entry",
	ActivityTimeEntryDeleted: "deleted a time entry",
	ActivityExpenseCreated:   "recorded an expense",
	ActivityExpenseUpdated:   "updated an expense",
	ActivityExpenseDeleted:   "deleted an expense",
	ActivityCommentAdded:     "added a comment",
	ActivityCommentUpdated:   "edited a comment",
	ActivityCommentDeleted:   "deleted a comment",
	ActivityInvoiceCreated:   "created an invoice",
	ActivityInvoiceUpdated:   "updated an invoice",
	ActivityUserRegistered:   "registered an account",
	ActivityUserLogin:        "signed in",
	ActivityTeamCreated:      "created a team",
	ActivityTeamMemberAdded:  "added a team member",
	ActivityEntityUpdated:    "updated a record",
}

// Describe returns the fixed human-readable rendering for an activity tag,
// used by the activity feed.
func (t ActivityType) Describe() string {
	if d, ok := descriptions[t]; ok {
		return d
	}
	return "updated a record"
}
