package model

// Stable table identifiers passed to the audit layer. Callers always
// name the table explicitly; nothing infers a table from row shape.
const (
	TableClients     = "clients"
	TableTickets     = "tickets"
	TableTimeEntries = "time_entries"
	TableExpenses    = "expenses"
	TableComments    = "comments"
	TableInvoices    = "invoices"
)
