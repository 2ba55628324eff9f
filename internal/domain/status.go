package domain

// Event statuses.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// DefaultDescription replaces an empty description after the date/time expression is removed.
const DefaultDescription = "No description provided"
