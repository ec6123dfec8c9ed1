package entity

// Customer is read-only from this service's perspective; rows are
// managed by a separate CRM import.
type Customer struct {
	ID       string
	Name     string
	Email    string
	ImageURL string
}
