package models

// Follow is a user following a business. At most one exists per (UserID, BusinessID).
type Follow struct {
	ID         string `json:"-"`
	UserID     string `json:"userId"`
	BusinessID string `json:"businessId"`
}
