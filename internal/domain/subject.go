package domain

import "time"

// Subject groups notes under a single owner.
type Subject struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
