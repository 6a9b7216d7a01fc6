package domain

import "time"

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree UserPlan = "free"
	UserPlanPro  UserPlan = "pro"
)

// User represents an authenticated account within the platform. Identity is
// established by an external provider; only the stable ID matters here.
type User struct {
	ID         string
	Email      string
	Name       string
	Plan       UserPlan
	UsageCount int
	UsageLimit int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsFree reports whether the user is on the free plan.
func (u User) IsFree() bool {
	return u.Plan == UserPlanFree
}

// Usage is the pair read by the quota pre-check.
type Usage struct {
	Count int
	Limit int
}

// Exhausted reports whether another generation would exceed the limit.
func (u Usage) Exhausted() bool {
	return u.Count >= u.Limit
}
