package domain

import "time"

// User represents an authenticated identity. Settings carries per-user
// preferences the planner reads at query time (for example the holiday
// region used when expanding recurring templates).
type User struct {
	ID          string            `json:"id"`
	Email       string            `json:"email,omitempty"`
	DisplayName string            `json:"display_name,omitempty"`
	Status      string            `json:"status"`
	Settings    map[string]string `json:"settings,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == "active"
}
