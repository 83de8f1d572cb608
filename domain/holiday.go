package domain

import "time"

// Holiday describes a public or user-defined non-working day.
type Holiday struct {
	Date   time.Time `json:"date"`
	Name   string    `json:"name"`
	UserID string    `json:"user_id,omitempty"`
	Custom bool      `json:"custom"`
}

// Group is a sharing circle: tasks carrying its ID are visible to every
// member listed here.
type Group struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMember reports whether the user belongs to the group (owner included).
func (g *Group) HasMember(userID string) bool {
	if g == nil {
		return false
	}
	if g.OwnerID == userID {
		return true
	}
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
