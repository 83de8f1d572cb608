package transport

// TaskRequest carries the writable task fields. Dates are calendar days in
// "2006-01-02" (RFC3339 also accepted); an unparsable date is treated as
// absent rather than rejected, so one bad field never blocks a save.
type TaskRequest struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	StartDate    string   `json:"start_date"`
	DueDate      string   `json:"due_date"`
	DueTime      string   `json:"due_time"`
	Completed    bool     `json:"completed"`
	CompletedAt  string   `json:"completed_at"`
	Priority     string   `json:"priority"`
	Type         string   `json:"type"`
	Order        *int     `json:"order"`
	Tags         []string `json:"tags"`
	Project      string   `json:"project"`
	SharedByMe   bool     `json:"shared_by_me"`
	SharedWithMe bool     `json:"shared_with_me"`
	GroupID      string   `json:"group_id"`
}

type WeeklyRuleRequest struct {
	Weekday int    `json:"weekday"`
	Week    string `json:"week"`
}

type MonthlyRuleRequest struct {
	Type    string `json:"type"`
	Day     int    `json:"day"`
	Weekday int    `json:"weekday"`
	Ordinal int    `json:"ordinal"`
}

type ExceptionRequest struct {
	Type   string   `json:"type"`
	Dates  []string `json:"dates"`
	Values []int    `json:"values"`
}

type TemplateRequest struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Priority        string              `json:"priority"`
	Type            string              `json:"type"`
	Tags            []string            `json:"tags"`
	Project         string              `json:"project"`
	DueTime         string              `json:"due_time"`
	Recurrence      string              `json:"recurrence"`
	Weekly          *WeeklyRuleRequest  `json:"weekly"`
	Monthly         *MonthlyRuleRequest `json:"monthly"`
	HolidayHandling string              `json:"holiday_handling"`
	StartDate       string              `json:"start_date"`
	EndDate         string              `json:"end_date"`
	Exceptions      []ExceptionRequest  `json:"exceptions"`
	IsActive        *bool               `json:"is_active"`
}

// InstanceActionRequest mutates one occurrence: completion toggle, skip, or
// per-instance overrides.
type InstanceActionRequest struct {
	Completed  *bool              `json:"completed"`
	Skipped    *bool              `json:"skipped"`
	SkipReason string             `json:"skip_reason"`
	Overrides  *OverridesRequest  `json:"overrides"`
}

type OverridesRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Priority    *string  `json:"priority"`
	DueTime     *string  `json:"due_time"`
	Tags        []string `json:"tags"`
}

type HolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type GroupRequest struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type ProfileUpdateRequest struct {
	Email       string            `json:"email"`
	DisplayName string            `json:"display_name"`
	Status      string            `json:"status"`
	Settings    map[string]string `json:"settings"`
}

type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}
