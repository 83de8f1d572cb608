package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityInstance = "instance"

	OperationUpsert = "upsert"
	OperationRetire = "retire"
)

// Item is a recurring-instance write that failed against primary storage
// and is parked for replay. Callers that key the ID on the target row
// (operation plus instance id) get at most one pending write per row:
// later failures overwrite earlier ones instead of piling up.
type Item struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	TemplateID string          `json:"template_id"`
	Entity     string          `json:"entity"`
	Operation  string          `json:"operation"`
	Data       json.RawMessage `json:"data"`
	Retries    int             `json:"retries"`
	FailedAt   time.Time       `json:"failed_at"`
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Entity == "" {
		i.Entity = EntityInstance
	}
	if i.FailedAt.IsZero() {
		i.FailedAt = time.Now()
	}
}
