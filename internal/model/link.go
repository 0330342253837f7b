// internal/model/link.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Link is a named connection URI. The URI is stored exactly as entered and
// parsed again every time the link is used.
type Link struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	URI         string     `json:"uri" db:"uri"`
	Description *string    `json:"description,omitempty" db:"description"`
	Metadata    JSONObject `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// LinkState is the runtime state of a link
type LinkState string

const (
	LinkStateClosed LinkState = "CLOSED"
	LinkStateOpen   LinkState = "OPEN"
)
