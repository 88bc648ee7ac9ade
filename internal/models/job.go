package models

import "time"

// Job is the payee (driver, worker) transactions are attributed to.
type Job struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
