package model

import "time"

// Credential is a stored secret for an external service ("github").
type Credential struct {
	ID        int64
	Service   string
	Value     string
	UpdatedAt time.Time
}
