package entity

import "time"

// Record is one audit trail entry for a monitored table. The trail is written
// by the database; the application only reads it.
type Record struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	EventTimestamp time.Time `db:"event_timestamp" json:"event_timestamp"`
	ActionName     string    `db:"action_name" json:"action_name"`
	ObjectName     string    `db:"object_name" json:"object_name"`
	ReturnCode     int64     `db:"return_code" json:"return_code"`
}
