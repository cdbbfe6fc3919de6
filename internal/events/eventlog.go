package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"
)

// Log appends published events to the event_log table. Delivery is
// fire and forget: failures are logged and never reach the caller.
type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

func (l *Log) Publish(ctx context.Context, eventType, key string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: marshal %s: %v", eventType, err)
		return
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		eventType, key, string(data), time.Now().Unix())
	if err != nil {
		log.Printf("events: append %s: %v", eventType, err)
	}
}

// Nop drops every event; useful where no sink is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) {}
