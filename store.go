package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"

	"timer-api/pkg/timer"
)

// Fixed key under which the whole timer record is stored.
const timerKey = "timer_data"

// SQLStore persists the timer record as a single JSON value in the kv
// table. Reads fail soft: any storage or decoding problem yields a fresh
// default record so the API keeps answering; writes return their error.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(ctx context.Context) *timer.Record {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE key = ?", timerKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		// First access: seed the default record
		rec := timer.NewRecord()
		if err := s.Save(ctx, rec); err != nil {
			log.Printf("store: seeding default record: %v", err)
		}
		return rec
	}
	if err != nil {
		log.Printf("store: loading record: %v", err)
		return timer.NewRecord()
	}

	rec := timer.NewRecord()
	if err := json.Unmarshal([]byte(raw), rec); err != nil {
		log.Printf("store: decoding record: %v", err)
		return timer.NewRecord()
	}
	return rec
}

func (s *SQLStore) Save(ctx context.Context, rec *timer.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		timerKey, string(raw),
	)
	return err
}

// Ping reports store connectivity for the health endpoint.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
