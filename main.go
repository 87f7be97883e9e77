package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"

	"github.com/benbjohnson/clock"
	_ "modernc.org/sqlite"

	"timer-api/pkg/timer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	// Connect to the database
	db, err := connectDB(cfg.DBFile)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Ensure that the key-value table exists
	err = ensureTable(db)
	if err != nil {
		log.Fatal(err)
	}

	store := NewSQLStore(db)
	svc := timer.NewService(store, clock.New(), cfg.Password)

	// Start a server to handle API requests
	go startServer(cfg.Addr, svc, store)

	// Sleep until interrupted
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh
	log.Println("Shutting down")
}

func connectDB(file string) (*sql.DB, error) {
	connString := getConnectionString(file)
	return sql.Open("sqlite", connString)
}

func getConnectionString(file string) string {
	busyTimeoutMs := 2000
	qs := url.Values{
		"_txlock": []string{"immediate"},
		"_pragma": []string{
			"journal_mode(WAL)",
			fmt.Sprintf("busy_timeout(%d)", busyTimeoutMs),
		},
	}

	return "file:" + file + "?" + qs.Encode()
}

func ensureTable(db *sql.DB) error {
	_, err := db.ExecContext(context.TODO(),
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT NOT NULL PRIMARY KEY,
			value TEXT NOT NULL
		) WITHOUT ROWID;`,
	)
	return err
}
