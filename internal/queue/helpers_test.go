package queue_test

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// writeRawJob bypasses Store to plant an arbitrary job record.
func writeRawJob(t *testing.T, dbPath, value string) {
	t.Helper()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(
		`INSERT INTO kv_store (key, value, updated_at) VALUES ('batchExportJob', ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		t.Fatalf("write raw job: %v", err)
	}
}
