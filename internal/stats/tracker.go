// Package stats persists lightweight usage counters to SQLite. Writes are
// best effort: a failed insert is logged and never blocks message handling.
package stats

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Multi-hop paths are the interesting ones for coverage analysis; short
// paths are noise and are not recorded.
const minRecordedHops = 3

// Tracker records message, command, and routing-path observations.
type Tracker struct {
	db        *sql.DB
	logPrefix string
	now       func() time.Time
}

// Open opens (or creates) the stats database at path and ensures the schema.
func Open(path, logPrefix string) (*Tracker, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping stats db: %w", err)
	}

	t := &Tracker{db: db, logPrefix: logPrefix, now: time.Now}
	if err := t.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate stats db: %w", err)
	}
	return t, nil
}

func (t *Tracker) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Close()
}

func (t *Tracker) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS message_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    sender TEXT NOT NULL,
    channel INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS command_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    command TEXT NOT NULL,
    sender TEXT NOT NULL,
    recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS path_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL,
    hops INTEGER NOT NULL,
    snr REAL,
    rssi INTEGER,
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_message_stats_time ON message_stats(recorded_at);
CREATE INDEX IF NOT EXISTS idx_command_stats_cmd ON command_stats(command);
`
	_, err := t.db.Exec(schema)
	return err
}

// RecordMessage notes one inbound channel message.
func (t *Tracker) RecordMessage(sender string, channel int) {
	if t == nil {
		return
	}
	_, err := t.db.Exec(
		"INSERT INTO message_stats(sender, channel, recorded_at) VALUES(?, ?, ?)",
		sender, channel, t.now().Unix(),
	)
	t.logErr("message", err)
}

// RecordCommand notes one executed fixed command.
func (t *Tracker) RecordCommand(command, sender string) {
	if t == nil {
		return
	}
	_, err := t.db.Exec(
		"INSERT INTO command_stats(command, sender, recorded_at) VALUES(?, ?, ?)",
		command, sender, t.now().Unix(),
	)
	t.logErr("command", err)
}

// RecordPath notes the routing path of a received packet. Paths shorter than
// three hops are skipped.
func (t *Tracker) RecordPath(hops []string, snr float64, hasSNR bool, rssi int, hasRSSI bool) {
	if t == nil || len(hops) < minRecordedHops {
		return
	}
	var snrVal, rssiVal any
	if hasSNR {
		snrVal = snr
	}
	if hasRSSI {
		rssiVal = rssi
	}
	_, err := t.db.Exec(
		"INSERT INTO path_stats(path, hops, snr, rssi, recorded_at) VALUES(?, ?, ?, ?, ?)",
		strings.Join(hops, ","), len(hops), snrVal, rssiVal, t.now().Unix(),
	)
	t.logErr("path", err)
}

// MessageCount returns the number of messages recorded since cutoff.
func (t *Tracker) MessageCount(since time.Time) (int, error) {
	var n int
	err := t.db.QueryRow(
		"SELECT COUNT(*) FROM message_stats WHERE recorded_at >= ?", since.Unix(),
	).Scan(&n)
	return n, err
}

// CommandCounts returns per-command totals, most used first.
func (t *Tracker) CommandCounts() (map[string]int, error) {
	rows, err := t.db.Query(
		"SELECT command, COUNT(*) FROM command_stats GROUP BY command ORDER BY COUNT(*) DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var cmd string
		var n int
		if err := rows.Scan(&cmd, &n); err != nil {
			return nil, err
		}
		counts[cmd] = n
	}
	return counts, rows.Err()
}

// PathCount returns the number of recorded multi-hop paths.
func (t *Tracker) PathCount() (int, error) {
	var n int
	err := t.db.QueryRow("SELECT COUNT(*) FROM path_stats").Scan(&n)
	return n, err
}

func (t *Tracker) logErr(kind string, err error) {
	if err != nil {
		log.Printf("%s stats write failed: kind=%s err=%v", t.logPrefix, kind, err)
	}
}
