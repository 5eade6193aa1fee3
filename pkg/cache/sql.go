package cache

import (
	"database/sql"
	"time"
)

func buildCreateResponsesTable() string {
	return `CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		created INTEGER NOT NULL);`
}

func buildSelectResponseCommand(key string) (string, []any, func(*sql.Rows) (entry, bool, error)) {
	return `SELECT key, kind, payload, created FROM responses WHERE key = ?`, []any{key}, processSelectResponseRows
}

func processSelectResponseRows(rows *sql.Rows) (entry, bool, error) {
	defer rows.Close()

	// key is the primary key, so at most one row
	if rows.Next() {
		var e entry
		var created int64
		if err := rows.Scan(&e.key, &e.kind, &e.payload, &created); err != nil {
			return e, false, err
		}
		e.created = time.Unix(created, 0)
		return e, true, nil
	}
	return entry{}, false, rows.Err()
}

func buildUpsertResponseCommand(e entry) (string, []any) {
	return `INSERT INTO responses (key, kind, payload, created) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, payload = excluded.payload, created = excluded.created`,
		[]any{e.key, e.kind, e.payload, e.created.Unix()}
}

func buildDeleteOlderThanCommand(t time.Time) (string, []any) {
	return `DELETE FROM responses WHERE created < ?`, []any{t.Unix()}
}

func buildStatsCommand() (string, func(*sql.Rows) (Stats, error)) {
	return `SELECT kind, COUNT(*), COALESCE(SUM(LENGTH(payload)), 0), MIN(created) FROM responses GROUP BY kind ORDER BY kind`, processStatsRows
}

func processStatsRows(rows *sql.Rows) (Stats, error) {
	defer rows.Close()

	s := Stats{Kinds: map[string]int{}}
	for rows.Next() {
		var kind string
		var count int
		var size int64
		var oldest int64
		if err := rows.Scan(&kind, &count, &size, &oldest); err != nil {
			return s, err
		}
		s.Kinds[kind] = count
		s.Entries += count
		s.Bytes += uint64(size)
		if t := time.Unix(oldest, 0); s.Oldest.IsZero() || t.Before(s.Oldest) {
			s.Oldest = t
		}
	}
	return s, rows.Err()
}
