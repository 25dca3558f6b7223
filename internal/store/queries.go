package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/tinysift/sift/internal/model"
)

// dangerousKeywordPattern matches dangerous SQL keywords at word boundaries.
// Used as defense-in-depth after comment stripping and semicolon rejection.
var dangerousKeywordPattern = regexp.MustCompile(
	`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|COPY|ATTACH|LOAD|EXPORT|IMPORT|INSTALL|CALL|EXECUTE|PRAGMA|SET)\b`,
)

// blockCommentPattern matches C-style block comments (/* ... */).
var blockCommentPattern = regexp.MustCompile(`/\*[\s\S]*?\*/`)

// stripSQLComments removes -- line comments and /* */ block comments from a query.
func stripSQLComments(query string) string {
	cleaned := blockCommentPattern.ReplaceAllString(query, " ")
	var result strings.Builder
	for _, line := range strings.Split(cleaned, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		result.WriteString(line)
		result.WriteByte('\n')
	}
	return result.String()
}

// queryCtx returns a context with the store's configured query timeout.
func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

// TotalRecordCount returns the number of stored records.
func (s *Store) TotalRecordCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_records`).Scan(&count)
	return count, err
}

// SeverityCounts returns the record count per severity level.
func (s *Store) SeverityCounts() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT severity, COUNT(*) FROM log_records GROUP BY severity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var severity string
		var count int64
		if err := rows.Scan(&severity, &count); err != nil {
			log.Printf("store scan error (SeverityCounts): %v", err)
			continue
		}
		result[severity] = count
	}
	return result, rows.Err()
}

// SecurityTagCounts returns the record count per individual security tag.
// The stored label is "; "-joined, so tags are split back out before
// counting; untagged records count under "Normal".
func (s *Store) SecurityTagCounts() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		WITH tags AS (
			SELECT unnest(string_split(security_tags, '; ')) AS tag
			FROM log_records
		)
		SELECT tag, COUNT(*) AS count
		FROM tags
		WHERE tag != ''
		GROUP BY tag
		ORDER BY count DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var tag string
		var count int64
		if err := rows.Scan(&tag, &count); err != nil {
			log.Printf("store scan error (SecurityTagCounts): %v", err)
			continue
		}
		result[tag] = count
	}
	return result, rows.Err()
}

// TopRemoteHosts returns the most frequent remote-host identities.
func (s *Store) TopRemoteHosts(limit int) ([]model.HostCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT remote_host, COUNT(*) AS count
		FROM log_records
		WHERE remote_host != ''
		GROUP BY remote_host
		ORDER BY count DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.HostCount
	for rows.Next() {
		var hc model.HostCount
		if err := rows.Scan(&hc.Host, &hc.Count); err != nil {
			log.Printf("store scan error (TopRemoteHosts): %v", err)
			continue
		}
		results = append(results, hc)
	}
	return results, rows.Err()
}

// ListSessions returns all stored sessions grouped by user and service,
// ordered by start time within a group.
func (s *Store) ListSessions() ([]model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT username, service, identity_key, start_time, end_time, status, duration
		FROM sessions
		ORDER BY username, service, start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Session
	for rows.Next() {
		var sess model.Session
		var status string
		var end sql.NullTime
		if err := rows.Scan(&sess.User, &sess.Service, &sess.Key,
			&sess.Start, &end, &status, &sess.Duration); err != nil {
			log.Printf("store scan error (ListSessions): %v", err)
			continue
		}
		if end.Valid {
			sess.End = end.Time
		}
		sess.Status = model.SessionStatus(status)
		results = append(results, sess)
	}
	return results, rows.Err()
}

// ListThreats returns all stored threat candidates, highest burst first.
func (s *Store) ListThreats() ([]model.ThreatCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT host, triggered_at, max_burst, total_failures
		FROM threats
		ORDER BY max_burst DESC, host`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ThreatCandidate
	for rows.Next() {
		var t model.ThreatCandidate
		if err := rows.Scan(&t.Host, &t.TriggeredAt, &t.MaxBurst, &t.TotalFailures); err != nil {
			log.Printf("store scan error (ListThreats): %v", err)
			continue
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

// ExecuteQuery runs a read-only SQL query and returns results as maps.
// Only SELECT/WITH read queries are allowed; DDL/DML is rejected.
func (s *Store) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	trimmed := strings.TrimSpace(query)

	// Reject semicolons to prevent statement chaining.
	if strings.Contains(trimmed, ";") {
		return nil, fmt.Errorf("query must not contain semicolons")
	}

	// Strip SQL comments so keywords hidden in comments are still caught.
	stripped := strings.TrimSpace(stripSQLComments(trimmed))
	upper := strings.ToUpper(stripped)

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return nil, fmt.Errorf("only SELECT/WITH queries are allowed")
	}

	// Defense-in-depth: reject dangerous keywords after comment stripping.
	if match := dangerousKeywordPattern.FindString(stripped); match != "" {
		return nil, fmt.Errorf("query contains disallowed keyword: %s", strings.ToUpper(match))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()
	rows, err := s.db.QueryContext(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	maxRows := 1000

	for rows.Next() && len(results) < maxRows {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			log.Printf("store scan error (ExecuteQuery): %v", err)
			continue
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// GetSchemaDescription returns a human-readable schema description for API
// consumers composing ad hoc queries.
func (s *Store) GetSchemaDescription() string {
	return `Table 'log_records': ordinal (INTEGER), raw_line (VARCHAR), normalized (VARCHAR), ` +
		`cluster_id (BIGINT), template (VARCHAR), parameters (JSON), event_time (TIMESTAMP, nullable), ` +
		`severity (VARCHAR: INFO/WARNING/CRITICAL), security_tags (VARCHAR, '; '-joined), ` +
		`service (VARCHAR), username (VARCHAR), remote_host (VARCHAR). ` +
		`Table 'clusters': cluster_id (BIGINT), template (VARCHAR), size (BIGINT). ` +
		`Table 'sessions': username, service, identity_key (VARCHAR), start_time (TIMESTAMP), ` +
		`end_time (TIMESTAMP, nullable), status (VARCHAR: Closed/Active/Stale), duration (VARCHAR). ` +
		`Table 'threats': host (VARCHAR), triggered_at (TIMESTAMP), max_burst (INTEGER), total_failures (INTEGER).`
}

// TableRowCounts returns the row count for each known table using a hardcoded allowlist.
func (s *Store) TableRowCounts() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	allowedTables := []string{"log_records", "clusters", "sessions", "threats"}
	counts := make(map[string]int64, len(allowedTables))

	for _, table := range allowedTables {
		var count int64
		// Table names are hardcoded constants, not user input.
		err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
		if err != nil {
			continue
		}
		counts[table] = count
	}
	return counts, nil
}
