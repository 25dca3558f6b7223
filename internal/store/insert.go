package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/tinysift/sift/internal/model"
)

// InsertRecordBatch writes a run's records in a single transaction. A batch
// failure is retried record-by-record to salvage as many rows as possible.
func (s *Store) InsertRecordBatch(records []*model.LogRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.insertRecordsTx(ctx, records)
	if err == nil {
		return nil
	}

	var failed int
	for _, r := range records {
		if rerr := s.insertRecordsTx(ctx, []*model.LogRecord{r}); rerr != nil {
			failed++
			log.Printf("store: dropping record (ordinal=%d line=%.80s): %v", r.Ordinal, r.RawLine, rerr)
		}
	}
	if failed > 0 {
		log.Printf("store: batch partially failed, %d/%d records dropped", failed, len(records))
	}
	return nil
}

func (s *Store) insertRecordsTx(ctx context.Context, records []*model.LogRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO log_records
			(ordinal, raw_line, normalized, cluster_id, template, parameters,
			 event_time, severity, security_tags, service, username, remote_host)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			paramsJSON := []byte("{}")
			if len(r.Params) > 0 {
				if data, merr := json.Marshal(r.Params); merr != nil {
					log.Printf("store: failed to marshal parameters, using empty: %v", merr)
				} else {
					paramsJSON = data
				}
			}

			var eventTime any
			if !r.Timestamp.IsZero() {
				eventTime = r.Timestamp
			}

			if _, err := stmt.ExecContext(
				ctx,
				r.Ordinal, r.RawLine, r.Normalized, r.ClusterID, r.Template,
				string(paramsJSON), eventTime, string(r.Severity),
				r.SecurityLabel(), r.Service, r.Username, r.RemoteHost,
			); err != nil {
				return fmt.Errorf("record insert: %w", err)
			}
		}
		return nil
	})
}

// InsertClusters writes the run's template clusters.
func (s *Store) InsertClusters(clusters []model.TemplateCluster) error {
	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO clusters (cluster_id, template, size) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range clusters {
			if _, err := stmt.ExecContext(ctx, c.ID, c.Template, c.Size); err != nil {
				return fmt.Errorf("cluster insert: %w", err)
			}
		}
		return nil
	})
}

// InsertSessions writes the run's correlated sessions.
func (s *Store) InsertSessions(sessions []model.Session) error {
	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO sessions
			(username, service, identity_key, start_time, end_time, status, duration)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, sess := range sessions {
			var end any
			if !sess.End.IsZero() {
				end = sess.End
			}
			if _, err := stmt.ExecContext(ctx,
				sess.User, sess.Service, sess.Key, sess.Start, end,
				string(sess.Status), sess.Duration,
			); err != nil {
				return fmt.Errorf("session insert: %w", err)
			}
		}
		return nil
	})
}

// InsertThreats writes the run's threat candidates.
func (s *Store) InsertThreats(threats []model.ThreatCandidate) error {
	ctx, cancel := s.queryCtx()
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO threats
			(host, triggered_at, max_burst, total_failures) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range threats {
			if _, err := stmt.ExecContext(ctx,
				t.Host, t.TriggeredAt, t.MaxBurst, t.TotalFailures,
			); err != nil {
				return fmt.Errorf("threat insert: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
