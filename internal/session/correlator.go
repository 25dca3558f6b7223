// Package session reconstructs login/logout lifecycles from classified
// records. Matching is stack-based per identity key: a logout closes the
// most recently opened session for the same key and nothing else.
package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tinysift/sift/internal/model"
)

// Options tune correlation behavior.
type Options struct {
	// DedupeWindow suppresses a repeated event of the same kind for the
	// same identity arriving within this interval. PAM frequently logs the
	// same open/close twice in quick succession.
	DedupeWindow time.Duration
	// StaleAfter is the age, relative to the run's maximum observed
	// timestamp, beyond which a still-open session counts as Stale.
	StaleAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.DedupeWindow == 0 {
		o.DedupeWindow = model.DefaultDedupeWindow
	}
	if o.StaleAfter == 0 {
		o.StaleAfter = model.DefaultStaleAfter
	}
	return o
}

// DetectEvent classifies a record as a login, logout, or neither, from its
// security tags and message phrasing.
func DetectEvent(r *model.LogRecord) model.EventType {
	if r.HasTag(model.TagSuccessfulLogin) {
		return model.EventLogin
	}
	msg := strings.ToLower(r.RawLine + " " + r.Template)
	switch {
	case strings.Contains(msg, "session opened"),
		strings.Contains(msg, "accepted password"),
		strings.Contains(msg, "accepted publickey"):
		return model.EventLogin
	case strings.Contains(msg, "session closed"),
		strings.Contains(msg, "logged out"):
		return model.EventLogout
	}
	return model.EventNone
}

// IdentityKey resolves the stream a record's events correlate under: the
// extracted process id when present, else user plus service. The two-tier
// choice is deterministic per record so logins and logouts of the same
// process land on the same stack.
func IdentityKey(r *model.LogRecord) string {
	if pid, ok := r.Params["PID"]; ok && pid != "" {
		return "pid:" + pid
	}
	return "user:" + r.Username + "|" + r.Service
}

type openLogin struct {
	user    string
	service string
	start   time.Time
}

// Correlate walks records in original file order and reconstructs sessions.
// Records without a resolved timestamp or a known username are skipped; an
// orphan logout (no open session on its stack) is dropped, never
// retroactively matched.
func Correlate(records []*model.LogRecord, opts Options) []model.Session {
	opts = opts.withDefaults()

	stacks := make(map[string][]openLogin)
	lastSeen := make(map[string]time.Time)
	var sessions []model.Session
	var maxTS time.Time

	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		if r.Timestamp.After(maxTS) {
			maxTS = r.Timestamp
		}

		evt := DetectEvent(r)
		if evt == model.EventNone || r.Username == "" {
			continue
		}
		key := IdentityKey(r)

		dedupeKey := fmt.Sprintf("%s|%d", key, evt)
		if last, ok := lastSeen[dedupeKey]; ok && r.Timestamp.Sub(last) < opts.DedupeWindow {
			continue
		}
		lastSeen[dedupeKey] = r.Timestamp

		switch evt {
		case model.EventLogin:
			stacks[key] = append(stacks[key], openLogin{
				user:    r.Username,
				service: r.Service,
				start:   r.Timestamp,
			})
		case model.EventLogout:
			stack := stacks[key]
			if len(stack) == 0 {
				continue
			}
			open := stack[len(stack)-1]
			stacks[key] = stack[:len(stack)-1]
			sessions = append(sessions, model.Session{
				User:     open.user,
				Service:  open.service,
				Key:      key,
				Start:    open.start,
				End:      r.Timestamp,
				Status:   model.SessionClosed,
				Duration: FormatDuration(r.Timestamp.Sub(open.start)),
			})
		}
	}

	// Whatever is still on a stack never closed during the run.
	for key, stack := range stacks {
		for _, open := range stack {
			status := model.SessionActive
			if maxTS.Sub(open.start) >= opts.StaleAfter {
				status = model.SessionStale
			}
			sessions = append(sessions, model.Session{
				User:    open.user,
				Service: open.service,
				Key:     key,
				Start:   open.start,
				Status:  status,
			})
		}
	}

	// Grouped by (user, service), by start time within a group. Reporting
	// order only; correlation itself ran in file order.
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.User != b.User {
			return a.User < b.User
		}
		if a.Service != b.Service {
			return a.Service < b.Service
		}
		return a.Start.Before(b.Start)
	})
	return sessions
}

// FormatDuration renders a duration with its two most significant units,
// omitting zero leading components.
func FormatDuration(d time.Duration) string {
	s := int(d.Seconds())
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
