package model

import (
	"strings"
	"time"
)

// Severity is the operational severity assigned to a record.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// SecurityTag marks a security-relevant aspect of a record. A record can
// carry any number of tags, including none.
type SecurityTag string

const (
	TagIllegalAccess     SecurityTag = "Illegal Access"
	TagAuthFailure       SecurityTag = "Auth Failure"
	TagPrivilegeActivity SecurityTag = "Privilege Activity"
	TagSuccessfulLogin   SecurityTag = "Successful Login"
	TagSessionLogout     SecurityTag = "Session Logout"
)

// NormalLabel is reported when a record carries no security tags.
const NormalLabel = "Normal"

// EventType classifies a record for session correlation.
type EventType int

const (
	EventNone EventType = iota
	EventLogin
	EventLogout
)

// LogRecord is the canonical structured form of one input line.
// It is created once per line and, apart from the one-time year-rollover
// timestamp correction, never mutated after the pipeline pass.
type LogRecord struct {
	Ordinal    int // zero-based position in the input file
	RawLine    string
	Normalized string
	ClusterID  int64
	Template   string
	Params     map[string]string
	Timestamp  time.Time // zero value = could not be resolved
	Severity   Severity
	Tags       []SecurityTag
	Service    string
	Username   string
	RemoteHost string
}

// HasTag reports whether the record carries the given security tag.
func (r *LogRecord) HasTag(tag SecurityTag) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SecurityLabel renders the tag set for reporting ("Normal" when empty).
func (r *LogRecord) SecurityLabel() string {
	if len(r.Tags) == 0 {
		return NormalLabel
	}
	parts := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, "; ")
}

// TemplateCluster is one mined template family with its occurrence count.
// Clusters are owned by the mining engine; records reference them by id.
type TemplateCluster struct {
	ID       int64
	Template string
	Size     int64
}

// SessionStatus describes how a session ended, or that it did not.
type SessionStatus string

const (
	SessionClosed SessionStatus = "Closed"
	SessionActive SessionStatus = "Active"
	SessionStale  SessionStatus = "Stale"
)

// Session is one reconstructed login/logout pair, or a still-open login.
type Session struct {
	User     string
	Service  string
	Key      string // identity key the session was correlated under
	Start    time.Time
	End      time.Time // zero value = still open
	Status   SessionStatus
	Duration string // formatted, empty for open sessions
}

// ThreatCandidate is one host identity that crossed the failure-burst
// threshold at least once during the run.
type ThreatCandidate struct {
	Host          string
	TriggeredAt   time.Time // earliest time any window crossed the threshold
	MaxBurst      int       // largest trailing-window count observed
	TotalFailures int       // failure events for this host across the run
}
