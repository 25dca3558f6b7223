// Package threat flags hosts generating failure bursts: a trailing-window
// count over failure-type events, per host identity, against a threshold.
package threat

import (
	"sort"
	"time"

	"github.com/tinysift/sift/internal/model"
)

// Options tune burst detection.
type Options struct {
	// Window is the trailing interval each event's burst count covers.
	Window time.Duration
	// Threshold is the count at which a window flags its host.
	Threshold int
}

func (o Options) withDefaults() Options {
	if o.Window == 0 {
		o.Window = model.DefaultThreatWindow
	}
	if o.Threshold == 0 {
		o.Threshold = model.DefaultThreatThreshold
	}
	return o
}

// IsFailureEvent reports whether a record counts toward burst detection.
func IsFailureEvent(r *model.LogRecord) bool {
	return r.HasTag(model.TagAuthFailure) ||
		r.HasTag(model.TagIllegalAccess) ||
		r.Severity == model.SeverityCritical
}

// Detect scans classified records for hosts whose failure rate crossed the
// threshold inside any trailing window. Records without a resolved
// timestamp or a remote host are left out. A host field carrying several
// co-occurring addresses stays one composite grouping key, so no
// contributing address is dropped from aggregation.
func Detect(records []*model.LogRecord, opts Options) []model.ThreatCandidate {
	opts = opts.withDefaults()

	byHost := make(map[string][]time.Time)
	for _, r := range records {
		if !IsFailureEvent(r) || r.Timestamp.IsZero() || r.RemoteHost == "" {
			continue
		}
		byHost[r.RemoteHost] = append(byHost[r.RemoteHost], r.Timestamp)
	}

	var out []model.ThreatCandidate
	for host, times := range byHost {
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

		var (
			flagged   bool
			trigger   time.Time
			maxBurst  int
			windowLow int
		)
		// Each event ends a window (t-window, t]. windowLow advances
		// monotonically, so the scan is linear per host.
		for i, t := range times {
			cutoff := t.Add(-opts.Window)
			for !times[windowLow].After(cutoff) {
				windowLow++
			}
			burst := i - windowLow + 1
			if burst > maxBurst {
				maxBurst = burst
			}
			if burst >= opts.Threshold && !flagged {
				flagged = true
				trigger = t
			}
		}
		if !flagged {
			continue
		}
		out = append(out, model.ThreatCandidate{
			Host:          host,
			TriggeredAt:   trigger,
			MaxBurst:      maxBurst,
			TotalFailures: len(times),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MaxBurst != out[j].MaxBurst {
			return out[i].MaxBurst > out[j].MaxBurst
		}
		return out[i].Host < out[j].Host
	})
	return out
}
