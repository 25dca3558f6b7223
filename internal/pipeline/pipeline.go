// Package pipeline runs the single-pass batch transformation: normalize,
// cluster, extract, time-resolve, classify, then fan out to session
// correlation and threat detection.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tinysift/sift/internal/classify"
	"github.com/tinysift/sift/internal/extract"
	"github.com/tinysift/sift/internal/model"
	"github.com/tinysift/sift/internal/normalize"
	"github.com/tinysift/sift/internal/session"
	"github.com/tinysift/sift/internal/threat"
	"github.com/tinysift/sift/internal/timeline"
)

// Options assemble a run. Miner is required; everything else has a
// sensible zero value.
type Options struct {
	Miner     model.Miner
	Prefilter *normalize.Prefilter // nil disables noise filtering
	Tables    classify.Tables
	Session   session.Options
	Threat    threat.Options

	// AnchorFallbackYear is used when no record states a year. Zero means
	// the current calendar year.
	AnchorFallbackYear int
}

// Result is everything one run produces.
type Result struct {
	Records  []*model.LogRecord
	Clusters []model.TemplateCluster
	Sessions []model.Session
	Threats  []model.ThreatCandidate
	Summary  RunSummary
}

// RunSummary is the run's headline numbers for logging and the API.
type RunSummary struct {
	TotalLines     int
	EmptyLines     int
	FilteredLines  int
	Records        int
	Clusters       int
	Sessions       int
	Threats        int
	AnchorYear     int
	AnchorFromLogs bool
	Rollover       bool
	Started        time.Time
	Elapsed        time.Duration
}

// Pipeline holds per-run state. Construct a fresh one per input file: the
// clustering engine and the ordinal counter are both single-run.
type Pipeline struct {
	opts       Options
	normalizer *normalize.Normalizer
	extractor  *extract.Extractor
	classifier *classify.Classifier
}

var serviceSplit = regexp.MustCompile(`\[|:`)

// New builds a Pipeline. Zero-value Tables fall back to the defaults.
func New(opts Options) (*Pipeline, error) {
	if opts.Miner == nil {
		return nil, fmt.Errorf("pipeline: miner is required")
	}
	if opts.Tables.CriticalKeywords == nil && opts.Tables.WarningKeywords == nil {
		opts.Tables = classify.DefaultTables()
	}
	return &Pipeline{
		opts:       opts,
		normalizer: normalize.New(),
		extractor:  extract.New(),
		classifier: classify.New(opts.Tables),
	}, nil
}

// Run consumes lines in strict arrival order until the channel closes or
// the context is canceled. A clustering failure aborts the run; records
// already built for prior lines are discarded with it.
func (p *Pipeline) Run(ctx context.Context, lines <-chan model.IngestEnvelope) (*Result, error) {
	summary := RunSummary{Started: time.Now()}
	var records []*model.LogRecord

	for {
		var (
			env model.IngestEnvelope
			ok  bool
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case env, ok = <-lines:
		}
		if !ok {
			break
		}

		summary.TotalLines++
		raw := strings.TrimSpace(env.Line)
		if raw == "" {
			summary.EmptyLines++
			continue
		}
		if p.opts.Prefilter != nil {
			if kw := p.opts.Prefilter.Match(raw); kw != "" {
				summary.FilteredLines++
				continue
			}
		}

		rec, err := p.buildRecord(raw, len(records))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	p.resolveTimestamps(records, &summary)

	for _, r := range records {
		p.classifier.Classify(r)
	}

	result := &Result{
		Records:  records,
		Clusters: p.opts.Miner.Clusters(),
		Sessions: session.Correlate(records, p.opts.Session),
		Threats:  threat.Detect(records, p.opts.Threat),
	}

	summary.Records = len(records)
	summary.Clusters = len(result.Clusters)
	summary.Sessions = len(result.Sessions)
	summary.Threats = len(result.Threats)
	summary.Elapsed = time.Since(summary.Started)
	result.Summary = summary

	log.Printf("pipeline: %d lines -> %d records, %d clusters, %d sessions, %d threats in %s",
		summary.TotalLines, summary.Records, summary.Clusters,
		summary.Sessions, summary.Threats, summary.Elapsed.Round(time.Millisecond))
	return result, nil
}

func (p *Pipeline) buildRecord(raw string, ordinal int) (*model.LogRecord, error) {
	normalized := p.normalizer.Normalize(raw)
	mined, err := p.opts.Miner.Mine(normalized)
	if err != nil {
		return nil, fmt.Errorf("clustering line %d: %w", ordinal, err)
	}

	cleanRaw := p.normalizer.CanonicalizeRaw(raw)
	params := p.extractor.Extract(cleanRaw, mined.Template)

	// The header format is trusted: its values override whatever the
	// template-derived pattern guessed for the same fields.
	if ts, host, ok := extract.ExtractHeader(raw); ok {
		params["TIMESTAMP"] = ts
		params["HOSTNAME"] = host
	}
	params[extract.OrdinalKey] = strconv.Itoa(ordinal)

	return &model.LogRecord{
		Ordinal:    ordinal,
		RawLine:    raw,
		Normalized: normalized,
		ClusterID:  mined.ClusterID,
		Template:   mined.Template,
		Params:     params,
		Service:    serviceName(raw),
		Username:   params["USERNAME"],
		RemoteHost: params["RHOST"],
	}, nil
}

func (p *Pipeline) resolveTimestamps(records []*model.LogRecord, summary *RunSummary) {
	fallback := p.opts.AnchorFallbackYear
	if fallback == 0 {
		fallback = time.Now().Year()
	}
	year, found := timeline.AnchorYear(records, fallback)
	summary.AnchorYear = year
	summary.AnchorFromLogs = found
	if found {
		log.Printf("pipeline: anchor year %d detected from logs", year)
	} else {
		log.Printf("pipeline: no year in logs, anchoring to %d", year)
	}

	timeline.Resolve(records, year)
	summary.Rollover = timeline.CorrectRollover(records)
}

// serviceName pulls the syslog process token off the raw line, stripping
// the pid suffix and trailing colon.
func serviceName(raw string) string {
	parts := strings.Fields(raw)
	if len(parts) <= 4 {
		return "Unknown"
	}
	return serviceSplit.Split(parts[4], 2)[0]
}
