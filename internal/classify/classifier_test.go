package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tinysift/sift/internal/model"
)

func classifyLine(t *testing.T, raw, template, service string) *model.LogRecord {
	t.Helper()
	r := &model.LogRecord{RawLine: raw, Template: template, Service: service}
	New(DefaultTables()).Classify(r)
	return r
}

func TestClassify_Severity(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want model.Severity
	}{
		{"critical keyword", "kernel: Oops: fatal exception in interrupt", model.SeverityCritical},
		{"warning keyword", "sshd[2541]: Failed password for root", model.SeverityWarning},
		{"plain info", "sshd[2541]: session opened for user cyrus", model.SeverityInfo},
		{"peer died is suppressed", "telnetd[16732]: ttloop: peer died: Invalid or incomplete multibyte or wide character", model.SeverityInfo},
		{"died without peer stays critical", "watchdog: process died unexpectedly", model.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := classifyLine(t, tt.raw, "", "")
			if r.Severity != tt.want {
				t.Errorf("severity = %s, want %s", r.Severity, tt.want)
			}
		})
	}
}

func TestClassify_SecurityTags(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		service string
		want    []model.SecurityTag
	}{
		{
			"illegal access",
			"sshd[19937]: Illegal user test from 218.49.183.17",
			"sshd",
			[]model.SecurityTag{model.TagIllegalAccess},
		},
		{
			"auth failure",
			"sshd(pam_unix)[2541]: authentication failure; rhost=218.188.2.4",
			"sshd",
			[]model.SecurityTag{model.TagAuthFailure},
		},
		{
			"privilege via service",
			"su(pam_unix)[1796]: session opened for user cyrus by (uid=0)",
			"su",
			[]model.SecurityTag{model.TagPrivilegeActivity, model.TagSuccessfulLogin},
		},
		{
			"privilege via uid marker",
			"sshd[20884]: Accepted password for root with uid=0",
			"sshd",
			[]model.SecurityTag{model.TagPrivilegeActivity, model.TagSuccessfulLogin},
		},
		{
			"logout",
			"su(pam_unix)[1796]: session closed for user cyrus",
			"su",
			[]model.SecurityTag{model.TagPrivilegeActivity, model.TagSessionLogout},
		},
		{
			"normal",
			"syslogd 1.4.1: restart.",
			"syslogd",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := classifyLine(t, tt.raw, "", tt.service)
			if len(r.Tags) != len(tt.want) {
				t.Fatalf("tags = %v, want %v", r.Tags, tt.want)
			}
			for i := range tt.want {
				if r.Tags[i] != tt.want[i] {
					t.Errorf("tag %d = %s, want %s", i, r.Tags[i], tt.want[i])
				}
			}
		})
	}
}

func TestClassify_TemplateTextCounts(t *testing.T) {
	// Keywords can live in the mined template even when masking removed
	// them from the raw text reading.
	r := &model.LogRecord{
		RawLine:  "something opaque",
		Template: "FAILED LOGIN <NUM> FROM (<RHOST>)",
	}
	New(DefaultTables()).Classify(r)
	if r.Severity != model.SeverityWarning {
		t.Errorf("severity = %s, want WARNING", r.Severity)
	}
}

func TestSecurityLabel(t *testing.T) {
	r := classifyLine(t, "sshd: Illegal user guest, authentication failure", "", "sshd")
	want := "Illegal Access; Auth Failure"
	if got := r.SecurityLabel(); got != want {
		t.Errorf("label = %q, want %q", got, want)
	}

	plain := classifyLine(t, "restart.", "", "syslogd")
	if got := plain.SecurityLabel(); got != model.NormalLabel {
		t.Errorf("label = %q, want %q", got, model.NormalLabel)
	}
}

func TestLoadTables_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yml")
	content := "warning_keywords:\n  - degraded\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}
	if len(tables.WarningKeywords) != 1 || tables.WarningKeywords[0] != "degraded" {
		t.Errorf("warning keywords = %v", tables.WarningKeywords)
	}
	// Untouched lists keep their defaults.
	if len(tables.CriticalKeywords) == 0 {
		t.Error("critical keywords lost their defaults")
	}

	c := New(tables)
	r := &model.LogRecord{RawLine: "link degraded on eth0"}
	c.Classify(r)
	if r.Severity != model.SeverityWarning {
		t.Errorf("severity with override = %s, want WARNING", r.Severity)
	}
}
