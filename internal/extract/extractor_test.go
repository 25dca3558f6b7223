package extract

import (
	"testing"
)

func TestExtract_NamedTags(t *testing.T) {
	e := New()

	tests := []struct {
		name     string
		raw      string
		template string
		want     map[string]string
	}{
		{
			"header and rhost",
			"Jun  9 06:06:20 combo sshd(pam_unix)[2541]: authentication failure; rhost=218.188.2.4",
			"<TIMESTAMP> <HOSTNAME> sshd(pam_unix)[<PID>]: authentication failure; rhost=<RHOST>",
			map[string]string{
				"TIMESTAMP": "Jun  9 06:06:20",
				"HOSTNAME":  "combo",
				"PID":       "2541",
				"RHOST":     "218.188.2.4",
			},
		},
		{
			"session open",
			"Jul 27 14:41:57 combo su(pam_unix)[1796]: session opened for user cyrus by (uid=0)",
			"<TIMESTAMP> <HOSTNAME> su(pam_unix)[<PID>]: session <STATE> for user <USERNAME> by (uid=<UID>)",
			map[string]string{
				"TIMESTAMP": "Jul 27 14:41:57",
				"HOSTNAME":  "combo",
				"PID":       "1796",
				"STATE":     "opened",
				"USERNAME":  "cyrus",
				"UID":       "0",
			},
		},
		{
			"no match gives empty map",
			"completely different line",
			"<TIMESTAMP> <HOSTNAME> sshd[<PID>]: connection from <RHOST>",
			map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.raw, tt.template)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("param %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestExtract_WildcardAbandons(t *testing.T) {
	e := New()

	// The wildcard adds an unnamed capture group, so positional mapping is
	// unsafe and the whole record is abandoned.
	got := e.Extract(
		"Jun  9 06:06:20 combo logrotate: ALERT exited abnormally with [1]",
		"<TIMESTAMP> <HOSTNAME> logrotate: ALERT exited <*> with [<PID>]",
	)
	if len(got) != 0 {
		t.Errorf("wildcard template extracted %v, want empty map", got)
	}
}

func TestExtract_RepeatedTagConcatenates(t *testing.T) {
	e := New()

	got := e.Extract(
		"connection from 207.30.238.8 (host-207.wlfdle.net)",
		"connection from <RHOST> (<RHOST>)",
	)
	want := "207.30.238.8, host-207.wlfdle.net"
	if got["RHOST"] != want {
		t.Errorf("RHOST = %q, want %q", got["RHOST"], want)
	}
}

func TestExtract_RepeatedTagSkipsContainedValue(t *testing.T) {
	e := New()

	got := e.Extract(
		"connection from 1.2.3.4 (1.2.3.4)",
		"connection from <RHOST> (<RHOST>)",
	)
	if got["RHOST"] != "1.2.3.4" {
		t.Errorf("RHOST = %q, want %q", got["RHOST"], "1.2.3.4")
	}
}

func TestExtractHeader(t *testing.T) {
	ts, host, ok := ExtractHeader("Jun  9 06:06:20 combo sshd[2541]: check pass")
	if !ok {
		t.Fatal("header not found")
	}
	if ts != "Jun  9 06:06:20" || host != "combo" {
		t.Errorf("got (%q, %q)", ts, host)
	}

	if _, _, ok := ExtractHeader("no header here"); ok {
		t.Error("found header where none exists")
	}
}
