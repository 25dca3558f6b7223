package timeline

import (
	"testing"
	"time"

	"github.com/tinysift/sift/internal/model"
)

func rec(raw string, params map[string]string) *model.LogRecord {
	if params == nil {
		params = map[string]string{}
	}
	return &model.LogRecord{RawLine: raw, Params: params}
}

func TestAnchorYear(t *testing.T) {
	tests := []struct {
		name      string
		records   []*model.LogRecord
		wantYear  int
		wantFound bool
	}{
		{
			"year in timestamp param",
			[]*model.LogRecord{
				rec("no year here", nil),
				rec("still none", map[string]string{"TIMESTAMP": "Sat Jun 18 02:08:12 2005"}),
			},
			2005, true,
		},
		{
			"year at line end",
			[]*model.LogRecord{
				rec("connection from 1.2.3.4 at Sat Jun 18 02:08:12 2005", nil),
			},
			2005, true,
		},
		{
			"param wins over line end",
			[]*model.LogRecord{
				rec("something 2009", map[string]string{"TIMESTAMP": "Sat Jun 18 02:08:12 2005"}),
			},
			2005, true,
		},
		{
			"fallback when absent",
			[]*model.LogRecord{
				rec("Jun  9 06:06:20 combo sshd: no year", nil),
			},
			2024, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, found := AnchorYear(tt.records, 2024)
			if year != tt.wantYear || found != tt.wantFound {
				t.Errorf("AnchorYear = (%d, %v), want (%d, %v)", year, found, tt.wantYear, tt.wantFound)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	records := []*model.LogRecord{
		rec("Jun  9 06:06:20 combo sshd[2541]: check pass", map[string]string{"TIMESTAMP": "Jun  9 06:06:20"}),
		// No param: falls back to the first three raw tokens.
		rec("Jul 27 14:41:57 combo su[1796]: session opened", nil),
		rec("not a timestamp at all", nil),
	}

	Resolve(records, 2005)

	want0 := time.Date(2005, time.June, 9, 6, 6, 20, 0, time.UTC)
	if !records[0].Timestamp.Equal(want0) {
		t.Errorf("record 0 timestamp = %v, want %v", records[0].Timestamp, want0)
	}
	want1 := time.Date(2005, time.July, 27, 14, 41, 57, 0, time.UTC)
	if !records[1].Timestamp.Equal(want1) {
		t.Errorf("record 1 timestamp = %v, want %v", records[1].Timestamp, want1)
	}
	if !records[2].Timestamp.IsZero() {
		t.Errorf("unparseable record got timestamp %v", records[2].Timestamp)
	}
}

func TestCorrectRollover(t *testing.T) {
	records := []*model.LogRecord{
		rec("a", map[string]string{"TIMESTAMP": "Dec 30 23:00:00"}),
		rec("b", map[string]string{"TIMESTAMP": "Dec 31 23:59:00"}),
		rec("c", map[string]string{"TIMESTAMP": "Jan  1 00:05:00"}),
		rec("d", map[string]string{"TIMESTAMP": "Jan  2 08:00:00"}),
	}
	Resolve(records, 2005)

	if !CorrectRollover(records) {
		t.Fatal("rollover not detected")
	}

	if records[1].Timestamp.Year() != 2005 {
		t.Errorf("pre-boundary record moved to %d", records[1].Timestamp.Year())
	}
	if records[2].Timestamp.Year() != 2006 {
		t.Errorf("post-boundary record year = %d, want 2006", records[2].Timestamp.Year())
	}
	if records[3].Timestamp.Year() != 2006 {
		t.Errorf("later record year = %d, want 2006", records[3].Timestamp.Year())
	}
}

func TestCorrectRollover_OnlyFirstBoundary(t *testing.T) {
	records := []*model.LogRecord{
		rec("a", map[string]string{"TIMESTAMP": "Dec 31 23:00:00"}),
		rec("b", map[string]string{"TIMESTAMP": "Jan  1 00:00:00"}),
		rec("c", map[string]string{"TIMESTAMP": "Dec 31 22:00:00"}),
		rec("d", map[string]string{"TIMESTAMP": "Jan  1 01:00:00"}),
	}
	Resolve(records, 2005)
	CorrectRollover(records)

	// Everything after the first boundary shifts exactly once.
	years := []int{2005, 2006, 2006, 2006}
	for i, r := range records {
		if r.Timestamp.Year() != years[i] {
			t.Errorf("record %d year = %d, want %d", i, r.Timestamp.Year(), years[i])
		}
	}
}

func TestCorrectRollover_SkipsUnresolved(t *testing.T) {
	records := []*model.LogRecord{
		rec("a", map[string]string{"TIMESTAMP": "Dec 31 23:00:00"}),
		rec("garbage line", nil),
		rec("c", map[string]string{"TIMESTAMP": "Jan  1 00:00:00"}),
	}
	Resolve(records, 2005)

	if !CorrectRollover(records) {
		t.Fatal("rollover not detected across an unresolved record")
	}
	if records[2].Timestamp.Year() != 2006 {
		t.Errorf("post-boundary year = %d, want 2006", records[2].Timestamp.Year())
	}
}

func TestBounds(t *testing.T) {
	records := []*model.LogRecord{
		rec("a", map[string]string{"TIMESTAMP": "Jun  9 06:06:20"}),
		rec("garbage", nil),
		rec("c", map[string]string{"TIMESTAMP": "Jun  9 08:00:00"}),
	}
	Resolve(records, 2005)

	min, max, ok := Bounds(records)
	if !ok {
		t.Fatal("no bounds found")
	}
	if min.Hour() != 6 || max.Hour() != 8 {
		t.Errorf("bounds = (%v, %v)", min, max)
	}

	if _, _, ok := Bounds([]*model.LogRecord{rec("x", nil)}); ok {
		t.Error("bounds reported for unresolved records")
	}
}
