package mine

import (
	"strings"
	"testing"
)

func TestMine_StableIDs(t *testing.T) {
	m := New(Options{})

	a1, err := m.Mine("session <STATE> for user <USERNAME> by (uid=<UID>)")
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	b, err := m.Mine("connection from <RHOST>")
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	a2, err := m.Mine("session <STATE> for user <USERNAME> by (uid=<UID>)")
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}

	if a1.ClusterID != a2.ClusterID {
		t.Errorf("same line got different clusters: %d vs %d", a1.ClusterID, a2.ClusterID)
	}
	if a1.ClusterID == b.ClusterID {
		t.Errorf("different lines share cluster %d", a1.ClusterID)
	}
	if a1.ClusterID != 1 {
		t.Errorf("first cluster id = %d, want 1", a1.ClusterID)
	}
}

func TestMine_WildcardsVaryingTokens(t *testing.T) {
	m := New(Options{})

	if _, err := m.Mine("check pass for account alice"); err != nil {
		t.Fatalf("Mine: %v", err)
	}
	res, err := m.Mine("check pass for account bob")
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}

	if !strings.Contains(res.Template, ParamString) {
		t.Errorf("varying token not wildcarded: %q", res.Template)
	}
}

func TestClusters_SortedBySize(t *testing.T) {
	m := New(Options{})

	lines := []string{
		"connection from <RHOST>",
		"connection from <RHOST>",
		"connection from <RHOST>",
		"session <STATE> for user <USERNAME>",
		"session <STATE> for user <USERNAME>",
		"ANONYMOUS FTP LOGIN FROM <RHOST>",
	}
	for _, l := range lines {
		if _, err := m.Mine(l); err != nil {
			t.Fatalf("Mine(%q): %v", l, err)
		}
	}

	clusters := m.Clusters()
	if len(clusters) != 3 {
		t.Fatalf("got %d clusters, want 3", len(clusters))
	}
	for i := 1; i < len(clusters); i++ {
		if clusters[i].Size > clusters[i-1].Size {
			t.Errorf("clusters not sorted by size: %v", clusters)
		}
	}
	if clusters[0].Size != 3 {
		t.Errorf("largest cluster size = %d, want 3", clusters[0].Size)
	}

	var total int64
	for _, c := range clusters {
		total += c.Size
	}
	if total != int64(len(lines)) {
		t.Errorf("cluster sizes sum to %d, want %d", total, len(lines))
	}
}
