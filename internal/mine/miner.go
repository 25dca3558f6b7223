// Package mine wraps the drain clustering engine: it feeds normalized
// lines into the prefix tree and tracks stable per-run cluster identifiers
// in first-seen order.
package mine

import (
	"fmt"
	"sort"

	"github.com/faceair/drain"

	"github.com/tinysift/sift/internal/model"
)

// ParamString is the wildcard token drain emits where cluster members
// disagree. The extractor treats it as a free-form capture.
const ParamString = "<*>"

// Options tune the clustering tree.
type Options struct {
	Depth       int
	Similarity  float64
	MaxChildren int
	MaxClusters int
}

func (o Options) withDefaults() Options {
	if o.Depth == 0 {
		o.Depth = model.DefaultDrainDepth
	}
	if o.Similarity == 0 {
		o.Similarity = model.DefaultDrainSimilarity
	}
	if o.MaxChildren == 0 {
		o.MaxChildren = 100
	}
	return o
}

// Miner assigns each normalized line to a template cluster. It is not safe
// for concurrent use; the pipeline feeds it from a single goroutine to keep
// cluster identifiers deterministic.
type Miner struct {
	tree   *drain.Drain
	ids    map[*drain.LogCluster]int64
	order  []*drain.LogCluster
	counts map[int64]int64
	nextID int64
}

// New builds a Miner with the given options.
func New(opts Options) *Miner {
	opts = opts.withDefaults()
	tree := drain.New(&drain.Config{
		LogClusterDepth: opts.Depth,
		SimTh:           opts.Similarity,
		MaxChildren:     opts.MaxChildren,
		MaxClusters:     opts.MaxClusters,
		ParamString:     ParamString,
	})
	return &Miner{
		tree:   tree,
		ids:    make(map[*drain.LogCluster]int64),
		counts: make(map[int64]int64),
		nextID: 1,
	}
}

// Mine adds one normalized line to the tree and returns the cluster it
// landed in. A nil cluster from the engine aborts the run; continuing would
// silently drop the line from every downstream stage.
func (m *Miner) Mine(normalized string) (model.MineResult, error) {
	cluster := m.tree.Train(normalized)
	if cluster == nil {
		return model.MineResult{}, fmt.Errorf("mine: engine returned no cluster for line %q", normalized)
	}
	id, ok := m.ids[cluster]
	if !ok {
		id = m.nextID
		m.nextID++
		m.ids[cluster] = id
		m.order = append(m.order, cluster)
	}
	m.counts[id]++
	return model.MineResult{ClusterID: id, Template: cluster.GetTemplate()}, nil
}

// Clusters returns every cluster seen so far, largest first. Templates are
// read at call time, so a cluster's template reflects all lines it absorbed.
func (m *Miner) Clusters() []model.TemplateCluster {
	out := make([]model.TemplateCluster, 0, len(m.order))
	for _, c := range m.order {
		id := m.ids[c]
		out = append(out, model.TemplateCluster{
			ID:       id,
			Template: c.GetTemplate(),
			Size:     m.counts[id],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].ID < out[j].ID
	})
	return out
}
