package model

// MineResult is the clustering engine's answer for one normalized line.
type MineResult struct {
	ClusterID int64
	Template  string
}

// Miner is the narrow contract for the external clustering engine.
// Implementations are order-sensitive and single-owner: lines must be fed
// in strict input order from exactly one goroutine, and a fresh instance
// must be created per run.
type Miner interface {
	Mine(normalized string) (MineResult, error)
	Clusters() []TemplateCluster
}

// IngestEnvelope carries one raw log line with source metadata.
// It is the transport contract between log sources and the pipeline.
type IngestEnvelope struct {
	Source string
	Line   string
}

// AnalysisWriter persists the artifacts of one pipeline run.
type AnalysisWriter interface {
	InsertRecordBatch(records []*LogRecord) error
	InsertClusters(clusters []TemplateCluster) error
	InsertSessions(sessions []Session) error
	InsertThreats(threats []ThreatCandidate) error
}

// AnalysisReader is the read-side contract consumed by the HTTP API.
type AnalysisReader interface {
	TotalRecordCount() (int64, error)
	SeverityCounts() (map[string]int64, error)
	SecurityTagCounts() (map[string]int64, error)
	TopRemoteHosts(limit int) ([]HostCount, error)
	ListSessions() ([]Session, error)
	ListThreats() ([]ThreatCandidate, error)
	ExecuteQuery(query string) ([]map[string]interface{}, error)
	GetSchemaDescription() string
	TableRowCounts() (map[string]int64, error)
}

// HostCount is a remote-host identity with its record count.
type HostCount struct {
	Host  string
	Count int64
}
