// internal/models/chart.go
package models

type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartBar  ChartKind = "bar"
)

// ChartURLPrefix is the path charts are served under.
const ChartURLPrefix = "/chart/"

// ChartArtifact references a rendered chart held in the artifact store.
type ChartArtifact struct {
	Name        string    `json:"name"`
	Kind        ChartKind `json:"kind"`
	ContentType string    `json:"content_type"`
}

// URL returns the path the chart can be fetched from.
func (a *ChartArtifact) URL() string {
	return ChartURLPrefix + a.Name
}
