package renderchart

import "finsight/internal/models"

type Input struct {
	Records []models.Record
	Kind    models.ChartKind
}

// Output carries the stored chart, or nil when there was nothing to draw.
type Output struct {
	Artifact *models.ChartArtifact
}
