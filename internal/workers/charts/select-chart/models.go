package selectchart

import "finsight/internal/models"

type Input struct {
	Query string
}

type Output struct {
	Kind models.ChartKind
}
