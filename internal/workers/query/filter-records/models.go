package filterrecords

import "finsight/internal/models"

type Input struct {
	Intent  models.Intent
	Records []models.Record
}

type Output struct {
	Records []models.Record
}
