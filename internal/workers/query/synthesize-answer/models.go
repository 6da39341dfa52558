package synthesizeanswer

import "finsight/internal/models"

type Input struct {
	Query   string
	Records []models.Record
}

type Output struct {
	Answer string `json:"answer"`
}
