package classifyrevenue

import "finsight/internal/models"

type Input struct {
	Month string `json:"month"`
}

type Output struct {
	Report models.PerformanceReport `json:"report"`
}
