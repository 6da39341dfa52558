package classifyrevenue

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/common/dataset"
	apperrors "finsight/internal/common/errors"
	"finsight/internal/common/logger"
	"finsight/internal/models"
)

const sample = `company,date_str,metrics,realization_budget,planning_budget,column_format
Acme,2021-05-15,Revenue,120,100,USD
Beta,2021-05-31,revenue,80,100,USD
Gamma,2021-05-01,REVENUE,100,100,USD
Acme,2021-05-15,EBITDA,10,5,USD
Acme,2021-06-15,Revenue,90,100,USD
Delta,not a date,Revenue,1,2,USD
`

func writeDataset(t *testing.T, content string) dataset.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dataset.Source{Path: path}
}

func newHandler(t *testing.T, src dataset.Source) *Handler {
	return NewHandler(LoadConfig(src), logger.NewTestLogger(t))
}

func TestExecute_LabelsRevenueForMonth(t *testing.T) {
	h := newHandler(t, writeDataset(t, sample))

	out, err := h.Execute(context.Background(), &Input{Month: "2021-05"})
	require.NoError(t, err)

	report := out.Report
	assert.Equal(t, models.ReportSuccess, report.Status)
	assert.Equal(t, "2021-05", report.Month)
	require.Len(t, report.Results, 3)

	assert.Equal(t, models.PerformanceResult{
		Company:          "Acme",
		Period:           "2021-05-15",
		Metric:           "Revenue",
		RealizationValue: 120,
		PlanningValue:    100,
		Label:            models.Overperforming,
	}, report.Results[0])
	assert.Equal(t, models.Underperforming, report.Results[1].Label)
	assert.Equal(t, "Revenue", report.Results[1].Metric)
	assert.Equal(t, models.MetTarget, report.Results[2].Label)
}

func TestExecute_AcceptedMonthFormats(t *testing.T) {
	h := newHandler(t, writeDataset(t, sample))

	for _, month := range []string{"2021-05", "2021-05-02", "May 2021", "may 2021", "May, 2021", "2021/05", "05/2021"} {
		t.Run(month, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{Month: month})
			require.NoError(t, err)
			assert.Equal(t, models.ReportSuccess, out.Report.Status)
			assert.Equal(t, month, out.Report.Month)
			assert.Len(t, out.Report.Results, 3)
		})
	}
}

func TestExecute_InvalidMonth(t *testing.T) {
	h := newHandler(t, writeDataset(t, sample))

	out, err := h.Execute(context.Background(), &Input{Month: "not-a-month"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportError, out.Report.Status)
	assert.Equal(t, "Invalid month format. Use 'YYYY-MM' or 'Month YYYY'.", out.Report.Message)
	assert.Empty(t, out.Report.Results)

	body, err := json.Marshal(out.Report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","message":"Invalid month format. Use 'YYYY-MM' or 'Month YYYY'."}`, string(body))
}

func TestExecute_NoData(t *testing.T) {
	h := newHandler(t, writeDataset(t, sample))

	out, err := h.Execute(context.Background(), &Input{Month: "2020-01"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportNoData, out.Report.Status)
	assert.Equal(t, "No Revenue data found for 2020-01.", out.Report.Message)

	body, err := json.Marshal(out.Report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"no_data","message":"No Revenue data found for 2020-01.","results":[]}`, string(body))
}

func TestExecute_ReloadsEveryCall(t *testing.T) {
	src := writeDataset(t, sample)
	h := newHandler(t, src)

	out, err := h.Execute(context.Background(), &Input{Month: "2021-07"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportNoData, out.Report.Status)

	appended := sample + "Acme,2021-07-01,Revenue,50,60,USD\n"
	require.NoError(t, os.WriteFile(src.Path, []byte(appended), 0o644))

	out, err = h.Execute(context.Background(), &Input{Month: "2021-07"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportSuccess, out.Report.Status)
	require.Len(t, out.Report.Results, 1)
	assert.Equal(t, models.Underperforming, out.Report.Results[0].Label)
}

func TestExecute_DatasetLoadFailure(t *testing.T) {
	h := newHandler(t, dataset.Source{Path: filepath.Join(t.TempDir(), "missing.csv")})

	_, err := h.Execute(context.Background(), &Input{Month: "2021-05"})
	require.Error(t, err)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatasetLoadFailed, stdErr.Code)
}

func TestExecute_CustomLoader(t *testing.T) {
	loadErr := errors.New("boom")
	h := newHandler(t, dataset.Source{}).WithLoader(func() (*dataset.Store, error) {
		return nil, loadErr
	})

	_, err := h.Execute(context.Background(), &Input{Month: "2021-05"})
	assert.ErrorIs(t, err, loadErr)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name        string
		realization float64
		planning    float64
		want        models.PerformanceLabel
	}{
		{"above", 120, 100, models.Overperforming},
		{"below", 99.99, 100, models.Underperforming},
		{"equal", 100, 100, models.MetTarget},
		{"tiny difference", 0.30000000000000004, 0.3, models.Overperforming},
		{"missing realization", math.NaN(), 100, models.MetTarget},
		{"missing plan", 100, math.NaN(), models.MetTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, label(tt.realization, tt.planning))
		})
	}
}
