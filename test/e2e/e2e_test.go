package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finsight/internal/app"
	"finsight/internal/common/config"
	"finsight/internal/common/logger"
	"finsight/internal/common/observability"
)

// fakeAzure answers chat completion calls the way the deployment would.
type fakeAzure struct {
	intent string
	answer string
	status int
	calls  atomic.Int32
}

func (f *fakeAzure) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if r.Header.Get("api-key") != "test-key" || !strings.HasSuffix(r.URL.Path, "/openai/deployments/gpt-4o-mini/chat/completions") {
		http.Error(w, "unexpected request", http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		http.Error(w, "deployment overloaded", f.status)
		return
	}

	var req struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 1 {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}

	content := f.answer
	if strings.HasPrefix(req.Messages[0].Content, "You are a STRICT") {
		content = f.intent
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"company", "date_str", "metrics", "realization_budget", "planning_budget", "column_format"},
		{"Acme", "2021-05-15", "Revenue", 120, 100, "USD"},
		{"Beta", "2021-05-20", "Revenue", 80, 100, "USD"},
		{"Acme", "2021-06-15", "Revenue", 140, 110, "USD"},
		{"Beta", "2021-06-20", "Revenue", 95, nil, "USD"},
		{"Acme", "2021-05-15", "EBITDA", 30, 25, "USD"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "financials.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func startService(t *testing.T, azure *fakeAzure) *httptest.Server {
	t.Helper()

	model := httptest.NewServer(azure)
	t.Cleanup(model.Close)

	redis := miniredis.RunT(t)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
dataset:
  path: %s
llm:
  endpoint: %s
  api_key: test-key
  model: gpt-4o-mini
  timeout: 5000
charts:
  store: redis
  ttl: 60
  width: 600
  height: 400
redis:
  address: %s
logging:
  level: debug
`, writeWorkbook(t), model.URL, redis.Addr())), 0o644))

	cfg, err := config.LoadFromFile(cfgPath)
	require.NoError(t, err)
	require.Equal(t, config.ChartStoreRedis, cfg.Charts.Store)

	obs := observability.New("finsight-e2e", observability.WithRegisterer(prometheus.NewRegistry()))
	t.Cleanup(obs.Shutdown)

	service, err := app.New(cfg, logger.NewTestLogger(t), obs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Close() })

	server := httptest.NewServer(service.Router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, body string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestAskThenFetchChart(t *testing.T) {
	azure := &fakeAzure{
		intent: `{"metrics":["Revenue"],"companies":["Acme","Beta"],"periods":[],"is_comparison":true,"ask_insights":false}`,
		answer: "Acme grew revenue from 120 to 140 while Beta went from 80 to 95.",
	}
	server := startService(t, azure)

	status, body := postJSON(t, server.URL+"/ask", `{"query":"Compare Acme vs Beta revenue"}`)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, azure.answer, body["answer"])
	assert.Equal(t, "line", body["chart_type"])
	assert.EqualValues(t, 2, azure.calls.Load())

	filtered, ok := body["filtered"].([]interface{})
	require.True(t, ok)
	require.Len(t, filtered, 4)
	last := filtered[3].(map[string]interface{})
	assert.Equal(t, "Beta", last["company"])
	assert.Nil(t, last["planning_budget"])

	chartURL, ok := body["chart_url"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(chartURL, "/chart/chart-"))

	resp, err := http.Get(server.URL + chartURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
}

func TestAskWithUnusableIntentStillAnswers(t *testing.T) {
	azure := &fakeAzure{
		intent: "Sure! Here is the JSON you asked for.",
		answer: "The dataset covers Acme and Beta.",
	}
	server := startService(t, azure)

	status, body := postJSON(t, server.URL+"/ask", `{"query":"what is in here"}`)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "bar", body["chart_type"])
	assert.Len(t, body["filtered"], 5)
	assert.Equal(t, map[string]interface{}{
		"metrics":       []interface{}{},
		"companies":     []interface{}{},
		"periods":       []interface{}{},
		"is_comparison": false,
		"ask_insights":  false,
	}, body["understanding"])
}

func TestModelFailureReturnsApology(t *testing.T) {
	server := startService(t, &fakeAzure{status: http.StatusServiceUnavailable})

	status, body := postJSON(t, server.URL+"/ask", `{"query":"revenue"}`)
	require.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Sorry, something went wrong on the server.", body["answer"])
	assert.Contains(t, body["error"], "503")
}

func TestRevenuePerformance(t *testing.T) {
	server := startService(t, &fakeAzure{})

	status, body := postJSON(t, server.URL+"/api/revenue-performance", `{"month":"May 2021"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "May 2021", body["month"])

	results := body["results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "Acme", first["company"])
	assert.Equal(t, "2021-05-15", first["period"])
	assert.Equal(t, "overperforming", first["performance"])
	assert.Equal(t, "underperforming", results[1].(map[string]interface{})["performance"])

	status, body = postJSON(t, server.URL+"/api/revenue-performance", `{"month":"2019-01"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "no_data", body["status"])
	assert.Equal(t, []interface{}{}, body["results"])

	status, body = postJSON(t, server.URL+"/api/revenue-performance", `{"month":"sometime"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "error", body["status"])
	assert.NotContains(t, body, "results")
}

func TestLookupsAndProbes(t *testing.T) {
	server := startService(t, &fakeAzure{})

	resp, err := http.Get(server.URL + "/api/lookups")
	require.NoError(t, err)
	defer resp.Body.Close()
	var lookups map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lookups))
	assert.Equal(t, []string{"EBITDA", "Revenue"}, lookups["metrics"])
	assert.Equal(t, []string{"Acme", "Beta"}, lookups["companies"])

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err = http.Get(server.URL + "/chart/chart-00000000-0000-0000-0000-000000000000.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
