package synthesizeanswer

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/common/logger"
	"finsight/internal/models"
)

type fakeCompleter struct {
	response string
	err      error
	prompt   string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestSerializeRecords_ExactNumbersAndNulls(t *testing.T) {
	got, err := SerializeRecords([]models.Record{
		{Company: "Acme & Co", Period: "2021-05", Metric: "Revenue", RealizationValue: 1234567.891, PlanningValue: 0.1, Unit: "EUR"},
		{Company: "Müller", Period: "2021-06", Metric: "EBITDA", RealizationValue: math.NaN(), PlanningValue: 120, Unit: ""},
	})
	require.NoError(t, err)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"company":"Acme & Co","period":"2021-05","metric":"Revenue","realization_budget":1234567.891,"planning_budget":0.1,"unit":"EUR"}`, lines[0])
	assert.Equal(t, `{"company":"Müller","period":"2021-06","metric":"EBITDA","realization_budget":null,"planning_budget":120,"unit":""}`, lines[1])
}

func TestSerializeRecords_Empty(t *testing.T) {
	got, err := SerializeRecords(nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestExecute_ReturnsAnswerVerbatim(t *testing.T) {
	client := &fakeCompleter{response: "  Acme's revenue was 120 in May 2021.\n"}
	h := NewHandler(&Config{}, client, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Query:   "What was Acme's revenue?",
		Records: []models.Record{{Company: "Acme", Period: "2021-05", Metric: "Revenue", RealizationValue: 120, PlanningValue: 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, "  Acme's revenue was 120 in May 2021.\n", out.Answer)

	assert.Contains(t, client.prompt, "You are a financial analyst. SHORT answers only.")
	assert.Contains(t, client.prompt, "STRUCTURED DATA:\n{\"company\":\"Acme\"")
	assert.Contains(t, client.prompt, "USER QUESTION:\nWhat was Acme's revenue?")
	assert.Contains(t, client.prompt, "- Use only the numbers given in the data above")
	assert.Contains(t, client.prompt, "- Copy numbers EXACTLY from data: no rounding, no recomputation")
}

func TestExecute_ModelFailurePropagates(t *testing.T) {
	cause := errors.New("status 500")
	h := NewHandler(&Config{}, &fakeCompleter{err: cause}, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Query: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "synthesize answer")
}
