package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/internal/metrics"
	"github.com/goliatone/go-formbuilder/pkg/builder"
)

func TestRecorder(t *testing.T) {
	rec := metrics.New()
	rec.ObserveSave(builder.OutcomeSaved, 1500*time.Millisecond)
	rec.ObserveSave(builder.OutcomeSaved, time.Second)
	rec.ObserveSave(builder.OutcomeFailed, 2*time.Second)
	rec.ObserveSave(builder.OutcomeInvalid, 0)
	rec.SetQuestions(3)
	rec.ObserveRequest("/api/questions", "2xx")

	expected := `
# HELP formbuilder_saves_total Auto-save attempts by outcome.
# TYPE formbuilder_saves_total counter
formbuilder_saves_total{outcome="failed"} 1
formbuilder_saves_total{outcome="invalid"} 1
formbuilder_saves_total{outcome="saved"} 2
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "formbuilder_saves_total"))
	series, err := testutil.GatherAndCount(rec.Registry(), "formbuilder_save_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, series)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "formbuilder_questions 3")
	assert.Contains(t, string(body), `formbuilder_http_requests_total{code="2xx",route="/api/questions"} 1`)
}
