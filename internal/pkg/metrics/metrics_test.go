package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBuild(t *testing.T) {
	okBefore := testutil.ToFloat64(BuildsTotal.WithLabelValues(ResultOK))
	errBefore := testutil.ToFloat64(BuildsTotal.WithLabelValues(ResultError))

	ObserveBuild(2*time.Millisecond, 4, 10, nil)
	ObserveBuild(0, 1, 0, errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(BuildsTotal.WithLabelValues(ResultOK)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(BuildsTotal.WithLabelValues(ResultError)))
	assert.Equal(t, float64(10), testutil.ToFloat64(AutomatonStates))
	assert.Equal(t, float64(4), testutil.ToFloat64(AutomatonPatterns))
}

func TestObserveScan(t *testing.T) {
	bytesBefore := testutil.ToFloat64(BytesScanned.WithLabelValues(SourceFile))
	matchBefore := testutil.ToFloat64(ScansTotal.WithLabelValues(SourceFile, OutcomeMatch))
	cleanBefore := testutil.ToFloat64(ScansTotal.WithLabelValues(SourceFile, OutcomeClean))
	errorBefore := testutil.ToFloat64(ScansTotal.WithLabelValues(SourceFile, OutcomeError))
	matchesBefore := testutil.ToFloat64(MatchesTotal.WithLabelValues(SourceFile))

	ObserveScan(SourceFile, 100, 3, nil)
	ObserveScan(SourceFile, 50, 0, nil)
	ObserveScan(SourceFile, 7, 0, errors.New("read failed"))

	assert.Equal(t, bytesBefore+157, testutil.ToFloat64(BytesScanned.WithLabelValues(SourceFile)))
	assert.Equal(t, matchBefore+1, testutil.ToFloat64(ScansTotal.WithLabelValues(SourceFile, OutcomeMatch)))
	assert.Equal(t, cleanBefore+1, testutil.ToFloat64(ScansTotal.WithLabelValues(SourceFile, OutcomeClean)))
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(ScansTotal.WithLabelValues(SourceFile, OutcomeError)))
	assert.Equal(t, matchesBefore+3, testutil.ToFloat64(MatchesTotal.WithLabelValues(SourceFile)))
}

func TestObserveReload(t *testing.T) {
	before := testutil.ToFloat64(PatternReloads.WithLabelValues(ResultOK))
	ObserveReload(nil)
	assert.Equal(t, before+1, testutil.ToFloat64(PatternReloads.WithLabelValues(ResultOK)))
}

func TestServer(t *testing.T) {
	s, err := StartServer("127.0.0.1:0")
	require.NoError(t, err)

	ObserveBuild(time.Millisecond, 1, 2, nil)

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "acscan_automaton_builds_total")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
