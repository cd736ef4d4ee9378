package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/types"
)

type stubAction struct{}

func (a *stubAction) Hash() string { return "a" }

type stubState struct {
	stats env.EpisodeStats
}

func (s *stubState) Hash() string { return "s" }

func (s *stubState) Actions() []types.Action { return nil }

func (s *stubState) Stats() env.EpisodeStats { return s.stats }

func feedEpisode(s *Server, episode int, experiment string, stats env.EpisodeStats, reward float64) {
	trace := types.NewTrace()
	trace.Append(&stubState{}, &stubAction{}, reward, &stubState{stats: stats})
	s.Analyze(0, episode, experiment, trace)
}

func TestServerStatus(t *testing.T) {
	s := NewServer("127.0.0.1:0")

	feedEpisode(s, 0, "ksp-ff", env.EpisodeStats{
		Requests: 10, Accepted: 8, Blocked: 2, AcceptedGbps: 800, OfferedGbps: 1000,
	}, 6)
	feedEpisode(s, 1, "ksp-ff", env.EpisodeStats{
		Requests: 10, Accepted: 10, AcceptedGbps: 1000, OfferedGbps: 1000,
	}, 10)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Experiments []struct {
			Experiment      string  `json:"experiment"`
			Episodes        int     `json:"episodes"`
			Requests        int     `json:"requests"`
			Blocked         int     `json:"blocked"`
			ServiceBlocking float64 `json:"service_blocking"`
			LastReward      float64 `json:"last_reward"`
		} `json:"experiments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Experiments, 1)

	exp := body.Experiments[0]
	assert.Equal(t, "ksp-ff", exp.Experiment)
	assert.Equal(t, 2, exp.Episodes)
	assert.Equal(t, 20, exp.Requests)
	assert.Equal(t, 2, exp.Blocked)
	// the gauge tracks the most recent episode
	assert.Equal(t, 0.0, exp.ServiceBlocking)
	assert.Equal(t, 10.0, exp.LastReward)
}

func TestServerMetrics(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	feedEpisode(s, 0, "egreedy", env.EpisodeStats{Requests: 5, Accepted: 3, Blocked: 2}, 1)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	exposition := rec.Body.String()
	assert.Contains(t, exposition, `episodes_total{experiment="egreedy"} 1`)
	assert.Contains(t, exposition, `requests_total{experiment="egreedy"} 5`)
	assert.Contains(t, exposition, `accepted_total{experiment="egreedy"} 3`)
	assert.Contains(t, exposition, `blocked_total{experiment="egreedy"} 2`)
	assert.Contains(t, exposition, `service_blocking_probability{experiment="egreedy"} 0.4`)
}

func TestServerIgnoresEmptyTraces(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	s.Analyze(0, 0, "exp", types.NewTrace())
	assert.Empty(t, s.DataSet().([]experimentStatus))
}

func TestServerReset(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	feedEpisode(s, 0, "exp", env.EpisodeStats{Requests: 1, Accepted: 1}, 1)
	require.Len(t, s.DataSet().([]experimentStatus), 1)
	s.Reset()
	assert.Empty(t, s.DataSet().([]experimentStatus))
}
