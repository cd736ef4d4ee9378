// Package monitor serves live experiment progress over HTTP: a JSON status
// endpoint and Prometheus counters for long training runs.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/optnet-sim/rmsa-rl/env"
	"github.com/optnet-sim/rmsa-rl/types"
)

// experimentStatus is the snapshot reported per experiment
type experimentStatus struct {
	Experiment      string  `json:"experiment"`
	Episodes        int     `json:"episodes"`
	Requests        int     `json:"requests"`
	Accepted        int     `json:"accepted"`
	Blocked         int     `json:"blocked"`
	ServiceBlocking float64 `json:"service_blocking"`
	BitrateBlocking float64 `json:"bitrate_blocking"`
	LastReward      float64 `json:"last_reward"`
	UpdatedAt       string  `json:"updated_at"`
}

// Server exposes /status and /metrics. It doubles as an Analyzer so it can
// be attached to experiments and fed every finished episode.
type Server struct {
	lock   *sync.Mutex
	status map[string]*experimentStatus
	srv    *http.Server

	episodes    *prometheus.CounterVec
	requests    *prometheus.CounterVec
	accepted    *prometheus.CounterVec
	blocked     *prometheus.CounterVec
	blocking    *prometheus.GaugeVec
	utilisation *prometheus.GaugeVec
	reward      *prometheus.GaugeVec
}

var _ types.Analyzer = &Server{}

func NewServer(addr string) *Server {
	s := &Server{
		lock:   new(sync.Mutex),
		status: make(map[string]*experimentStatus),
		episodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "episodes_total",
			Help: "Finished episodes",
		}, []string{"experiment"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Simulated connection requests",
		}, []string{"experiment"}),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accepted_total",
			Help: "Accepted connection requests",
		}, []string{"experiment"}),
		blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blocked_total",
			Help: "Blocked connection requests",
		}, []string{"experiment"}),
		blocking: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "service_blocking_probability",
			Help: "Service blocking probability of the last episode",
		}, []string{"experiment"}),
		utilisation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spectrum_utilisation",
			Help: "Spectrum utilisation at the end of the last episode",
		}, []string{"experiment"}),
		reward: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "episode_reward",
			Help: "Total reward of the last episode",
		}, []string{"experiment"}),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(s.episodes, s.requests, s.accepted, s.blocked, s.blocking, s.utilisation, s.reward)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/status", s.handleStatus)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	s.srv = &http.Server{Addr: addr, Handler: router}
	return s
}

// Start serves in the background until Stop is called
func (s *Server) Start() {
	go func() {
		// the monitor is best effort, a bind failure should not kill a run
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("monitor: %v\n", err)
		}
	}()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleStatus(c *gin.Context) {
	s.lock.Lock()
	out := make([]experimentStatus, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, *st)
	}
	s.lock.Unlock()
	c.JSON(http.StatusOK, gin.H{"experiments": out})
}

func (s *Server) Analyze(run, episode int, experiment string, trace *types.Trace) {
	_, _, _, final, ok := trace.Last()
	if !ok {
		return
	}
	provider, ok := final.(env.StatsProvider)
	if !ok {
		return
	}
	stats := provider.Stats()

	s.lock.Lock()
	st, ok := s.status[experiment]
	if !ok {
		st = &experimentStatus{Experiment: experiment}
		s.status[experiment] = st
	}
	st.Episodes++
	st.Requests += stats.Requests
	st.Accepted += stats.Accepted
	st.Blocked += stats.Blocked
	st.ServiceBlocking = stats.ServiceBlockingProb()
	st.BitrateBlocking = stats.BitrateBlockingProb()
	st.LastReward = trace.TotalReward()
	st.UpdatedAt = time.Now().Format(time.RFC3339)
	s.lock.Unlock()

	s.episodes.WithLabelValues(experiment).Inc()
	s.requests.WithLabelValues(experiment).Add(float64(stats.Requests))
	s.accepted.WithLabelValues(experiment).Add(float64(stats.Accepted))
	s.blocked.WithLabelValues(experiment).Add(float64(stats.Blocked))
	s.blocking.WithLabelValues(experiment).Set(stats.ServiceBlockingProb())
	s.utilisation.WithLabelValues(experiment).Set(stats.Utilisation)
	s.reward.WithLabelValues(experiment).Set(trace.TotalReward())
}

// DataSet returns the accumulated per-experiment summaries
func (s *Server) DataSet() types.DataSet {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]experimentStatus, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, *st)
	}
	return out
}

func (s *Server) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status = make(map[string]*experimentStatus)
}
