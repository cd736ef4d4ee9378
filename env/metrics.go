package env

// EpisodeStats accumulates the service-level counters of one episode
type EpisodeStats struct {
	Requests int
	Accepted int
	Blocked  int

	AcceptedGbps float64
	OfferedGbps  float64

	Utilisation   float64
	Fragmentation float64
	Clock         float64
}

// ServiceBlockingProb is the fraction of requests blocked so far
func (s EpisodeStats) ServiceBlockingProb() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Blocked) / float64(s.Requests)
}

// BitrateBlockingProb is the fraction of offered bit-rate blocked so far
func (s EpisodeStats) BitrateBlockingProb() float64 {
	if s.OfferedGbps == 0 {
		return 0
	}
	return 1 - s.AcceptedGbps/s.OfferedGbps
}

// StatsProvider is implemented by environment states so analyzers can read
// episode counters off a trace without knowing the environment type
type StatsProvider interface {
	Stats() EpisodeStats
}
