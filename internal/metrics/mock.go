package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	roundsGenerated     int
	rematchFallbacks    int
	resultTransitions   map[string]int
	conflicts           int
	tournamentsFinished int
	standingsDurations  []float64
	slackNotifSent      int
	slackNotifFailed    int
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		resultTransitions:  make(map[string]int),
		standingsDurations: make([]float64, 0),
	}
}

func (m *Mock) IncRoundsGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roundsGenerated++
}

func (m *Mock) IncRematchFallbacks(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rematchFallbacks += count
}

func (m *Mock) IncResultTransitions(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultTransitions[status]++
}

func (m *Mock) IncConflicts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *Mock) IncTournamentsFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tournamentsFinished++
}

func (m *Mock) ObserveStandingsDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.standingsDurations = append(m.standingsDurations, duration)
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// RoundsGenerated returns the number of times IncRoundsGenerated was called.
func (m *Mock) RoundsGenerated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roundsGenerated
}

// RematchFallbacks returns the accumulated rematch fallback count.
func (m *Mock) RematchFallbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rematchFallbacks
}

// ResultTransitions returns how often a transition to status was counted.
func (m *Mock) ResultTransitions(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultTransitions[status]
}

// Conflicts returns the number of times IncConflicts was called.
func (m *Mock) Conflicts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflicts
}

// TournamentsFinished returns the number of times IncTournamentsFinished was called.
func (m *Mock) TournamentsFinished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tournamentsFinished
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
