package processor

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mauv0809/warlord-swiss/internal/gamesystem"
	"github.com/mauv0809/warlord-swiss/internal/metrics"
	"github.com/mauv0809/warlord-swiss/internal/pubsub"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// Processor runs the tournament lifecycle: registration, rounds, results and standings.
// Writes to one tournament are serialized in process; the store's version checks guard
// against writers in other processes.
type Processor struct {
	store    Store
	pubsub   pubsub.PubSubClient
	notifier Notifier
	metrics  metrics.Metrics
	registry *gamesystem.Registry

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
	newID func() string

	locks keyedMutex
}

// Option configures a Processor.
type Option func(*Processor)

// WithRand sets the random source used for the first-round shuffle.
func WithRand(rng *rand.Rand) Option {
	return func(p *Processor) { p.rng = rng }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithIDs replaces the uuid generator.
func WithIDs(newID func() string) Option {
	return func(p *Processor) { p.newID = newID }
}

// CreateTournamentInput holds the organizer-supplied fields of a new tournament.
type CreateTournamentInput struct {
	Name       string                `json:"name"`
	GameSystem tournament.GameSystem `json:"game_system"`
	Format     tournament.Format     `json:"format"`
	RoundCount int                   `json:"round_count"`
}

// UpdateTournamentInput holds the tournament fields an organizer may change. Nil fields
// are left as they are.
type UpdateTournamentInput struct {
	Name       *string `json:"name"`
	RoundCount *int    `json:"round_count"`
}

// ParticipantInput holds the mutable fields of a participant.
type ParticipantInput struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Club        string `json:"club"`
	Faction     string `json:"faction"`
	Era         string `json:"era"`
}

// View is a tournament with all its rounds and the current standings.
type View struct {
	Tournament *tournament.Tournament    `json:"tournament"`
	Rounds     []tournament.Round        `json:"rounds"`
	Standings  []tournament.StandingsRow `json:"standings"`
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}
