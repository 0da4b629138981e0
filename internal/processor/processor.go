package processor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/warlord-swiss/internal/gamesystem"
	"github.com/mauv0809/warlord-swiss/internal/metrics"
	"github.com/mauv0809/warlord-swiss/internal/pairing"
	"github.com/mauv0809/warlord-swiss/internal/pubsub"
	"github.com/mauv0809/warlord-swiss/internal/session"
	"github.com/mauv0809/warlord-swiss/internal/standings"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// New creates a new Processor. pubsub may be nil, in which case no events are published.
func New(store Store, notifier Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient, registry *gamesystem.Registry, opts ...Option) *Processor {
	p := &Processor{
		store:    store,
		pubsub:   pubsub,
		notifier: notifier,
		metrics:  metrics,
		registry: registry,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateTournament registers a new pending tournament organized by the session user.
func (p *Processor) CreateTournament(ctx context.Context, sess session.Session, in CreateTournamentInput) (*tournament.Tournament, error) {
	if !sess.IsOrganizer() {
		return nil, fmt.Errorf("%w: only organizers can create tournaments", tournament.ErrForbidden)
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", tournament.ErrInvalidInput)
	}
	if in.RoundCount < 1 {
		return nil, fmt.Errorf("%w: round count must be at least 1", tournament.ErrInvalidInput)
	}
	if in.Format == "" {
		in.Format = tournament.FormatIndividual
	}
	if !in.Format.Valid() {
		return nil, fmt.Errorf("%w: unknown format %q", tournament.ErrInvalidInput, in.Format)
	}
	if _, err := p.registry.Lookup(in.GameSystem); err != nil {
		return nil, err
	}

	now := p.now().UTC().Truncate(time.Second)
	t := &tournament.Tournament{
		ID:          p.newID(),
		Name:        in.Name,
		GameSystem:  in.GameSystem,
		Format:      in.Format,
		RoundCount:  in.RoundCount,
		State:       tournament.StatePending,
		OrganizerID: sess.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.store.CreateTournament(ctx, t); err != nil {
		return nil, err
	}
	log.Info("Tournament created", "tournamentID", t.ID, "name", t.Name, "gameSystem", t.GameSystem, "rounds", t.RoundCount)
	return t, nil
}

// UpdateTournament renames a tournament or changes its round count. The round count can
// grow or shrink while play is running but never below the round already paired.
func (p *Processor) UpdateTournament(ctx context.Context, sess session.Session, tournamentID string, in UpdateTournamentInput) (*tournament.Tournament, error) {
	defer p.locks.lock(tournamentID)()

	t, err := p.loadOrganized(ctx, sess, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.State == tournament.StateFinished {
		return nil, fmt.Errorf("%w: tournament %s is %s", tournament.ErrInvalidState, t.ID, t.State)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tournament name is required", tournament.ErrInvalidInput)
		}
		t.Name = name
	}
	if in.RoundCount != nil {
		if floor := max(t.CurrentRound, 1); *in.RoundCount < floor {
			return nil, fmt.Errorf("%w: round count must be at least %d", tournament.ErrInvalidInput, floor)
		}
		t.RoundCount = *in.RoundCount
	}

	t.UpdatedAt = p.now().UTC().Truncate(time.Second)
	if err := p.store.SaveTournament(ctx, t); err != nil {
		p.countConflict(err)
		return nil, err
	}
	log.Info("Tournament updated", "tournamentID", t.ID, "name", t.Name, "rounds", t.RoundCount)
	return t, nil
}

// Start moves a pending tournament into play and pairs the first round.
func (p *Processor) Start(ctx context.Context, sess session.Session, tournamentID string) (*tournament.Round, error) {
	defer p.locks.lock(tournamentID)()

	t, err := p.loadOrganized(ctx, sess, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.State != tournament.StatePending {
		return nil, fmt.Errorf("%w: tournament %s is %s", tournament.ErrInvalidState, t.ID, t.State)
	}
	if n := len(t.ActiveParticipants()); n < 2 {
		return nil, fmt.Errorf("%w: tournament %s needs at least 2 participants, has %d", tournament.ErrInvalidState, t.ID, n)
	}

	t.State = tournament.StateInProgress
	return p.pairRound(ctx, t, nil, 1)
}

// AdvanceRound pairs the next round once every result of the current round is final.
func (p *Processor) AdvanceRound(ctx context.Context, sess session.Session, tournamentID string) (*tournament.Round, error) {
	defer p.locks.lock(tournamentID)()

	t, err := p.loadOrganized(ctx, sess, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.State != tournament.StateInProgress {
		return nil, fmt.Errorf("%w: tournament %s is %s", tournament.ErrInvalidState, t.ID, t.State)
	}
	if t.CurrentRound >= t.RoundCount {
		return nil, fmt.Errorf("%w: all %d rounds have been paired", tournament.ErrInvalidState, t.RoundCount)
	}
	history, err := p.store.LoadMatches(ctx, t.ID, 1, 0)
	if err != nil {
		return nil, err
	}
	if err := requireComplete(t.CurrentRound, history); err != nil {
		return nil, err
	}
	return p.pairRound(ctx, t, history, t.CurrentRound+1)
}

// PreviewPairings generates the next round without persisting anything.
func (p *Processor) PreviewPairings(ctx context.Context, sess session.Session, tournamentID string) (*pairing.Result, error) {
	t, err := p.loadOrganized(ctx, sess, tournamentID)
	if err != nil {
		return nil, err
	}
	var history []tournament.Match
	switch t.State {
	case tournament.StatePending:
		t.State = tournament.StateInProgress
	case tournament.StateInProgress:
		if history, err = p.store.LoadMatches(ctx, t.ID, 1, 0); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: tournament %s is %s", tournament.ErrInvalidState, t.ID, t.State)
	}
	if t.CurrentRound >= t.RoundCount {
		return nil, fmt.Errorf("%w: all %d rounds have been paired", tournament.ErrInvalidState, t.RoundCount)
	}
	return p.generate(t, history, t.CurrentRound+1)
}

// Finish closes a tournament whose last round is complete and freezes its standings.
func (p *Processor) Finish(ctx context.Context, sess session.Session, tournamentID string) ([]tournament.StandingsRow, error) {
	defer p.locks.lock(tournamentID)()

	t, err := p.loadOrganized(ctx, sess, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.State != tournament.StateInProgress {
		return nil, fmt.Errorf("%w: tournament %s is %s", tournament.ErrInvalidState, t.ID, t.State)
	}
	if t.CurrentRound < t.RoundCount {
		return nil, fmt.Errorf("%w: round %d of %d is still to be played", tournament.ErrInvalidState, t.CurrentRound+1, t.RoundCount)
	}
	history, err := p.store.LoadMatches(ctx, t.ID, 1, 0)
	if err != nil {
		return nil, err
	}
	if err := requireComplete(t.CurrentRound, history); err != nil {
		return nil, err
	}

	rows := p.calculate(t, history)
	t.State = tournament.StateFinished
	t.UpdatedAt = p.now().UTC().Truncate(time.Second)
	if err := p.store.FinishTournament(ctx, t, rows); err != nil {
		p.countConflict(err)
		return nil, err
	}
	p.metrics.IncTournamentsFinished()
	log.Info("Tournament finished", "tournamentID", t.ID, "rounds", t.RoundCount, "participants", len(rows))

	p.publish(pubsub.EventTournamentFinished, tournament.TournamentFinished{
		TournamentID:   t.ID,
		TournamentName: t.Name,
		Standings:      rows,
		Participants:   t.Participants,
	})
	return rows, nil
}

// pairRound generates round n, settles its BYE and persists it together with the tournament.
func (p *Processor) pairRound(ctx context.Context, t *tournament.Tournament, history []tournament.Match, n int) (*tournament.Round, error) {
	res, err := p.generate(t, history, n)
	if err != nil {
		return nil, err
	}

	now := p.now().UTC().Truncate(time.Second)
	policy := p.registry.Scoring(t.GameSystem)
	matches := make([]tournament.Match, 0, len(res.Matches))
	for _, m := range res.Matches {
		m.ID = p.newID()
		m.UpdatedAt = now
		if m.IsBye {
			m.Status = tournament.ResultConfirmed
			m.Result = tournament.ByeResult(policy.ByeVictoryPoints, policy.ByeMassacrePoints)
		}
		matches = append(matches, m)
	}

	t.CurrentRound = n
	t.UpdatedAt = now
	if err := p.store.SaveRound(ctx, t, matches); err != nil {
		p.countConflict(err)
		return nil, err
	}
	p.metrics.IncRoundsGenerated()
	if len(res.Rematches) > 0 {
		p.metrics.IncRematchFallbacks(len(res.Rematches))
	}
	log.Info("Pairings generated", "tournamentID", t.ID, "round", n, "matches", len(matches), "bye", res.Bye)

	p.publish(pubsub.EventPairingsGenerated, tournament.PairingsGenerated{
		TournamentID:   t.ID,
		TournamentName: t.Name,
		Round:          n,
		Matches:        matches,
		Participants:   t.Participants,
	})
	return &tournament.Round{Number: n, Matches: matches}, nil
}

func (p *Processor) generate(t *tournament.Tournament, history []tournament.Match, n int) (*pairing.Result, error) {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	gen := pairing.NewGenerator(p.rng, p.calculator(t))
	return gen.Generate(pairing.Params{
		Tournament:   t,
		Round:        n,
		Participants: t.Participants,
		History:      history,
	})
}

func (p *Processor) calculator(t *tournament.Tournament) *standings.Calculator {
	return standings.NewCalculator(p.registry.Scoring(t.GameSystem))
}

func (p *Processor) calculate(t *tournament.Tournament, history []tournament.Match) []tournament.StandingsRow {
	start := time.Now()
	rows := p.calculator(t).Calculate(t.Participants, history)
	p.metrics.ObserveStandingsDuration(time.Since(start).Seconds())
	return rows
}

// loadOrganized loads a tournament and checks the session runs it.
func (p *Processor) loadOrganized(ctx context.Context, sess session.Session, tournamentID string) (*tournament.Tournament, error) {
	t, err := p.store.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !sess.IsOrganizer() || t.OrganizerID != sess.UserID {
		return nil, fmt.Errorf("%w: only the organizer of %s may do this", tournament.ErrForbidden, t.ID)
	}
	return t, nil
}

func (p *Processor) publish(topic pubsub.EventType, evt any) {
	if p.pubsub == nil {
		return
	}
	if err := p.pubsub.SendMessage(topic, evt); err != nil {
		log.Error("Failed to publish event", "topic", topic, "error", err)
	}
}

func (p *Processor) countConflict(err error) {
	if errors.Is(err, tournament.ErrConflict) {
		p.metrics.IncConflicts()
		log.Warn("Write rejected by version check", "error", err)
	}
}

// requireComplete fails unless every match of round n in history is final.
func requireComplete(n int, history []tournament.Match) error {
	round := tournament.Round{Number: n}
	for _, m := range history {
		if m.Round == n {
			round.Matches = append(round.Matches, m)
		}
	}
	if !round.Complete() {
		return fmt.Errorf("%w: round %d still has unconfirmed results", tournament.ErrInvalidState, n)
	}
	return nil
}
