package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/warlord-swiss/internal/pubsub"
	"github.com/mauv0809/warlord-swiss/internal/session"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// SubmitResult records a player's report of their match. The reporter may resubmit while
// the report is unconfirmed. An identical report from the opponent confirms it; a differing
// one fails with ErrConflict.
func (p *Processor) SubmitResult(ctx context.Context, sess session.Session, tournamentID, matchID string, result tournament.Result) (*tournament.Match, error) {
	defer p.locks.lock(tournamentID)()

	_, m, actor, err := p.loadPlayed(ctx, sess, tournamentID, matchID)
	if err != nil {
		return nil, err
	}
	if err := result.Validate(*m); err != nil {
		return nil, err
	}

	switch m.Status {
	case tournament.ResultPending:
		m.Status = tournament.ResultPlayerReported
		m.ReportedBy = actor
		m.Result = &result
	case tournament.ResultPlayerReported:
		if m.ReportedBy == actor {
			m.Result = &result
			break
		}
		if m.Result == nil || *m.Result != result {
			return nil, fmt.Errorf("%w: result differs from the one reported by %s", tournament.ErrConflict, m.ReportedBy)
		}
		m.Status = tournament.ResultConfirmed
	default:
		return nil, fmt.Errorf("%w: match %s is already %s", tournament.ErrInvalidState, m.ID, m.Status)
	}
	if err := p.saveResult(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ConfirmResult accepts the result reported by the opponent.
func (p *Processor) ConfirmResult(ctx context.Context, sess session.Session, tournamentID, matchID string) (*tournament.Match, error) {
	defer p.locks.lock(tournamentID)()

	m, err := p.loadReported(ctx, sess, tournamentID, matchID)
	if err != nil {
		return nil, err
	}
	m.Status = tournament.ResultConfirmed
	if err := p.saveResult(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RejectResult discards the result reported by the opponent so it can be reported again.
func (p *Processor) RejectResult(ctx context.Context, sess session.Session, tournamentID, matchID string) (*tournament.Match, error) {
	defer p.locks.lock(tournamentID)()

	m, err := p.loadReported(ctx, sess, tournamentID, matchID)
	if err != nil {
		return nil, err
	}
	log.Info("Result rejected", "tournamentID", tournamentID, "matchID", m.ID, "reportedBy", m.ReportedBy)
	m.Status = tournament.ResultPending
	m.Result = nil
	m.ReportedBy = ""
	if err := p.saveResult(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// OverrideResult sets a result with organizer authority. It works in any state and round,
// including after the tournament has finished, and leaves an amendment record. Setting the
// result a match already has from an earlier override changes nothing.
func (p *Processor) OverrideResult(ctx context.Context, sess session.Session, tournamentID, matchID string, result tournament.Result) (*tournament.Match, error) {
	defer p.locks.lock(tournamentID)()

	t, err := p.loadOrganized(ctx, sess, tournamentID)
	if err != nil {
		return nil, err
	}
	m, err := p.store.LoadMatch(ctx, t.ID, matchID)
	if err != nil {
		return nil, err
	}
	if err := result.Validate(*m); err != nil {
		return nil, err
	}
	if m.Status == tournament.ResultOrganizerSet && m.Result != nil && *m.Result == result {
		return m, nil
	}

	now := p.now().UTC().Truncate(time.Second)
	amendment := &tournament.Amendment{
		MatchID:        m.ID,
		PreviousStatus: m.Status,
		PreviousResult: m.Result,
		NewStatus:      tournament.ResultOrganizerSet,
		NewResult:      &result,
		AmendedBy:      sess.UserID,
		AmendedAt:      now,
	}
	m.Status = tournament.ResultOrganizerSet
	m.Result = &result
	m.UpdatedAt = now

	// A finished tournament's frozen standings are recalculated and stored together with
	// the amended match.
	var refrozen []tournament.StandingsRow
	if t.State == tournament.StateFinished {
		history, err := p.store.LoadMatches(ctx, t.ID, 1, 0)
		if err != nil {
			return nil, err
		}
		for i := range history {
			if history[i].ID == m.ID {
				history[i] = *m
			}
		}
		refrozen = p.calculate(t, history)
	}
	if err := p.store.AmendResult(ctx, m, amendment, refrozen); err != nil {
		p.countConflict(err)
		return nil, err
	}
	p.resultSaved(m)
	log.Info("Result overridden", "tournamentID", t.ID, "matchID", m.ID, "round", m.Round, "previousStatus", amendment.PreviousStatus)
	if refrozen != nil {
		log.Info("Final standings refrozen", "tournamentID", t.ID)
	}
	return m, nil
}

// Amendments lists the override history of a match.
func (p *Processor) Amendments(ctx context.Context, tournamentID, matchID string) ([]tournament.Amendment, error) {
	if _, err := p.store.LoadMatch(ctx, tournamentID, matchID); err != nil {
		return nil, err
	}
	return p.store.ListAmendments(ctx, tournamentID, matchID)
}

// loadPlayed loads a match of a running tournament together with the session's participant
// id, which must play in it.
func (p *Processor) loadPlayed(ctx context.Context, sess session.Session, tournamentID, matchID string) (*tournament.Tournament, *tournament.Match, string, error) {
	if sess.Anonymous() {
		return nil, nil, "", fmt.Errorf("%w: sign in to report results", tournament.ErrForbidden)
	}
	t, err := p.store.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, nil, "", err
	}
	if t.State != tournament.StateInProgress {
		return nil, nil, "", fmt.Errorf("%w: tournament %s is %s", tournament.ErrInvalidState, t.ID, t.State)
	}
	m, err := p.store.LoadMatch(ctx, t.ID, matchID)
	if err != nil {
		return nil, nil, "", err
	}
	if m.IsBye {
		return nil, nil, "", fmt.Errorf("%w: byes are settled automatically", tournament.ErrInvalidState)
	}
	actor := ""
	for _, participant := range t.Participants {
		if participant.UserID == sess.UserID && m.Involves(participant.ID) {
			actor = participant.ID
			break
		}
	}
	if actor == "" {
		return nil, nil, "", fmt.Errorf("%w: %s does not play in match %s", tournament.ErrForbidden, sess.UserID, m.ID)
	}
	return t, m, actor, nil
}

// loadReported loads a reported match whose result the session's participant may answer.
func (p *Processor) loadReported(ctx context.Context, sess session.Session, tournamentID, matchID string) (*tournament.Match, error) {
	_, m, actor, err := p.loadPlayed(ctx, sess, tournamentID, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != tournament.ResultPlayerReported {
		return nil, fmt.Errorf("%w: match %s is %s", tournament.ErrInvalidState, m.ID, m.Status)
	}
	if m.ReportedBy == actor {
		return nil, fmt.Errorf("%w: the opponent must answer a reported result", tournament.ErrForbidden)
	}
	return m, nil
}

func (p *Processor) saveResult(ctx context.Context, m *tournament.Match) error {
	m.UpdatedAt = p.now().UTC().Truncate(time.Second)
	if err := p.store.SaveMatchResult(ctx, m); err != nil {
		p.countConflict(err)
		return err
	}
	p.resultSaved(m)
	return nil
}

func (p *Processor) resultSaved(m *tournament.Match) {
	p.metrics.IncResultTransitions(string(m.Status))
	log.Info("Match result saved", "tournamentID", m.TournamentID, "matchID", m.ID, "status", m.Status)
	if m.Status.Final() {
		p.publish(pubsub.EventResultConfirmed, tournament.ResultConfirmedEvent{TournamentID: m.TournamentID, Match: *m})
	}
}
