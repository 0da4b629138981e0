package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/warlord-swiss/internal/session"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// RegisterParticipant adds a participant to a pending tournament. Organizers may register
// anyone; a player may only register themselves.
func (p *Processor) RegisterParticipant(ctx context.Context, sess session.Session, tournamentID string, in ParticipantInput) (*tournament.Participant, error) {
	defer p.locks.lock(tournamentID)()

	if sess.Anonymous() {
		return nil, fmt.Errorf("%w: sign in to register", tournament.ErrForbidden)
	}
	t, err := p.store.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.State != tournament.StatePending {
		return nil, fmt.Errorf("%w: registration for %s is closed", tournament.ErrInvalidState, t.ID)
	}
	if !p.organizes(sess, t) {
		if in.UserID != "" && in.UserID != sess.UserID {
			return nil, fmt.Errorf("%w: players can only register themselves", tournament.ErrForbidden)
		}
		in.UserID = sess.UserID
	}
	if err := normalize(&in); err != nil {
		return nil, err
	}

	participant := &tournament.Participant{
		ID:           p.newID(),
		TournamentID: t.ID,
		UserID:       in.UserID,
		DisplayName:  in.DisplayName,
		Club:         in.Club,
		Faction:      in.Faction,
		Era:          in.Era,
		Active:       true,
		CreatedAt:    p.now().UTC().Truncate(time.Second),
	}
	if err := p.store.AddParticipant(ctx, participant); err != nil {
		return nil, err
	}
	log.Info("Participant registered", "tournamentID", t.ID, "participantID", participant.ID, "name", participant.DisplayName)
	return participant, nil
}

// UpdateParticipant changes a participant's details before the tournament starts.
func (p *Processor) UpdateParticipant(ctx context.Context, sess session.Session, tournamentID, participantID string, in ParticipantInput) (*tournament.Participant, error) {
	defer p.locks.lock(tournamentID)()

	t, current, err := p.loadParticipant(ctx, sess, tournamentID, participantID)
	if err != nil {
		return nil, err
	}
	if t.State != tournament.StatePending {
		return nil, fmt.Errorf("%w: participants of %s can no longer be edited", tournament.ErrInvalidState, t.ID)
	}
	in.UserID = current.UserID
	if err := normalize(&in); err != nil {
		return nil, err
	}

	current.DisplayName = in.DisplayName
	current.Club = in.Club
	current.Faction = in.Faction
	current.Era = in.Era
	if err := p.store.UpdateParticipant(ctx, &current); err != nil {
		return nil, err
	}
	return &current, nil
}

// DropParticipant withdraws a participant. Dropped participants keep their results but are
// no longer paired.
func (p *Processor) DropParticipant(ctx context.Context, sess session.Session, tournamentID, participantID string) (*tournament.Participant, error) {
	defer p.locks.lock(tournamentID)()

	t, current, err := p.loadParticipant(ctx, sess, tournamentID, participantID)
	if err != nil {
		return nil, err
	}
	if t.State == tournament.StateFinished {
		return nil, fmt.Errorf("%w: tournament %s is finished", tournament.ErrInvalidState, t.ID)
	}
	if !current.Active {
		return &current, nil
	}
	current.Active = false
	if err := p.store.UpdateParticipant(ctx, &current); err != nil {
		return nil, err
	}
	log.Info("Participant dropped", "tournamentID", t.ID, "participantID", current.ID, "round", t.CurrentRound)
	return &current, nil
}

// loadParticipant loads a participant that the session may manage: the organizer or the
// participant's own user.
func (p *Processor) loadParticipant(ctx context.Context, sess session.Session, tournamentID, participantID string) (*tournament.Tournament, tournament.Participant, error) {
	t, err := p.store.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, tournament.Participant{}, err
	}
	current, ok := t.Participant(participantID)
	if !ok {
		return nil, tournament.Participant{}, fmt.Errorf("%w: participant %s in tournament %s", tournament.ErrNotFound, participantID, t.ID)
	}
	if !p.organizes(sess, t) && (sess.Anonymous() || current.UserID != sess.UserID) {
		return nil, tournament.Participant{}, fmt.Errorf("%w: participant %s belongs to someone else", tournament.ErrForbidden, participantID)
	}
	return t, current, nil
}

func (p *Processor) organizes(sess session.Session, t *tournament.Tournament) bool {
	return sess.IsOrganizer() && t.OrganizerID == sess.UserID
}

func normalize(in *ParticipantInput) error {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Club = strings.TrimSpace(in.Club)
	in.Faction = strings.TrimSpace(in.Faction)
	in.Era = strings.TrimSpace(in.Era)
	if in.DisplayName == "" {
		return fmt.Errorf("%w: display name is required", tournament.ErrInvalidInput)
	}
	return nil
}
