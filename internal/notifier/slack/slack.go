package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/warlord-swiss/internal/metrics"
	"github.com/mauv0809/warlord-swiss/internal/notifier"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendPairings(evt tournament.PairingsGenerated, dryRun bool) error {
	msg := s.formatPairings(evt)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendFinalStandings(evt tournament.TournamentFinished, dryRun bool) error {
	msg := s.formatStandings(fmt.Sprintf("🏆 %s: final standings 🏆", evt.TournamentName), evt.Standings, evt.Participants)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// FormatStandingsResponse formats a standings table for a slash command response.
func (s *Notifier) FormatStandingsResponse(name string, rows []tournament.StandingsRow, participants []tournament.Participant) (any, error) {
	return s.formatStandings(fmt.Sprintf("📜 %s: standings", name), rows, participants), nil
}

// formatPairings creates the Slack message announcing a new round using Block Kit.
func (s *Notifier) formatPairings(evt tournament.PairingsGenerated) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("⚔️ %s: round %d ⚔️", evt.TournamentName, evt.Round), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	var tables []string
	var bye string
	rematches := 0
	for _, m := range evt.Matches {
		if m.IsBye {
			bye = tournament.NameOf(evt.Participants, m.PlayerA)
			continue
		}
		line := fmt.Sprintf("Table %d: %s vs %s", m.Table, tournament.NameOf(evt.Participants, m.PlayerA), tournament.NameOf(evt.Participants, m.PlayerB))
		if m.Rematch {
			line += " (rematch)"
			rematches++
		}
		tables = append(tables, line)
	}
	if len(tables) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(tables, "\n"), true, false), nil, nil))
	}

	var contextElements []slack.MixedElement
	if bye != "" {
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", fmt.Sprintf("🛡️ %s has the bye this round.", bye), true, false))
	}
	if rematches > 0 {
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", fmt.Sprintf("No rematch-free pairing existed, %d rematch(es) scheduled.", rematches), true, false))
	}
	if len(contextElements) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", contextElements...))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatStandings creates a Slack message to display a standings table.
func (s *Notifier) formatStandings(title string, rows []tournament.StandingsRow, participants []tournament.Participant) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", title, true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(rows) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No participants yet.", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for _, row := range rows {
		var medal string
		switch row.Rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		text := fmt.Sprintf("%d. %s %s\n> %d pts | W-D-L %d-%d-%d | Buchholz %d | VP %d",
			row.Rank,
			medal,
			tournament.NameOf(participants, row.ParticipantID),
			row.TournamentPoints,
			row.Wins,
			row.Draws,
			row.Losses,
			row.Buchholz,
			row.VictoryPoints,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}
