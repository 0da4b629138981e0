package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/slack-go/slack"
)

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// StandingsCommandHandler returns a handler for the /standings Slack command.
// The command text is the tournament id.
func StandingsCommandHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		tournamentID := strings.TrimSpace(r.FormValue("text"))
		if tournamentID == "" {
			http.Error(w, "Tournament id is required.", http.StatusBadRequest)
			return
		}
		log.Info("Received standings command", "tournamentID", tournamentID, "user", r.FormValue("user_id"))

		msg, err := proc.StandingsResponse(r.Context(), tournamentID)
		if err != nil {
			if StatusFor(err) == http.StatusNotFound {
				respondWithSlackMsg(w, slack.NewBlockMessage(slack.NewSectionBlock(
					slack.NewTextBlockObject("plain_text", "No tournament with id "+tournamentID+".", true, false), nil, nil)))
				return
			}
			http.Error(w, "Failed to format standings", http.StatusInternalServerError)
			log.Error("Failed to format standings", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}
		respondWithSlackMsg(w, slackMsg)
	}
}
