package handlers

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/pubsub"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// decodePush unwraps a Pub/Sub push request into out. It writes the error response itself
// and reports whether decoding succeeded.
func decodePush(w http.ResponseWriter, r *http.Request, pubsubClient pubsub.PubSubClient, out any) bool {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return false
	}
	log.Debug("Received push message", "path", r.URL.Path, "body", string(bodyBytes))

	var pubsubMsg struct {
		Subscription string `json:"subscription"`
		Message      struct {
			Data string `json:"data"` // base64-encoded MessagePack payload
			ID   string `json:"messageId"`
		} `json:"message"`
	}
	if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
		log.Error("Failed to unmarshal wrapper JSON", "error", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
	if err != nil {
		log.Error("Failed to decode base64 data", "error", err)
		http.Error(w, "Invalid base64 data", http.StatusBadRequest)
		return false
	}
	decode := pubsub.Decode
	if pubsubClient != nil {
		decode = pubsubClient.ProcessMessage
	}
	if err := decode(rawData, out); err != nil {
		http.Error(w, "Invalid message payload", http.StatusBadRequest)
		return false
	}
	return true
}

func PairingsGeneratedHandler(proc *processor.Processor, pubsubClient pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var evt tournament.PairingsGenerated
		if !decodePush(w, r, pubsubClient, &evt) {
			return
		}
		if err := proc.HandlePairingsGenerated(evt, IsDryRunFromContext(r)); err != nil {
			log.Error("Failed to announce pairings", "tournamentID", evt.TournamentID, "round", evt.Round, "error", err)
			http.Error(w, "Failed to announce pairings", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

func TournamentFinishedHandler(proc *processor.Processor, pubsubClient pubsub.PubSubClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var evt tournament.TournamentFinished
		if !decodePush(w, r, pubsubClient, &evt) {
			return
		}
		if err := proc.HandleTournamentFinished(evt, IsDryRunFromContext(r)); err != nil {
			log.Error("Failed to announce final standings", "tournamentID", evt.TournamentID, "error", err)
			http.Error(w, "Failed to announce final standings", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}
