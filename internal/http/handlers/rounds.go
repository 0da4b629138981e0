package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/session"
)

// StartTournamentHandler starts the tournament. With dry_run it only previews round one.
func StartTournamentHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if IsDryRunFromContext(r) {
			log.Info("[Dry Run] Previewing first round instead of starting", "tournamentID", r.PathValue("id"))
			previewPairings(proc, w, r)
			return
		}
		round, err := proc.Start(r.Context(), sess, r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, round)
	}
}

// AdvanceRoundHandler pairs the next round. With dry_run it only previews it.
func AdvanceRoundHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if IsDryRunFromContext(r) {
			log.Info("[Dry Run] Previewing next round instead of pairing it", "tournamentID", r.PathValue("id"))
			previewPairings(proc, w, r)
			return
		}
		round, err := proc.AdvanceRound(r.Context(), session.FromContext(r.Context()), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, round)
	}
}

func PreviewPairingsHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		previewPairings(proc, w, r)
	}
}

func previewPairings(proc *processor.Processor, w http.ResponseWriter, r *http.Request) {
	preview, err := proc.PreviewPairings(r.Context(), session.FromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func FinishTournamentHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := proc.Finish(r.Context(), session.FromContext(r.Context()), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func StandingsHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := proc.Standings(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func RoundHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := pathInt(r, "round")
		if err != nil {
			writeError(w, r, err)
			return
		}
		round, err := proc.Round(r.Context(), r.PathValue("id"), n)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, round)
	}
}
