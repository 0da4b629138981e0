package handlers

import (
	"net/http"

	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/session"
)

func ListGameSystemsHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, proc.GameSystems())
	}
}

func ListTournamentsHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := proc.Tournaments(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func CreateTournamentHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in processor.CreateTournamentInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		t, err := proc.CreateTournament(r.Context(), session.FromContext(r.Context()), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func UpdateTournamentHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in processor.UpdateTournamentInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		t, err := proc.UpdateTournament(r.Context(), session.FromContext(r.Context()), r.PathValue("id"), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// GetTournamentHandler serves the tournament with its rounds and current standings.
func GetTournamentHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := proc.View(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
