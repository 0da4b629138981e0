package handlers

import (
	"net/http"

	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/session"
)

func RegisterParticipantHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in processor.ParticipantInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		p, err := proc.RegisterParticipant(r.Context(), session.FromContext(r.Context()), r.PathValue("id"), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func UpdateParticipantHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in processor.ParticipantInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		p, err := proc.UpdateParticipant(r.Context(), session.FromContext(r.Context()), r.PathValue("id"), r.PathValue("pid"), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func DropParticipantHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := proc.DropParticipant(r.Context(), session.FromContext(r.Context()), r.PathValue("id"), r.PathValue("pid"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
