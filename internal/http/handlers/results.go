package handlers

import (
	"net/http"

	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/session"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

func ReportResultHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var result tournament.Result
		if err := decodeJSON(r, &result); err != nil {
			writeError(w, r, err)
			return
		}
		m, err := proc.SubmitResult(r.Context(), session.FromContext(r.Context()), r.PathValue("id"), r.PathValue("mid"), result)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func ConfirmResultHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := proc.ConfirmResult(r.Context(), session.FromContext(r.Context()), r.PathValue("id"), r.PathValue("mid"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func RejectResultHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := proc.RejectResult(r.Context(), session.FromContext(r.Context()), r.PathValue("id"), r.PathValue("mid"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func OverrideResultHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var result tournament.Result
		if err := decodeJSON(r, &result); err != nil {
			writeError(w, r, err)
			return
		}
		m, err := proc.OverrideResult(r.Context(), session.FromContext(r.Context()), r.PathValue("id"), r.PathValue("mid"), result)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func AmendmentsHandler(proc *processor.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := proc.Amendments(r.Context(), r.PathValue("id"), r.PathValue("mid"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	}
}
