package transport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/udnboss/workflow/internal/store"
	"github.com/udnboss/workflow/internal/workflow"
	"github.com/udnboss/workflow/model"
)

func handleDocumentCreate(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			WriteError(w, model.NewUnauthorizedError("missing actor"))
			return
		}

		var req workflow.CreateDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, model.NewBadRequestError("invalid JSON body"))
			return
		}

		doc, err := svc.Create(r.Context(), actor, req)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, doc)
	}
}

func handleDocumentGet(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := svc.Get(r.Context(), chi.URLParam(r, "documentId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, doc)
	}
}

func handleDocumentList(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := store.DocumentFilters{
			DefinitionID: r.URL.Query().Get("definition_id"),
			StateID:      r.URL.Query().Get("state_id"),
			CreatedBy:    r.URL.Query().Get("created_by"),
			Limit:        queryInt(r, "limit", 50),
			Offset:       queryInt(r, "offset", 0),
		}

		docs, err := svc.List(r.Context(), filters)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"data":   docs,
			"limit":  filters.Limit,
			"offset": filters.Offset,
		})
	}
}

func handlePossibleActions(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			WriteError(w, model.NewUnauthorizedError("missing actor"))
			return
		}

		actions, err := svc.PossibleActions(r.Context(), actor, chi.URLParam(r, "documentId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		if actions == nil {
			actions = []model.Action{}
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": actions})
	}
}

func handleActionPerform(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok {
			WriteError(w, model.NewUnauthorizedError("missing actor"))
			return
		}
		documentID := chi.URLParam(r, "documentId")
		actionID := chi.URLParam(r, "actionId")

		var body struct {
			Remarks string `json:"remarks"`
		}
		// An empty body is fine; remarks are optional.
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err.Error() != "EOF" {
				WriteError(w, model.NewBadRequestError("invalid JSON body"))
				return
			}
		}

		result, err := svc.Perform(r.Context(), actor, documentID, actionID, body.Remarks)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, result)
	}
}

func handleDocumentEvents(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.Events(r.Context(), chi.URLParam(r, "documentId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		if events == nil {
			events = []model.Event{}
		}
		WriteJSON(w, http.StatusOK, map[string]any{"data": events})
	}
}

func handleDefinitionGet(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def, err := svc.Definition(chi.URLParam(r, "definitionId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, def)
	}
}

func handleDefinitionList(svc *workflow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"data": svc.Definitions()})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
