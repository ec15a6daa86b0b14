package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cbodonnell/solongsucker/client/gamesync"
	gametypes "github.com/cbodonnell/solongsucker/pkg/game/types"
	"github.com/cbodonnell/solongsucker/pkg/log"
	"github.com/cbodonnell/solongsucker/pkg/repositories"
	"github.com/cbodonnell/solongsucker/pkg/version"
	"github.com/gorilla/mux"
)

// GameClient is the part of the sync client the API exposes.
type GameClient interface {
	State() (*gametypes.GameState, bool)
	Phase() gamesync.Phase
	Stats() gamesync.Stats
	StartGame()
	RequestState()
}

type Status struct {
	Phase    string         `json:"phase"`
	HasState bool           `json:"hasState"`
	Stats    gamesync.Stats `json:"stats"`
	Version  string         `json:"version"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

func HandleGetState(client GameClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameState, ok := client.State()
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respondJSON(w, http.StatusOK, gameState)
	}
}

func HandleGetStatus(client GameClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, hasState := client.State()
		respondJSON(w, http.StatusOK, Status{
			Phase:    client.Phase().String(),
			HasState: hasState,
			Stats:    client.Stats(),
			Version:  version.Get(),
		})
	}
}

// HandleStartGame forwards a start request. Commands are fire-and-forget,
// so 202 only means the command was handed to an open connection.
func HandleStartGame(client GameClient) http.HandlerFunc {
	return handleCommand(client, client.StartGame)
}

func HandleRefreshState(client GameClient) http.HandlerFunc {
	return handleCommand(client, client.RequestState)
}

func handleCommand(client GameClient, send func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if phase := client.Phase(); phase != gamesync.PhaseConnected {
			http.Error(w, "Not connected to game server ("+phase.String()+")", http.StatusConflict)
			return
		}
		send()
		w.WriteHeader(http.StatusAccepted)
	}
}

func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func HandleListSnapshots(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := mux.Vars(r)["session"]
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		snapshots, err := repository.ListSnapshots(r.Context(), session, limit)
		if err != nil {
			log.Error("failed to list snapshots: %v", err)
			http.Error(w, "Failed to list snapshots", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, snapshots)
	}
}

func HandleLatestSnapshot(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := repository.LatestSnapshot(r.Context())
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "No snapshots archived", http.StatusNotFound)
				return
			}
			log.Error("failed to get latest snapshot: %v", err)
			http.Error(w, "Failed to get latest snapshot", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, snapshot)
	}
}
