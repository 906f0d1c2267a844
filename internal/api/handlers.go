package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"neon-rush/internal/game"
	"neon-rush/internal/game/drift"
	"neon-rush/internal/game/elimination"
)

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	director *Director
	deps     RouterConfig
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	mode := chi.URLParam(r, "mode")
	snap, err := h.director.State(mode)
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, snap)
}

func (h *routerHandlers) handleRunnerStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	res, err := h.director.StartRunner(req)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, res)
}

func (h *routerHandlers) handleEliminationStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	res, err := h.director.StartElimination(req)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, res)
}

func (h *routerHandlers) handleDriftStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Track == "" {
		writeError(w, "track is required", http.StatusBadRequest)
		return
	}

	res, err := h.director.StartDrift(req)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, res)
}

// handleInput accepts key edges over HTTP for clients without a websocket.
func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	mode := chi.URLParam(r, "mode")

	var req struct {
		Key     string   `json:"key"`
		Pressed bool     `json:"pressed"`
		Tap     *float64 `json:"tap"` // Viewport-relative Y, runner only
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var err error
	if req.Tap != nil {
		err = h.director.Tap(mode, *req.Tap)
	} else {
		err = h.director.Input(mode, req.Key, req.Pressed)
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = ModeRunner
	}
	board, ok := h.deps.Boards.Get(mode)
	if !ok {
		writeError(w, "unknown mode", http.StatusNotFound)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	resp := map[string]interface{}{
		"mode": mode,
		"top":  board.Top(limit),
	}
	if player := r.URL.Query().Get("around"); player != "" {
		resp["around"] = board.Around(player, 2, 2)
	}
	writeJSON(w, resp)
}

func (h *routerHandlers) handleGetGhost(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")
	if _, err := drift.TrackByID(trackID); err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	rec, ok := h.deps.Store.BestGhost(trackID)
	if !ok {
		writeError(w, "no ghost recorded", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}

func (h *routerHandlers) handleGetTracks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, drift.BuiltinTracks)
}

func (h *routerHandlers) handleGetCharacters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, game.DefaultRoster)
}

func (h *routerHandlers) handleGetModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, elimination.Modes)
}

func (h *routerHandlers) handleGetResults(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.Store.Results()
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"wsClients": 0,
	}
	if h.deps.Hub != nil {
		stats["wsClients"] = h.deps.Hub.ClientCount()
	}
	if h.deps.Journal != nil {
		stats["journal"] = h.deps.Journal.Stats()
	}
	writeJSON(w, stats)
}

// handlePreview streams a PNG of the current arena. Admin/diagnostic only.
func (h *routerHandlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = ModeRunner
	}

	png, err := h.director.Preview(mode)
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(png); err != nil {
		log.Printf("⚠️ Preview write failed: %v", err)
	}
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
