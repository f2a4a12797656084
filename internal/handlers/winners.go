package handlers

import (
	"net/http"

	"github.com/raspadomilhao/raspay-sub003/internal/websocket"
)

func (h *Handler) GetWinners(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.feed.GetWinnersFeed(r.Context(), parseInt(r.URL.Query().Get("limit"), 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) WSWinners(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWS(w, r, h.hub, websocket.TopicWinners)
}
