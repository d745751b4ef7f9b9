package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"parley/internal/middleware"
	"parley/internal/models"
	"parley/internal/store"
	"parley/internal/ws"
)

// MessageHandler serves the history and presence endpoints that hydrate a
// client before the live websocket events take over.
type MessageHandler struct {
	Store store.Store
	Hub   *ws.Hub
}

// GetRoomMessages returns the chronological history of one public room.
func (h *MessageHandler) GetRoomMessages(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		http.Error(w, "room is required", http.StatusBadRequest)
		return
	}

	messages, err := h.Store.GetRoomMessages(room)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	json.NewEncoder(w).Encode(messages)
}

// GetPrivateMessages returns the conversation between the cookie user and the
// user named in the path.
func (h *MessageHandler) GetPrivateMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	otherID := mux.Vars(r)["userId"]
	if otherID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	messages, err := h.Store.GetMessagesBetween(userID, otherID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	json.NewEncoder(w).Encode(messages)
}

// GetOnlineUsers returns the hub's current presence snapshot.
func (h *MessageHandler) GetOnlineUsers(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(h.Hub.OnlineUsers())
}
