package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	categoryModel "github.com/bloops-games/wordrounds/internal/database/category/model"
	gameModel "github.com/bloops-games/wordrounds/internal/database/game/model"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/bloops-games/wordrounds/internal/logging"
	"github.com/bloops-games/wordrounds/internal/round"
	"github.com/gorilla/websocket"
)

type Catalog interface {
	FetchAll() ([]categoryModel.Category, error)
}

type History interface {
	FetchByRoom(roomCode string) ([]gameModel.Game, error)
}

func NewHandler(hub *Hub, dispatcher *Dispatcher, rounds Rounds, catalog Catalog, history History, config Config) *Handler {
	h := &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		rounds:     rounds,
		catalog:    catalog,
		history:    history,
		config:     config,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

type Handler struct {
	hub        *Hub
	dispatcher *Dispatcher
	rounds     Rounds
	catalog    Catalog
	history    History
	config     Config
	upgrader   websocket.Upgrader
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	for _, allowed := range h.config.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}

	return false
}

// Register mounts the gateway endpoints on mux.
func (h *Handler) Register(ctx context.Context, mux *http.ServeMux) {
	mux.Handle("/ws", h.HandleWS(ctx))
	mux.Handle("/api/rooms", h.HandleCreateRoom(ctx))
	mux.Handle("/api/categories", h.HandleCategories(ctx))
	mux.Handle("/api/games", h.HandleGames(ctx))
}

type createRoomRequest struct {
	HostID string `json:"hostId"`
	SettingsPayload
}

type roomResponse struct {
	Code       string            `json:"code"`
	HostID     string            `json:"hostId"`
	Players    []string          `json:"players"`
	Rounds     int               `json:"rounds"`
	Timer      int               `json:"timer"`
	Categories []string          `json:"categories"`
	EndMode    roomModel.EndMode `json:"endMode"`
}

type categoryResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Letters     []string `json:"letters"`
	IsDefault   bool     `json:"isDefault"`
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}

	w.Header().Set("Allow", http.MethodGet)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// HandleCreateRoom creates a lobby room for the host in the request body.
func (h *Handler) HandleCreateRoom(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("gateway.HandleCreateRoom")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		var req createRoomRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.config.MaxMessageSize)).Decode(&req); err != nil {
			http.Error(w, ErrBadPayload.Error(), http.StatusBadRequest)
			return
		}

		req.HostID = strings.TrimSpace(req.HostID)
		if req.HostID == "" {
			http.Error(w, "hostId is required", http.StatusBadRequest)
			return
		}

		room, err := h.rounds.CreateRoom(ctx, req.HostID, req.Settings())
		if err != nil {
			logger.Errorf("create room: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err := writeJSON(w, http.StatusCreated, roomResponse{
			Code:       room.Code,
			HostID:     room.HostID,
			Players:    room.Players,
			Rounds:     room.Rounds,
			Timer:      int(room.RoundTime.Seconds()),
			Categories: room.Categories,
			EndMode:    room.EndMode,
		}); err != nil {
			logger.Errorf("write response: %v", err)
		}
	})
}

// HandleWS upgrades GET /ws?room=CODE&player=ID and joins the player to the
// room.
func (h *Handler) HandleWS(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("gateway.HandleWS")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := roomModel.NormalizeCode(r.URL.Query().Get("room"))
		player := strings.TrimSpace(r.URL.Query().Get("player"))
		if code == "" || player == "" {
			http.Error(w, "room and player are required", http.StatusBadRequest)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnf("upgrade: %v", err)
			return
		}

		c := newClient(h.hub, conn, h.config, code, player)
		h.hub.register(c)
		go c.writePump(ctx)

		if err := h.dispatcher.Dispatch(ctx, code, player, Inbound{Type: EventJoin}); err != nil {
			if !errors.Is(err, round.ErrRoomNotFound) {
				logger.Errorf("room %s: join %s: %v", code, player, err)
			}
			c.sendError(err)
			h.hub.unregister(c)
			c.close()
			return
		}

		logger.Debugf("room %s: player %s connected", code, player)
		c.readPump(ctx, h.dispatcher)
	})
}

// HandleCategories lists the playable categories with the letters they have
// words for.
func (h *Handler) HandleCategories(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("gateway.HandleCategories")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}

		list, err := h.catalog.FetchAll()
		if err != nil {
			logger.Errorf("fetch categories: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		resp := make([]categoryResponse, 0, len(list))
		for _, c := range list {
			resp = append(resp, categoryResponse{
				ID:          c.ID,
				Name:        c.Name,
				DisplayName: c.DisplayName,
				Letters:     c.Letters(),
				IsDefault:   c.IsDefault,
			})
		}

		if err := writeJSON(w, http.StatusOK, resp); err != nil {
			logger.Errorf("write response: %v", err)
		}
	})
}

// HandleGames returns the finished and running games of GET /api/games?room=CODE,
// newest first.
func (h *Handler) HandleGames(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx).Named("gateway.HandleGames")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}

		code := roomModel.NormalizeCode(r.URL.Query().Get("room"))
		if code == "" {
			http.Error(w, "room is required", http.StatusBadRequest)
			return
		}

		list, err := h.history.FetchByRoom(code)
		if err != nil {
			logger.Errorf("room %s: fetch games: %v", code, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if list == nil {
			list = []gameModel.Game{}
		}

		if err := writeJSON(w, http.StatusOK, list); err != nil {
			logger.Errorf("write response: %v", err)
		}
	})
}
