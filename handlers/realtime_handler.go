package handlers

import (
	"log"
	"net/http"
	"time"

	"questBoardAPI/internal/catalog"
	"questBoardAPI/internal/ledger"
	"questBoardAPI/internal/realtime"
	"questBoardAPI/internal/wallet"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Subscribe upgrades the connection and streams the caller's change feed:
// every catalog change plus the caller's own wallet, ledger, override and
// hidden-mark changes. Browsers cannot set headers on websocket dials, so
// the Clerk token rides a query parameter.
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusUnauthorized, "Token required")
		return
	}

	claims, err := jwt.Verify(r.Context(), &jwt.VerifyParams{Token: token})
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	userID := claims.Subject

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	send := make(chan realtime.Change, 256)
	done := make(chan struct{})
	sub := h.hub.Subscribe("", changeForUser(userID), func(c realtime.Change) {
		select {
		case send <- c:
		default:
		}
	})

	go func() {
		defer conn.Close()
		for {
			select {
			case <-done:
				return
			case c := <-send:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(c); err != nil {
					return
				}
			}
		}
	}()

	// Read loop only notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	sub.Unsubscribe()
	close(done)
	conn.Close()
}

// changeForUser keeps catalog changes for everyone and per-user rows for
// their owner only.
func changeForUser(userID string) realtime.Filter {
	return func(c realtime.Change) bool {
		switch row := c.Row.(type) {
		case *catalog.Entry, catalog.Entry:
			return true
		case *catalog.Override:
			return row.UserID == userID
		case *wallet.Wallet:
			return row.UserID == userID
		case *ledger.Event:
			return row.UserID == userID
		case map[string]any:
			owner, ok := row["user_id"].(string)
			return !ok || owner == userID
		default:
			return true
		}
	}
}
