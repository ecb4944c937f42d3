// handlers/team_events.go - Live team event stream over websocket
package handlers

import (
	"log"
	"time"

	"hackmate/middleware"
	"hackmate/services"
	"hackmate/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// UpgradeTeamEvents rejects plain HTTP requests to the websocket route.
func UpgradeTeamEvents(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AuthorizeTeamEvents lets members of the team in :id and users with a
// pending request on it follow its events.
func AuthorizeTeamEvents(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	team, err := loadTeam(c)
	if err != nil {
		return respondError(c, err)
	}
	if !team.HasMember(userID) && !team.HasJoinRequest(userID) {
		return utils.JSONError(c, fiber.StatusForbidden, "Only members and requesters can follow this team")
	}
	return c.Next()
}

// TeamEvents streams events for the team in :id plus the caller's own
// notifications. Clients refetch the team on every event.
// GET /ws/teams/:id
var TeamEvents = websocket.New(func(conn *websocket.Conn) {
	teamID := conn.Params("id")
	userID, _ := conn.Locals("userId").(string)

	teamSub := eventHub.Subscribe(services.TeamTopic(teamID))
	userSub := eventHub.Subscribe(services.UserTopic(userID))
	defer teamSub.Close()
	defer userSub.Close()

	log.Printf("🔌 %s subscribed to team %s", userID, teamID)
	defer log.Printf("🔌 %s unsubscribed from team %s", userID, teamID)

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, teamSub, userSub, done)
})

// readPump drains client frames so control messages are processed, and
// closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, teamSub, userSub *services.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var ev services.TeamEvent
		var ok bool

		select {
		case <-done:
			return
		case ev, ok = <-teamSub.C:
		case ev, ok = <-userSub.C:
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		if !ok {
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("❌ Error writing to WebSocket: %v", err)
			return
		}
	}
}
