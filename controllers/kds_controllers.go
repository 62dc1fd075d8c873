package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/club-pos/kds"
	"github.com/yeremiapane/club-pos/middlewares"
)

type KDSController struct {
	hub      *kds.Hub
	upgrader websocket.Upgrader
}

// NewKDSController accepts upgrades from the given origins. An empty list
// allows only same-origin requests.
func NewKDSController(hub *kds.Hub, origins []string) *KDSController {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &KDSController{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin] || origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

// Connect upgrades to a WebSocket and streams hub events until the client
// disconnects. Role gating happens in the router.
func (kc *KDSController) Connect(c *gin.Context) {
	role := middlewares.ActorFrom(c).Role
	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	kc.hub.Register(ws, role)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	kc.hub.Unregister(ws)
}
