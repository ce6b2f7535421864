package relay

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"
)

// StreamServer returns a websocket server that streams every envelope
// published on h as a JSON text message. Origin policy is left to the HTTP
// layer in front of it.
func (h *Hub) StreamServer(logger zerolog.Logger) websocket.Server {
	return websocket.Server{
		Handshake: func(cfg *websocket.Config, r *http.Request) error {
			cfg.Origin, _ = websocket.Origin(cfg, r)
			return nil
		},
		Handler: func(ws *websocket.Conn) {
			h.stream(ws, logger)
		},
	}
}

func (h *Hub) stream(ws *websocket.Conn, logger zerolog.Logger) {
	defer ws.Close()

	sub, err := h.Subscribe()
	if err != nil {
		logger.Warn().Err(err).Msg("relay_subscriber rejected")
		return
	}
	defer h.Unsubscribe(sub.ID)

	remote := ws.Request().RemoteAddr
	logger.Info().Str("id", sub.ID).Str("remote", remote).Msg("relay_subscriber connected")
	defer func() {
		logger.Info().
			Str("id", sub.ID).
			Int64("dropped", sub.Dropped()).
			Dur("connected_for", time.Since(sub.ConnectedAt)).
			Msg("relay_subscriber disconnected")
	}()

	inbound := make(chan struct{})
	go func() {
		defer close(inbound)
		for {
			var msg string
			if err := websocket.Message.Receive(ws, &msg); err != nil {
				return
			}
			logger.Debug().Str("id", sub.ID).Str("message", msg).Msg("relay_subscriber inbound")
		}
	}()

	for {
		select {
		case env, ok := <-sub.C:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(ws, env); err != nil {
				logger.Debug().Err(err).Str("id", sub.ID).Msg("relay_subscriber send failed")
				return
			}
		case <-inbound:
			return
		}
	}
}
