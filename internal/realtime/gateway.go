package realtime

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	"github.com/Vantorrr/influenta-backend/internal/services"
	"github.com/Vantorrr/influenta-backend/pkg/logger"
	"github.com/Vantorrr/influenta-backend/pkg/utils"
)

const typingThrottle = 3 * time.Second

// broadcaster is the room fan-out surface of the socket.io server.
// *socketio.Server satisfies it; tests substitute a recorder.
type broadcaster interface {
	BroadcastToRoom(namespace string, room, event string, args ...interface{}) bool
}

// Gateway owns the live-connection side of messaging: one socket.io
// session per authenticated user, chat-room fan-out, typing and
// read-receipt events. It is constructed in main and handed to the
// REST handlers that need to broadcast.
type Gateway struct {
	server    *socketio.Server
	broadcast broadcaster
	reg       *Registry

	// chat id -> *sync.Mutex. Serializes persist+broadcast per chat so
	// broadcast order always follows append order.
	chatLocks sync.Map
}

func NewGateway() *Gateway {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	g := &Gateway{
		server:    server,
		broadcast: server,
		reg:       NewRegistry(),
	}
	g.bind()
	return g
}

// Registry exposes the session table, mainly for tests.
func (g *Gateway) Registry() *Registry {
	return g.reg
}

func (g *Gateway) bind() {
	g.server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		url := s.URL()

		// Bearer credential arrives as a query param at handshake time
		token := url.Query().Get("token")
		if token == "" {
			token = url.Query().Get("auth_token")
		}
		if token == "" {
			logger.Warn().Str("socket", s.ID()).Msg("Socket rejected: no token")
			return fmt.Errorf("authentication required")
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			logger.Warn().Str("socket", s.ID()).Msg("Socket rejected: invalid token")
			return fmt.Errorf("invalid token")
		}
		if database.IsTokenBlacklisted(claims.GetJTI()) {
			logger.Warn().Str("socket", s.ID()).Msg("Socket rejected: revoked token")
			return fmt.Errorf("token revoked")
		}

		userID := claims.UserID
		s.SetContext(userID)
		g.reg.Connect(s.ID(), userID)

		// Personal room for newChat and other user-targeted events
		s.Join(userID)

		logger.Debug().Str("socket", s.ID()).Str("user", userID).Msg("Socket authenticated")
		return nil
	})

	g.server.OnEvent("/", "joinChat", func(s socketio.Conn, chatID string) {
		userID, _ := s.Context().(string)
		if userID == "" {
			return
		}
		if _, err := services.GetChatForUser(chatID, userID); err != nil {
			s.Emit("error", errPayload("joinChat", err))
			return
		}
		g.reg.Join(s.ID(), chatID)
		s.Join(chatRoom(chatID))
	})

	g.server.OnEvent("/", "leaveChat", func(s socketio.Conn, chatID string) {
		g.reg.Leave(s.ID(), chatID)
		s.Leave(chatRoom(chatID))
	})

	g.server.OnEvent("/", "sendMessage", func(s socketio.Conn, data map[string]interface{}) {
		userID, _ := s.Context().(string)
		if userID == "" {
			return
		}
		chatID, _ := data["chatId"].(string)
		text, _ := data["text"].(string)

		if _, err := g.SendMessage(chatID, userID, text); err != nil {
			// Failures must be acked to the originating session, never
			// silently dropped.
			s.Emit("error", errPayload("sendMessage", err))
		}
	})

	g.server.OnEvent("/", "startTyping", func(s socketio.Conn, chatID string) {
		g.emitTyping(s, chatID, true)
	})

	g.server.OnEvent("/", "stopTyping", func(s socketio.Conn, chatID string) {
		userID, _ := s.Context().(string)
		if userID == "" {
			return
		}
		g.reg.ClearTyping(chatID, userID)
		g.emitTyping(s, chatID, false)
	})

	g.server.OnEvent("/", "markAsRead", func(s socketio.Conn, data map[string]interface{}) {
		userID, _ := s.Context().(string)
		if userID == "" {
			return
		}
		messageID, _ := data["messageId"].(string)

		if err := g.MarkRead(messageID, userID); err != nil {
			s.Emit("error", errPayload("markAsRead", err))
		}
	})

	g.server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		userID, chats := g.reg.Disconnect(s.ID())
		logger.Debug().Str("socket", s.ID()).Str("user", userID).Str("reason", reason).Msg("Socket closed")

		// Typing state dies with the connection
		if userID != "" {
			for _, chatID := range chats {
				g.broadcast.BroadcastToRoom("/", chatRoom(chatID), "typing", typingPayload(chatID, userID, false))
			}
		}
	})

	g.server.OnError("/", func(s socketio.Conn, e error) {
		logger.Error().Err(e).Msg("Socket error")
	})
}

func (g *Gateway) emitTyping(s socketio.Conn, chatID string, isTyping bool) {
	userID, _ := s.Context().(string)
	if userID == "" || !g.reg.IsJoined(s.ID(), chatID) {
		return
	}
	if isTyping && !g.reg.AllowTyping(chatID, userID, typingThrottle) {
		return
	}
	g.broadcast.BroadcastToRoom("/", chatRoom(chatID), "typing", typingPayload(chatID, userID, isTyping))
}

// SendMessage persists via the message store, then fans the stored
// message out to every session joined to the chat, sender included so
// the sender's other devices stay in sync. The per-chat lock keeps
// broadcast order identical to persistence order; storage always
// happens first, so a page reload reflects at least what was
// broadcast.
func (g *Gateway) SendMessage(chatID, senderID, text string) (*models.Message, error) {
	mu := g.lockChat(chatID)
	defer mu.Unlock()

	msg, err := services.AppendMessage(chatID, senderID, text)
	if err != nil {
		return nil, err
	}

	g.broadcast.BroadcastToRoom("/", chatRoom(chatID), "message", map[string]interface{}{
		"message": msg,
	})
	return msg, nil
}

// MarkRead persists the read flag, then broadcasts the receipt.
func (g *Gateway) MarkRead(messageID, readerID string) error {
	msg, err := services.MarkMessageRead(messageID, readerID)
	if err != nil {
		return err
	}
	g.BroadcastRead(msg, readerID)
	return nil
}

// BroadcastRead emits a read-receipt for an already-persisted flip.
func (g *Gateway) BroadcastRead(msg *models.Message, readerID string) {
	g.broadcast.BroadcastToRoom("/", chatRoom(msg.ChatID), "messageRead", map[string]interface{}{
		"messageId": msg.ID,
		"chatId":    msg.ChatID,
		"readerId":  readerID,
	})
}

// NotifyNewChat tells both parties a chat now exists for them. Offline
// parties simply find it via the REST listing on their next load.
func (g *Gateway) NotifyNewChat(chat *models.Chat) {
	payload := map[string]interface{}{"chat": chat}
	g.broadcast.BroadcastToRoom("/", chat.AdvertiserID, "newChat", payload)
	g.broadcast.BroadcastToRoom("/", chat.BloggerID, "newChat", payload)
}

// Serve runs the socket.io event loop; call in a goroutine.
func (g *Gateway) Serve() error {
	return g.server.Serve()
}

func (g *Gateway) Close() error {
	return g.server.Close()
}

// Handler bridges the socket.io server into gin
func (g *Gateway) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		g.server.ServeHTTP(c.Writer, c.Request)
	}
}

func (g *Gateway) lockChat(chatID string) *sync.Mutex {
	v, _ := g.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}

func chatRoom(chatID string) string {
	return "chat:" + chatID
}

func typingPayload(chatID, userID string, isTyping bool) map[string]interface{} {
	p := map[string]interface{}{
		"chatId":   chatID,
		"userId":   userID,
		"isTyping": isTyping,
	}
	if isTyping {
		// Clients drop the indicator on their own if no stop event lands
		p["expiresAt"] = time.Now().Add(4 * time.Second).Unix()
	}
	return p
}

func errPayload(event string, err error) map[string]interface{} {
	return map[string]interface{}{
		"event":   event,
		"message": err.Error(),
	}
}
