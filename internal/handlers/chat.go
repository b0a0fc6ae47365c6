package handlers

import (
	"net/http"
	"strconv"

	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	"github.com/Vantorrr/influenta-backend/internal/realtime"
	"github.com/Vantorrr/influenta-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// ChatHandler serves chat listing and the synchronous messaging path.
// The realtime gateway is injected so REST sends reach connected peers
// the same way socket sends do.
type ChatHandler struct {
	rt *realtime.Gateway
}

func NewChatHandler(rt *realtime.Gateway) *ChatHandler {
	return &ChatHandler{rt: rt}
}

type SendMessageInput struct {
	ChatID string `json:"chatId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// ListChats GET /chats
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.MustGet("userId").(string)

	chats, err := services.ListChatsForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Last-message preview per chat, newest activity already first
	type chatPreview struct {
		models.Chat
		LastMessage *models.Message `json:"lastMessage,omitempty"`
	}
	previews := make([]chatPreview, 0, len(chats))
	for _, chat := range chats {
		var last models.Message
		preview := chatPreview{Chat: chat}
		if err := database.DB.Where("chat_id = ?", chat.ID).Order("created_at desc, id desc").First(&last).Error; err == nil {
			preview.LastMessage = &last
		}
		previews = append(previews, preview)
	}

	c.JSON(http.StatusOK, gin.H{"chats": previews})
}

// SendMessage POST /messages/send
func (h *ChatHandler) SendMessage(c *gin.Context) {
	senderID := c.MustGet("userId").(string)

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var msg *models.Message
	var err error
	if h.rt != nil {
		// Store-then-broadcast through the gateway's per-chat ordering lock
		msg, err = h.rt.SendMessage(input.ChatID, senderID, input.Text)
	} else {
		msg, err = services.AppendMessage(input.ChatID, senderID, input.Text)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// GetMessages GET /messages?chatId=&page=&limit=
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := c.MustGet("userId").(string)
	chatID := c.Query("chatId")

	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chatId required"})
		return
	}
	if _, err := services.GetChatForUser(chatID, userID); err != nil {
		respondError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, total, err := services.ListMessages(chatID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messages, "total": total})
}

// MarkMessageRead PATCH /messages/:id/read
func (h *ChatHandler) MarkMessageRead(c *gin.Context) {
	readerID := c.MustGet("userId").(string)
	messageID := c.Param("id")

	msg, err := services.MarkMessageRead(messageID, readerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.rt != nil {
		h.rt.BroadcastRead(msg, readerID)
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// MarkChatRead PATCH /chats/:id/read
func (h *ChatHandler) MarkChatRead(c *gin.Context) {
	readerID := c.MustGet("userId").(string)
	chatID := c.Param("id")

	marked, err := services.MarkChatRead(chatID, readerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"markedRead": marked})
}
