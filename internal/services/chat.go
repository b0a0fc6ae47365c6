package services

import (
	"errors"
	"time"

	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	apperrors "github.com/Vantorrr/influenta-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	DefaultMessagePageSize = 50
	MaxMessagePageSize     = 500
)

// EnsureChat returns the chat for (advertiser, blogger, offer),
// creating it if none exists. With an offerId the lookup keys on the
// unique chats.offer_id index, so concurrent accepts of the same offer
// produce at most one chat: the loser of the insert race re-runs the
// lookup and adopts the winner's row. Without an offerId the
// (advertiser, blogger) pair is used so direct-message chats are not
// duplicated either.
func EnsureChat(advertiserID, bloggerID string, offerID *string) (*models.Chat, bool, error) {
	return ensureChatTx(database.DB, advertiserID, bloggerID, offerID)
}

// ensureChatTx is EnsureChat running inside a caller-owned transaction,
// so offer acceptance can provision its chat atomically with the
// status transition.
func ensureChatTx(tx *gorm.DB, advertiserID, bloggerID string, offerID *string) (*models.Chat, bool, error) {
	var existing models.Chat

	if offerID != nil {
		err := tx.First(&existing, "offer_id = ?", *offerID).Error
		if err == nil {
			return &existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	} else {
		err := tx.First(&existing, "advertiser_id = ? AND blogger_id = ?", advertiserID, bloggerID).Error
		if err == nil {
			return &existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	chat := models.Chat{
		AdvertiserID: advertiserID,
		BloggerID:    bloggerID,
		OfferID:      offerID,
		UnreadCount:  0,
	}

	if err := tx.Create(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && offerID != nil {
			// Lost the insert race; the winner's row must exist now.
			var won models.Chat
			if lookupErr := tx.First(&won, "offer_id = ?", *offerID).Error; lookupErr == nil {
				return &won, false, nil
			}
			return nil, false, apperrors.Conflict("Chat already being provisioned, retry")
		}
		return nil, false, err
	}

	return &chat, true, nil
}

// GetChatForUser loads a chat and checks the caller is a party to it.
func GetChatForUser(chatID, userID string) (*models.Chat, error) {
	var chat models.Chat
	if err := database.DB.First(&chat, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Chat not found")
		}
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, apperrors.Forbidden("Not a participant of this chat")
	}
	return &chat, nil
}

// ListChatsForUser returns the user's chats, most recent activity first.
func ListChatsForUser(userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := database.DB.
		Where("advertiser_id = ? OR blogger_id = ?", userID, userID).
		Order("updated_at desc").
		Preload("Advertiser").
		Preload("Blogger").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// AppendMessage durably stores a message and bumps the chat's unread
// counter in the same transaction, keeping the projection in step with
// the source of truth.
func AppendMessage(chatID, senderID, text string) (*models.Message, error) {
	if text == "" {
		return nil, apperrors.Validation("Message text is required")
	}

	chat, err := GetChatForUser(chatID, senderID)
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		ChatID:   chat.ID,
		SenderID: senderID,
		Text:     text,
		IsRead:   false,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).
			Where("id = ?", chat.ID).
			Updates(map[string]interface{}{
				"unread_count": gorm.Expr("unread_count + 1"),
				"updated_at":   time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	database.DB.Preload("Sender").First(&msg, "id = ?", msg.ID)
	return &msg, nil
}

// ListMessages returns one page of a chat's history in append order
// (created_at ascending, id as tie-break) plus the total count.
func ListMessages(chatID string, page, limit int) ([]models.Message, int64, error) {
	var chat models.Chat
	if err := database.DB.Select("id").First(&chat, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperrors.NotFound("Chat not found")
		}
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultMessagePageSize
	}
	if limit > MaxMessagePageSize {
		limit = MaxMessagePageSize
	}

	var total int64
	if err := database.DB.Model(&models.Message{}).Where("chat_id = ?", chatID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	err := database.DB.
		Where("chat_id = ?", chatID).
		Order("created_at asc, id asc").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkMessageRead flips is_read to true. Only a participant of the
// message's chat may read it. Already-read messages are a no-op, not
// an error. The chat counter is decremented only when this call
// actually flipped the flag.
func MarkMessageRead(messageID, readerID string) (*models.Message, error) {
	var msg models.Message
	if err := database.DB.First(&msg, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Message not found")
		}
		return nil, err
	}

	if _, err := GetChatForUser(msg.ChatID, readerID); err != nil {
		return nil, err
	}

	if msg.IsRead {
		return &msg, nil
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Message{}).
			Where("id = ? AND is_read = ?", messageID, false).
			Update("is_read", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Someone else flipped it first; counter already adjusted.
			return nil
		}
		return tx.Model(&models.Chat{}).
			Where("id = ? AND unread_count > 0", msg.ChatID).
			Update("unread_count", gorm.Expr("unread_count - 1")).Error
	})
	if err != nil {
		return nil, err
	}

	msg.IsRead = true
	return &msg, nil
}

// MarkChatRead marks every unread message sent by the peer as read and
// recomputes the chat counter from the messages table.
func MarkChatRead(chatID, readerID string) (int64, error) {
	chat, err := GetChatForUser(chatID, readerID)
	if err != nil {
		return 0, err
	}

	var marked int64
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Message{}).
			Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chat.ID, readerID, false).
			Update("is_read", true)
		if res.Error != nil {
			return res.Error
		}
		marked = res.RowsAffected
		return recomputeUnreadTx(tx, chat.ID)
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}

// RecomputeUnread repairs the denormalized counter from the source of
// truth. Used after bulk operations and as the drift-repair path.
func RecomputeUnread(chatID string) (int64, error) {
	if err := recomputeUnreadTx(database.DB, chatID); err != nil {
		return 0, err
	}
	var chat models.Chat
	if err := database.DB.Select("unread_count").First(&chat, "id = ?", chatID).Error; err != nil {
		return 0, err
	}
	return int64(chat.UnreadCount), nil
}

func recomputeUnreadTx(tx *gorm.DB, chatID string) error {
	var unread int64
	if err := tx.Model(&models.Message{}).
		Where("chat_id = ? AND is_read = ?", chatID, false).
		Count(&unread).Error; err != nil {
		return err
	}
	return tx.Model(&models.Chat{}).
		Where("id = ?", chatID).
		Update("unread_count", unread).Error
}
