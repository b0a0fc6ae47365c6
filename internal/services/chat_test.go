package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	apperrors "github.com/Vantorrr/influenta-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestEnsureChat_IdempotentPerOffer(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("ensure")

	offerID := "ensure_offer_1"
	database.DB.Create(&models.Offer{
		ID: offerID, AdvertiserID: adv.ID, BloggerID: blog.ID,
		Message: "hi", ProposedBudget: 500, Status: models.OfferStatusAccepted,
	})

	chat1, created1, err := EnsureChat(adv.ID, blog.ID, &offerID)
	assert.NoError(t, err)
	assert.True(t, created1)
	assert.Equal(t, 0, chat1.UnreadCount)

	chat2, created2, err := EnsureChat(adv.ID, blog.ID, &offerID)
	assert.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, chat1.ID, chat2.ID)

	var count int64
	database.DB.Model(&models.Chat{}).Where("offer_id = ?", offerID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEnsureChat_PairFallbackWithoutOffer(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("pair")

	chat1, created1, err := EnsureChat(adv.ID, blog.ID, nil)
	assert.NoError(t, err)
	assert.True(t, created1)
	assert.Nil(t, chat1.OfferID)

	// Second direct chat for the same pair is not duplicated
	chat2, created2, err := EnsureChat(adv.ID, blog.ID, nil)
	assert.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, chat1.ID, chat2.ID)
}

func TestAppendMessage_RoundTripAndUnread(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("append")
	chat, _, _ := EnsureChat(adv.ID, blog.ID, nil)

	msg, err := AppendMessage(chat.ID, adv.ID, "hello there")
	assert.NoError(t, err)
	assert.Equal(t, adv.ID, msg.SenderID)
	assert.Equal(t, "hello there", msg.Text)
	assert.False(t, msg.IsRead)

	// Immediately visible via the paginated history
	messages, total, err := ListMessages(chat.ID, 1, 50)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	if assert.Len(t, messages, 1) {
		assert.Equal(t, "hello there", messages[0].Text)
		assert.Equal(t, adv.ID, messages[0].SenderID)
		assert.False(t, messages[0].IsRead)
	}

	// Counter maintained with the append
	var after models.Chat
	database.DB.First(&after, "id = ?", chat.ID)
	assert.Equal(t, 1, after.UnreadCount)
}

func TestAppendMessage_Validation(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("append_val")
	chat, _, _ := EnsureChat(adv.ID, blog.ID, nil)

	_, err := AppendMessage(chat.ID, adv.ID, "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = AppendMessage("missing-chat", adv.ID, "hi")
	assert.True(t, apperrors.IsNotFound(err))

	// Outsiders cannot write into the chat
	_, stranger := createTestPair("append_val_other")
	_, err = AppendMessage(chat.ID, stranger.ID, "hi")
	assert.True(t, apperrors.IsForbidden(err))
}

func TestListMessages_PaginationIsStableAndLossless(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("pages")
	chat, _, _ := EnsureChat(adv.ID, blog.ID, nil)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		database.DB.Create(&models.Message{
			ID:        fmt.Sprintf("pages_m%02d", i),
			ChatID:    chat.ID,
			SenderID:  adv.ID,
			Text:      fmt.Sprintf("msg %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	whole, total, err := ListMessages(chat.ID, 1, 500)
	assert.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, whole, 25)

	// Non-decreasing creation order
	for i := 1; i < len(whole); i++ {
		assert.False(t, whole[i].CreatedAt.Before(whole[i-1].CreatedAt))
	}

	// Concatenating pages yields the same sequence
	var paged []models.Message
	for page := 1; ; page++ {
		batch, _, err := ListMessages(chat.ID, page, 10)
		assert.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		paged = append(paged, batch...)
	}
	assert.Len(t, paged, 25)
	for i := range whole {
		assert.Equal(t, whole[i].ID, paged[i].ID)
	}
}

func TestListMessages_LimitClamped(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("clamp")
	chat, _, _ := EnsureChat(adv.ID, blog.ID, nil)

	_, _, err := ListMessages(chat.ID, 1, 10000)
	assert.NoError(t, err)

	_, _, err = ListMessages("missing", 1, 10)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMarkMessageRead_Idempotent(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("read")
	chat, _, _ := EnsureChat(adv.ID, blog.ID, nil)

	msg, _ := AppendMessage(chat.ID, adv.ID, "read me")

	first, err := MarkMessageRead(msg.ID, blog.ID)
	assert.NoError(t, err)
	assert.True(t, first.IsRead)

	var afterChat models.Chat
	database.DB.First(&afterChat, "id = ?", chat.ID)
	assert.Equal(t, 0, afterChat.UnreadCount)

	// Second call: success, no error, no state change
	second, err := MarkMessageRead(msg.ID, blog.ID)
	assert.NoError(t, err)
	assert.True(t, second.IsRead)

	database.DB.First(&afterChat, "id = ?", chat.ID)
	assert.Equal(t, 0, afterChat.UnreadCount)

	_, err = MarkMessageRead("missing-message", blog.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMarkMessageRead_OutsiderForbidden(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("read_forbidden")
	chat, _, _ := EnsureChat(adv.ID, blog.ID, nil)

	msg, _ := AppendMessage(chat.ID, adv.ID, "private")

	_, stranger := createTestPair("read_forbidden_other")
	_, err := MarkMessageRead(msg.ID, stranger.ID)
	assert.True(t, apperrors.IsForbidden(err))

	// Neither the flag nor the counter moved
	var after models.Message
	database.DB.First(&after, "id = ?", msg.ID)
	assert.False(t, after.IsRead)

	var afterChat models.Chat
	database.DB.First(&afterChat, "id = ?", chat.ID)
	assert.Equal(t, 1, afterChat.UnreadCount)
}

func TestMarkChatRead_BulkResetsCounter(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("bulk")
	chat, _, _ := EnsureChat(adv.ID, blog.ID, nil)

	AppendMessage(chat.ID, adv.ID, "one")
	AppendMessage(chat.ID, adv.ID, "two")
	AppendMessage(chat.ID, blog.ID, "reply")

	// Blogger reads everything the advertiser sent
	marked, err := MarkChatRead(chat.ID, blog.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	// Counter recomputed from source of truth: the blogger's own
	// unread reply is all that remains
	var after models.Chat
	database.DB.First(&after, "id = ?", chat.ID)
	assert.Equal(t, 1, after.UnreadCount)
}

func TestRecomputeUnread_RepairsDrift(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("drift")
	chat, _, _ := EnsureChat(adv.ID, blog.ID, nil)

	AppendMessage(chat.ID, adv.ID, "one")
	AppendMessage(chat.ID, adv.ID, "two")

	// Simulate drift in the denormalized counter
	database.DB.Model(&models.Chat{}).Where("id = ?", chat.ID).Update("unread_count", 99)

	unread, err := RecomputeUnread(chat.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	var after models.Chat
	database.DB.First(&after, "id = ?", chat.ID)
	assert.Equal(t, 2, after.UnreadCount)
}
