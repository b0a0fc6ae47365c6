package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is a two-party channel between an advertiser and a blogger,
// optionally linked to the offer whose acceptance created it. The
// unique index on OfferID is what makes provisioning idempotent under
// concurrent accepts.
type Chat struct {
	ID           string  `gorm:"primaryKey;type:text" json:"id"`
	AdvertiserID string  `gorm:"index:idx_chats_pair;type:text;not null" json:"advertiserId"`
	BloggerID    string  `gorm:"index:idx_chats_pair;type:text;not null" json:"bloggerId"`
	OfferID      *string `gorm:"uniqueIndex;type:text" json:"offerId"`

	// Denormalized projection of messages where is_read = false for the
	// blogger/advertiser party other than the last sender. Maintained
	// transactionally with append/markRead; RecomputeUnread repairs drift.
	UnreadCount int `gorm:"default:0" json:"unreadCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Advertiser User      `gorm:"foreignKey:AdvertiserID" json:"advertiser,omitempty"`
	Blogger    User      `gorm:"foreignKey:BloggerID" json:"blogger,omitempty"`
	Offer      *Offer    `gorm:"foreignKey:OfferID" json:"offer,omitempty"`
	Messages   []Message `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
}

func (c *Chat) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// HasParticipant reports whether userID is one of the two parties
func (c *Chat) HasParticipant(userID string) bool {
	return c.AdvertiserID == userID || c.BloggerID == userID
}

// PeerOf returns the other party's user id
func (c *Chat) PeerOf(userID string) string {
	if c.AdvertiserID == userID {
		return c.BloggerID
	}
	return c.AdvertiserID
}

// Message is one chat utterance. Text is immutable once created; the
// only mutation ever applied is flipping IsRead false -> true.
type Message struct {
	ID       string `gorm:"primaryKey;type:text" json:"id"`
	ChatID   string `gorm:"index:idx_messages_chat_created;type:text;not null" json:"chatId"`
	SenderID string `gorm:"index;type:text;not null" json:"senderId"`
	Text     string `gorm:"type:text;not null" json:"text"`
	IsRead   bool   `gorm:"default:false" json:"isRead"`

	CreatedAt time.Time `gorm:"index:idx_messages_chat_created" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
