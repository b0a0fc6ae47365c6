package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
	OfferStatusExpired  OfferStatus = "expired"
)

// IsTerminal reports whether no further transition is permitted
func (s OfferStatus) IsTerminal() bool {
	return s == OfferStatusAccepted || s == OfferStatusRejected || s == OfferStatusExpired
}

// Offer is a proposal from an advertiser to a specific blogger.
// Offers are append-only history: they are never deleted and leave
// pending exactly once.
type Offer struct {
	ID           string `gorm:"primaryKey;type:text" json:"id"`
	AdvertiserID string `gorm:"index;type:text;not null" json:"advertiserId"`
	BloggerID    string `gorm:"index;type:text;not null" json:"bloggerId"`

	Message        string  `gorm:"type:text;not null" json:"message"`
	ProposedBudget float64 `gorm:"not null" json:"proposedBudget"`

	ProjectTitle       string     `json:"projectTitle"`
	ProjectDescription string     `gorm:"type:text" json:"projectDescription"`
	Format             string     `json:"format"` // post, story, video...
	Deadline           *time.Time `json:"deadline"`

	Status          OfferStatus `gorm:"type:text;default:'pending';index" json:"status"`
	RejectionReason string      `gorm:"type:text" json:"rejectionReason"`
	AcceptedAt      *time.Time  `json:"acceptedAt"`
	RejectedAt      *time.Time  `json:"rejectedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Advertiser User `gorm:"foreignKey:AdvertiserID" json:"advertiser,omitempty"`
	Blogger    User `gorm:"foreignKey:BloggerID" json:"blogger,omitempty"`
}

func (o *Offer) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return
}
