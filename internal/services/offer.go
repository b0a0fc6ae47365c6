package services

import (
	"time"

	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	apperrors "github.com/Vantorrr/influenta-backend/pkg/errors"
	"github.com/Vantorrr/influenta-backend/pkg/logger"
	"gorm.io/gorm"
)

type CreateOfferInput struct {
	AdvertiserID       string
	BloggerID          string
	Message            string
	ProposedBudget     float64
	ProjectTitle       string
	ProjectDescription string
	Format             string
	Deadline           *time.Time
}

// CreateOffer persists a new pending offer. Validation happens before
// any write, so a rejected input leaves nothing behind.
func CreateOffer(in CreateOfferInput) (*models.Offer, error) {
	if in.Message == "" {
		return nil, apperrors.Validation("Offer message is required")
	}
	if in.ProposedBudget <= 0 {
		return nil, apperrors.Validation("Proposed budget must be positive")
	}

	var blogger models.User
	if err := database.DB.Select("id", "role").First(&blogger, "id = ?", in.BloggerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("Blogger not found")
		}
		return nil, err
	}
	if blogger.Role != models.RoleBlogger {
		return nil, apperrors.Validation("Offers can only be sent to bloggers")
	}

	offer := models.Offer{
		AdvertiserID:       in.AdvertiserID,
		BloggerID:          in.BloggerID,
		Message:            in.Message,
		ProposedBudget:     in.ProposedBudget,
		ProjectTitle:       in.ProjectTitle,
		ProjectDescription: in.ProjectDescription,
		Format:             in.Format,
		Deadline:           in.Deadline,
		Status:             models.OfferStatusPending,
	}

	if err := database.DB.Create(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// RespondToOffer applies the single permitted pending -> terminal
// transition. The UPDATE is conditional on status = pending, so of two
// concurrent responders exactly one wins; the loser gets InvalidState.
// Accepting and provisioning the chat happen in one transaction: if
// the chat cannot be created the status transition rolls back too, so
// an accepted offer always has its chat and a failed accept can be
// retried. The returned bool reports whether that chat was newly
// created.
func RespondToOffer(offerID, actorID string, accept bool, rejectionReason string) (*models.Offer, *models.Chat, bool, error) {
	var offer models.Offer
	if err := database.DB.First(&offer, "id = ?", offerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, false, apperrors.NotFound("Offer not found")
		}
		return nil, nil, false, err
	}

	if offer.BloggerID != actorID {
		return nil, nil, false, apperrors.Forbidden("Only the offer's blogger can respond to it")
	}
	if offer.Status != models.OfferStatusPending {
		return nil, nil, false, apperrors.InvalidState("Offer has already been resolved")
	}

	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	if accept {
		updates["status"] = models.OfferStatusAccepted
		updates["accepted_at"] = now
	} else {
		updates["status"] = models.OfferStatusRejected
		updates["rejected_at"] = now
		if rejectionReason != "" {
			updates["rejection_reason"] = rejectionReason
		}
	}

	var chat *models.Chat
	created := false
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Offer{}).
			Where("id = ? AND status = ?", offerID, models.OfferStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Second writer loses: someone resolved the offer between our
			// read and the conditional update.
			return apperrors.InvalidState("Offer has already been resolved")
		}

		if err := tx.First(&offer, "id = ?", offerID).Error; err != nil {
			return err
		}

		if accept {
			var err error
			chat, created, err = ensureChatTx(tx, offer.AdvertiserID, offer.BloggerID, &offer.ID)
			if err != nil {
				logger.Error().Err(err).Str("offer_id", offer.ID).Msg("Chat provisioning failed, rolling back accept")
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, false, err
	}

	return &offer, chat, created, nil
}

// ExpireStaleOffers moves pending offers past their deadline to
// expired. Offers without a deadline expire defaultDays after
// creation. Idempotent: the status predicate never touches terminal
// offers, so re-running the sweep is harmless.
func ExpireStaleOffers(now time.Time, defaultDays int) (int64, error) {
	cutoff := now.AddDate(0, 0, -defaultDays)

	res := database.DB.Model(&models.Offer{}).
		Where("status = ?", models.OfferStatusPending).
		Where("(deadline IS NOT NULL AND deadline < ?) OR (deadline IS NULL AND created_at < ?)", now, cutoff).
		Updates(map[string]interface{}{
			"status":     models.OfferStatusExpired,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		logger.Info().Int64("count", res.RowsAffected).Msg("Expired stale offers")
	}
	return res.RowsAffected, nil
}

// ListOffersForUser returns offers where the user is either party,
// newest first.
func ListOffersForUser(userID string, page, limit int) ([]models.Offer, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	q := database.DB.Model(&models.Offer{}).
		Where("advertiser_id = ? OR blogger_id = ?", userID, userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var offers []models.Offer
	err := q.Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Advertiser").
		Preload("Blogger").
		Find(&offers).Error
	if err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

// GetOfferForUser loads an offer the user participates in.
func GetOfferForUser(offerID, userID string) (*models.Offer, error) {
	var offer models.Offer
	if err := database.DB.Preload("Advertiser").Preload("Blogger").First(&offer, "id = ?", offerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("Offer not found")
		}
		return nil, err
	}
	if offer.AdvertiserID != userID && offer.BloggerID != userID {
		return nil, apperrors.Forbidden("Not a party to this offer")
	}
	return &offer, nil
}
