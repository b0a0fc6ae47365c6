package services

import (
	"sync"
	"testing"
	"time"

	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	apperrors "github.com/Vantorrr/influenta-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCreateOffer_RejectsNonPositiveBudget(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("co_budget")

	_, err := CreateOffer(CreateOfferInput{
		AdvertiserID:   adv.ID,
		BloggerID:      blog.ID,
		Message:        "Let's collaborate",
		ProposedBudget: 0,
	})

	assert.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	// Nothing persisted
	var count int64
	database.DB.Model(&models.Offer{}).Where("advertiser_id = ?", adv.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateOffer_RejectsEmptyMessage(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("co_msg")

	_, err := CreateOffer(CreateOfferInput{
		AdvertiserID:   adv.ID,
		BloggerID:      blog.ID,
		Message:        "",
		ProposedBudget: 500,
	})

	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateOffer_UnknownBlogger(t *testing.T) {
	SetupTestDB()
	adv, _ := createTestPair("co_missing")

	_, err := CreateOffer(CreateOfferInput{
		AdvertiserID:   adv.ID,
		BloggerID:      "nope",
		Message:        "hi",
		ProposedBudget: 500,
	})

	assert.True(t, apperrors.IsNotFound(err))
}

func TestRespondToOffer_AcceptProvisionsChat(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("accept")

	offer, err := CreateOffer(CreateOfferInput{
		AdvertiserID:   adv.ID,
		BloggerID:      blog.ID,
		Message:        "Let's collaborate",
		ProposedBudget: 5000,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusPending, offer.Status)

	updated, chat, created, err := RespondToOffer(offer.ID, blog.ID, true, "")
	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, updated.Status)
	assert.NotNil(t, updated.AcceptedAt)
	assert.Nil(t, updated.RejectedAt)

	assert.True(t, created)
	assert.NotNil(t, chat)
	assert.Equal(t, adv.ID, chat.AdvertiserID)
	assert.Equal(t, blog.ID, chat.BloggerID)
	if assert.NotNil(t, chat.OfferID) {
		assert.Equal(t, offer.ID, *chat.OfferID)
	}
	assert.Equal(t, 0, chat.UnreadCount)
}

func TestRespondToOffer_RejectStoresReasonNoChat(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("reject")

	offer, _ := CreateOffer(CreateOfferInput{
		AdvertiserID:   adv.ID,
		BloggerID:      blog.ID,
		Message:        "hi",
		ProposedBudget: 1000,
	})

	updated, chat, created, err := RespondToOffer(offer.ID, blog.ID, false, "Not a fit")
	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusRejected, updated.Status)
	assert.Equal(t, "Not a fit", updated.RejectionReason)
	assert.NotNil(t, updated.RejectedAt)
	assert.Nil(t, updated.AcceptedAt)
	assert.Nil(t, chat)
	assert.False(t, created)

	var chatCount int64
	database.DB.Model(&models.Chat{}).Where("advertiser_id = ?", adv.ID).Count(&chatCount)
	assert.Equal(t, int64(0), chatCount)
}

func TestRespondToOffer_TerminalIsFinal(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("terminal")

	offer, _ := CreateOffer(CreateOfferInput{
		AdvertiserID:   adv.ID,
		BloggerID:      blog.ID,
		Message:        "hi",
		ProposedBudget: 1000,
	})

	first, _, _, err := RespondToOffer(offer.ID, blog.ID, false, "busy")
	assert.NoError(t, err)

	// Second response must fail and change nothing
	_, _, _, err = RespondToOffer(offer.ID, blog.ID, true, "")
	assert.True(t, apperrors.IsInvalidState(err))

	var after models.Offer
	database.DB.First(&after, "id = ?", offer.ID)
	assert.Equal(t, models.OfferStatusRejected, after.Status)
	assert.Nil(t, after.AcceptedAt)
	assert.Equal(t, first.RejectedAt.Unix(), after.RejectedAt.Unix())
}

func TestRespondToOffer_OnlyTargetBlogger(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("forbidden")
	_, other := createTestPair("forbidden_other")

	offer, _ := CreateOffer(CreateOfferInput{
		AdvertiserID:   adv.ID,
		BloggerID:      blog.ID,
		Message:        "hi",
		ProposedBudget: 1000,
	})

	_, _, _, err := RespondToOffer(offer.ID, other.ID, true, "")
	assert.True(t, apperrors.IsForbidden(err))

	_, _, _, err = RespondToOffer(offer.ID, adv.ID, true, "")
	assert.True(t, apperrors.IsForbidden(err))
}

func TestRespondToOffer_NotFound(t *testing.T) {
	SetupTestDB()
	_, blog := createTestPair("nf")

	_, _, _, err := RespondToOffer("missing-offer", blog.ID, true, "")
	assert.True(t, apperrors.IsNotFound(err))
}

// N concurrent accepts on one pending offer: exactly one wins, the
// rest see InvalidState, and exactly one chat exists for the offer.
func TestRespondToOffer_ConcurrentAccepts(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("race")

	offer, _ := CreateOffer(CreateOfferInput{
		AdvertiserID:   adv.ID,
		BloggerID:      blog.ID,
		Message:        "hi",
		ProposedBudget: 2000,
	})

	const n = 8
	var wg sync.WaitGroup
	results := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _, results[i] = RespondToOffer(offer.ID, blog.ID, true, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.True(t, apperrors.IsInvalidState(err) || apperrors.IsConflict(err))
		}
	}
	assert.Equal(t, 1, wins)

	var chatCount int64
	database.DB.Model(&models.Chat{}).Where("offer_id = ?", offer.ID).Count(&chatCount)
	assert.Equal(t, int64(1), chatCount)
}

// Accepting and provisioning are one transaction: if the chat cannot
// be written the status transition must roll back, leaving the offer
// pending so the accept can be retried.
func TestRespondToOffer_AcceptRollsBackWhenProvisioningFails(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("atomic")

	offer, _ := CreateOffer(CreateOfferInput{
		AdvertiserID:   adv.ID,
		BloggerID:      blog.ID,
		Message:        "hi",
		ProposedBudget: 1000,
	})

	// Make chat writes impossible
	assert.NoError(t, database.DB.Migrator().DropTable(&models.Chat{}))

	_, _, _, err := RespondToOffer(offer.ID, blog.ID, true, "")
	assert.Error(t, err)

	var after models.Offer
	database.DB.First(&after, "id = ?", offer.ID)
	assert.Equal(t, models.OfferStatusPending, after.Status)
	assert.Nil(t, after.AcceptedAt)

	// Once chats are writable again the same accept goes through
	assert.NoError(t, database.DB.AutoMigrate(&models.Chat{}))

	updated, chat, created, err := RespondToOffer(offer.ID, blog.ID, true, "")
	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, updated.Status)
	assert.True(t, created)
	assert.NotNil(t, chat)
}

func TestExpireStaleOffers(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("expire")

	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	overdue, _ := CreateOffer(CreateOfferInput{
		AdvertiserID: adv.ID, BloggerID: blog.ID,
		Message: "overdue", ProposedBudget: 500, Deadline: &past,
	})
	fresh, _ := CreateOffer(CreateOfferInput{
		AdvertiserID: adv.ID, BloggerID: blog.ID,
		Message: "fresh", ProposedBudget: 500, Deadline: &future,
	})
	resolved, _ := CreateOffer(CreateOfferInput{
		AdvertiserID: adv.ID, BloggerID: blog.ID,
		Message: "resolved", ProposedBudget: 500, Deadline: &past,
	})
	RespondToOffer(resolved.ID, blog.ID, false, "")

	count, err := ExpireStaleOffers(time.Now(), 30)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var check models.Offer
	database.DB.First(&check, "id = ?", overdue.ID)
	assert.Equal(t, models.OfferStatusExpired, check.Status)

	check = models.Offer{}
	database.DB.First(&check, "id = ?", fresh.ID)
	assert.Equal(t, models.OfferStatusPending, check.Status)

	// Terminal offers are never double-transitioned
	check = models.Offer{}
	database.DB.First(&check, "id = ?", resolved.ID)
	assert.Equal(t, models.OfferStatusRejected, check.Status)

	// Sweep is idempotent
	count, err = ExpireStaleOffers(time.Now(), 30)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestListOffersForUser_NewestFirst(t *testing.T) {
	SetupTestDB()
	adv, blog := createTestPair("list")

	old := models.Offer{
		AdvertiserID: adv.ID, BloggerID: blog.ID,
		Message: "old", ProposedBudget: 500,
		Status: models.OfferStatusPending, CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	database.DB.Create(&old)
	recent := models.Offer{
		AdvertiserID: adv.ID, BloggerID: blog.ID,
		Message: "recent", ProposedBudget: 500,
		Status: models.OfferStatusPending, CreatedAt: time.Now().Add(-time.Minute),
	}
	database.DB.Create(&recent)

	// Both parties see the same offers
	for _, uid := range []string{adv.ID, blog.ID} {
		offers, total, err := ListOffersForUser(uid, 1, 20)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), total)
		if assert.Len(t, offers, 2) {
			assert.Equal(t, "recent", offers[0].Message)
			assert.Equal(t, "old", offers[1].Message)
		}
	}
}
