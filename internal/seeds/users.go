package seeds

import (
	"log"
	"time"

	"github.com/Vantorrr/influenta-backend/internal/database"
	"github.com/Vantorrr/influenta-backend/internal/models"
	"github.com/Vantorrr/influenta-backend/pkg/utils"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func getOrCreateUser(user models.User, password string) (models.User, error) {
	var existing models.User
	if err := database.DB.Where("username = ?", user.Username).First(&existing).Error; err == nil {
		log.Printf("   ✅ User found: %s", existing.Username)
		return existing, nil
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user.ID = utils.GenerateID()
	user.Password = string(hash)
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	if err := database.DB.Create(&user).Error; err != nil {
		return models.User{}, err
	}
	log.Printf("   ✅ User created: %s (%s)", user.Username, user.Role)
	return user, nil
}

// SeedDemoAccounts creates a demo advertiser, two bloggers, and a
// pending offer so a fresh environment has something to negotiate.
func SeedDemoAccounts() error {
	log.Println("👤 Seeding demo accounts...")

	advertiser, err := getOrCreateUser(models.User{
		Username:    "brandify",
		Email:       "hello@brandify.io",
		Name:        "Brandify",
		Role:        models.RoleAdvertiser,
		CompanyName: "Brandify Media",
		Bio:         "Performance marketing for consumer apps.",
		Image:       "https://api.dicebear.com/7.x/identicon/svg?seed=brandify",
	}, "BrandifyDemo2024!")
	if err != nil {
		return err
	}

	blogger, err := getOrCreateUser(models.User{
		Username:    "techtalks",
		Email:       "anna@techtalks.blog",
		Name:        "Anna • TechTalks",
		Role:        models.RoleBlogger,
		Platform:    "telegram",
		ChannelURL:  "https://t.me/techtalks",
		Subscribers: 48000,
		Categories:  pq.StringArray{"tech", "gadgets"},
		Bio:         "Daily tech digests and honest reviews.",
		Image:       "https://api.dicebear.com/7.x/identicon/svg?seed=techtalks",
	}, "TechTalksDemo2024!")
	if err != nil {
		return err
	}

	if _, err := getOrCreateUser(models.User{
		Username:    "fitlife",
		Email:       "max@fitlife.blog",
		Name:        "Max • FitLife",
		Role:        models.RoleBlogger,
		Platform:    "instagram",
		ChannelURL:  "https://instagram.com/fitlife",
		Subscribers: 120000,
		Categories:  pq.StringArray{"fitness", "lifestyle"},
		Image:       "https://api.dicebear.com/7.x/identicon/svg?seed=fitlife",
	}, "FitLifeDemo2024!"); err != nil {
		return err
	}

	// One pending offer between the demo pair
	var count int64
	database.DB.Model(&models.Offer{}).
		Where("advertiser_id = ? AND blogger_id = ?", advertiser.ID, blogger.ID).
		Count(&count)
	if count == 0 {
		deadline := time.Now().AddDate(0, 0, 14)
		offer := models.Offer{
			AdvertiserID:   advertiser.ID,
			BloggerID:      blogger.ID,
			Message:        "Hi! We'd love a review of our new app on your channel.",
			ProposedBudget: 5000,
			ProjectTitle:   "App launch review",
			Format:         "post",
			Deadline:       &deadline,
			Status:         models.OfferStatusPending,
		}
		if err := database.DB.Create(&offer).Error; err != nil {
			return err
		}
		log.Println("   ✅ Demo offer created")
	}

	return nil
}
