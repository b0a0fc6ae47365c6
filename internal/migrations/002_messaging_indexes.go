package migrations

import (
	"gorm.io/gorm"
)

// Migration002MessagingIndexes adds indexes for the messaging hot
// paths: history pagination, unread recounts, and the offer listing.
func Migration002MessagingIndexes() Migration {
	return Migration{
		ID:   "002_messaging_indexes",
		Name: "Add indexes for message pagination and offer listing",
		Up: func(db *gorm.DB) error {
			// History pages: WHERE chat_id = ? ORDER BY created_at, id
			idx1 := `
				CREATE INDEX IF NOT EXISTS idx_messages_chat_created
				ON messages (chat_id, created_at)
			`
			if err := db.Exec(idx1).Error; err != nil {
				return err
			}

			// Unread recompute: WHERE chat_id = ? AND is_read = false
			idx2 := `
				CREATE INDEX IF NOT EXISTS idx_messages_chat_unread
				ON messages (chat_id, is_read)
			`
			if err := db.Exec(idx2).Error; err != nil {
				return err
			}

			// Offer inbox: WHERE advertiser_id = ? OR blogger_id = ? ORDER BY created_at DESC
			idx3 := `
				CREATE INDEX IF NOT EXISTS idx_offers_blogger_created
				ON offers (blogger_id, created_at DESC)
			`
			if err := db.Exec(idx3).Error; err != nil {
				return err
			}
			idx4 := `
				CREATE INDEX IF NOT EXISTS idx_offers_advertiser_created
				ON offers (advertiser_id, created_at DESC)
			`
			return db.Exec(idx4).Error
		},
		Down: func(db *gorm.DB) error {
			for _, name := range []string{
				"idx_messages_chat_created",
				"idx_messages_chat_unread",
				"idx_offers_blogger_created",
				"idx_offers_advertiser_created",
			} {
				if err := db.Exec("DROP INDEX IF EXISTS " + name).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}
