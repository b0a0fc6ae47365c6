package migrations

import (
	"gorm.io/gorm"
)

// Migration001ChatOfferUnique guarantees at most one chat per offer at
// the storage layer. AutoMigrate declares the same unique index, but
// this backfills older databases and cleans up any duplicates first so
// index creation cannot fail.
func Migration001ChatOfferUnique() Migration {
	return Migration{
		ID:   "001_chat_offer_unique",
		Name: "Deduplicate chats per offer and enforce unique offer_id",
		Up: func(db *gorm.DB) error {
			// 1. Keep the oldest chat per offer_id, detach the rest
			dedupeSQL := `
				UPDATE chats
				SET offer_id = NULL
				WHERE offer_id IS NOT NULL
				AND id NOT IN (
					SELECT keep_id FROM (
						SELECT MIN(id) AS keep_id FROM chats
						WHERE offer_id IS NOT NULL
						GROUP BY offer_id
					) keepers
				)
			`
			if err := db.Exec(dedupeSQL).Error; err != nil {
				return err
			}

			// 2. Unique index; NULL offer_id rows (direct chats) are unaffected
			idxSQL := `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_chats_offer_id
				ON chats (offer_id)
			`
			return db.Exec(idxSQL).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP INDEX IF EXISTS idx_chats_offer_id`).Error
		},
	}
}
