package flashdeck

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// RunMigrations creates the schema at startup. Creation is idempotent
// so restarts against an existing database are safe.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	db.RegisterModel((*FlashcardSetTag)(nil))

	models := []any{
		(*User)(nil),
		(*FlashcardSet)(nil),
		(*Flashcard)(nil),
		(*Tag)(nil),
		(*FlashcardSetTag)(nil),
		(*FriendRequest)(nil),
		(*Friend)(nil),
		(*FavouriteSet)(nil),
		(*SetView)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	// Uniqueness is enforced case insensitively. The bun unique tags on
	// username/email are exact-match; these indexes are the real guard.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (lower(username))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_friends_pair ON friends (user_id_1, user_id_2)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_favourites_pair ON favourite_sets (user_id, set_id)`,
		`CREATE INDEX IF NOT EXISTS idx_flashcards_set ON flashcards (set_id)`,
		`CREATE INDEX IF NOT EXISTS idx_set_views_set ON set_views (set_id)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_receiver ON friend_requests (receiver_id, status)`,
	}

	for _, ddl := range indexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
