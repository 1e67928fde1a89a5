package flashdeck

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	Sets() FlashcardSets
	Flashcards() Flashcards
	Friends() Friends
	Views() SetViews
}

type mngr struct {
	db         *bun.DB
	users      Users
	sets       FlashcardSets
	flashcards Flashcards
	friends    Friends
	views      SetViews
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:         db,
		users:      NewUsersRepository(db),
		sets:       NewFlashcardSetsRepository(db),
		flashcards: NewFlashcardsRepository(db),
		friends:    NewFriendsRepository(db),
		views:      NewSetViewsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}
	if m.sets == nil {
		return errors.New("repository sets should be initialized")
	}
	if m.flashcards == nil {
		return errors.New("repository flashcards should be initialized")
	}
	if m.friends == nil {
		return errors.New("repository friends should be initialized")
	}
	if m.views == nil {
		return errors.New("repository views should be initialized")
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Sets() FlashcardSets {
	return m.sets
}

func (m mngr) Flashcards() Flashcards {
	return m.flashcards
}

func (m mngr) Friends() Friends {
	return m.friends
}

func (m mngr) Views() SetViews {
	return m.views
}
