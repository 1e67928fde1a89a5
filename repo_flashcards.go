package flashdeck

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ErrFlashcardNotFound is returned when a card does not exist
var ErrFlashcardNotFound = errors.New("flashcard not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRecordNotFound)

// Flashcards is the flashcard repository
type Flashcards interface {
	GetByID(ctx context.Context, id int64) (*Flashcard, error)
	ListBySet(ctx context.Context, setID int64) ([]*Flashcard, error)

	Create(ctx context.Context, record *Flashcard) (*Flashcard, error)
	CreateManyTx(ctx context.Context, tx bun.IDB, records []*Flashcard) error
	Update(ctx context.Context, record *Flashcard) (*Flashcard, error)
	Delete(ctx context.Context, id int64) error
}

type flashcards struct {
	db *bun.DB
}

var _ Flashcards = (*flashcards)(nil)

func NewFlashcardsRepository(db *bun.DB) Flashcards {
	return &flashcards{db: db}
}

func (r *flashcards) GetByID(ctx context.Context, id int64) (*Flashcard, error) {
	record := &Flashcard{}
	err := r.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlashcardNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "flashcard lookup failed")
	}
	return record, nil
}

func (r *flashcards) ListBySet(ctx context.Context, setID int64) ([]*Flashcard, error) {
	var records []*Flashcard
	err := r.db.NewSelect().Model(&records).
		Where("?TableAlias.set_id = ?", setID).
		Order("fc.id ASC").
		Scan(ctx)
	return records, err
}

func (r *flashcards) Create(ctx context.Context, record *Flashcard) (*Flashcard, error) {
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateManyTx inserts a batch of cards, used when a set is created
// with its cards in one request.
func (r *flashcards) CreateManyTx(ctx context.Context, tx bun.IDB, records []*Flashcard) error {
	if len(records) == 0 {
		return nil
	}
	_, err := tx.NewInsert().Model(&records).Exec(ctx)
	return err
}

func (r *flashcards) Update(ctx context.Context, record *Flashcard) (*Flashcard, error) {
	now := time.Now()
	record.UpdatedAt = &now
	res, err := r.db.NewUpdate().Model(record).
		WherePK().
		OmitZero().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res, ErrFlashcardNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *flashcards) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().Model((*Flashcard)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrFlashcardNotFound)
}
