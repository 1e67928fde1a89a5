package flashdeck

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ErrSetNotFound is returned when a flashcard set does not exist
var ErrSetNotFound = errors.New("flashcard set not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRecordNotFound)

// FlashcardSets is the flashcard-set repository
type FlashcardSets interface {
	GetByID(ctx context.Context, id int64) (*FlashcardSet, error)
	ListByOwner(ctx context.Context, userID int64) ([]*FlashcardSet, error)
	ListVisible(ctx context.Context, viewerID int64, friendIDs []int64) ([]*FlashcardSet, error)
	ListPublic(ctx context.Context) ([]*FlashcardSet, error)

	Create(ctx context.Context, record *FlashcardSet) (*FlashcardSet, error)
	Update(ctx context.Context, record *FlashcardSet) (*FlashcardSet, error)
	Delete(ctx context.Context, id int64) error
	DeleteTx(ctx context.Context, tx bun.IDB, id int64) error

	CountPerOwner(ctx context.Context) ([]*OwnerSetCount, error)

	Favourite(ctx context.Context, userID, setID int64) error
	Unfavourite(ctx context.Context, userID, setID int64) error
	ListFavourites(ctx context.Context, userID int64) ([]*FlashcardSet, error)
}

type flashcardSets struct {
	db *bun.DB
}

var _ FlashcardSets = (*flashcardSets)(nil)

func NewFlashcardSetsRepository(db *bun.DB) FlashcardSets {
	return &flashcardSets{db: db}
}

func (r *flashcardSets) GetByID(ctx context.Context, id int64) (*FlashcardSet, error) {
	record := &FlashcardSet{}
	err := r.db.NewSelect().Model(record).
		Relation("User").
		Relation("Flashcards").
		Relation("Tags").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "set lookup failed")
	}
	return record, nil
}

func (r *flashcardSets) ListByOwner(ctx context.Context, userID int64) ([]*FlashcardSet, error) {
	var records []*FlashcardSet
	err := r.db.NewSelect().Model(&records).
		Relation("Tags").
		Where("?TableAlias.user_id = ?", userID).
		Order("fset.updated_at DESC").
		Scan(ctx)
	return records, err
}

// ListVisible returns every set the viewer may see: public sets, their
// own sets, and friends-only sets owned by an accepted friend.
func (r *flashcardSets) ListVisible(ctx context.Context, viewerID int64, friendIDs []int64) ([]*FlashcardSet, error) {
	var records []*FlashcardSet
	q := r.db.NewSelect().Model(&records).
		Relation("User").
		Relation("Tags")

	q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("?TableAlias.visibility = ?", VisibilityPublic).
			WhereOr("?TableAlias.user_id = ?", viewerID)
		if len(friendIDs) > 0 {
			q = q.WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("?TableAlias.visibility = ?", VisibilityFriends).
					Where("?TableAlias.user_id IN (?)", bun.In(friendIDs))
			})
		}
		return q
	})

	err := q.Order("fset.updated_at DESC").Scan(ctx)
	return records, err
}

func (r *flashcardSets) ListPublic(ctx context.Context) ([]*FlashcardSet, error) {
	var records []*FlashcardSet
	err := r.db.NewSelect().Model(&records).
		Relation("User").
		Relation("Tags").
		Where("?TableAlias.visibility = ?", VisibilityPublic).
		Order("fset.updated_at DESC").
		Scan(ctx)
	return records, err
}

func (r *flashcardSets) Create(ctx context.Context, record *FlashcardSet) (*FlashcardSet, error) {
	if record.Visibility == "" {
		record.Visibility = VisibilityPrivate
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *flashcardSets) Update(ctx context.Context, record *FlashcardSet) (*FlashcardSet, error) {
	now := time.Now()
	record.UpdatedAt = &now
	res, err := r.db.NewUpdate().Model(record).
		WherePK().
		OmitZero().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res, ErrSetNotFound); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *flashcardSets) Delete(ctx context.Context, id int64) error {
	return r.DeleteTx(ctx, r.db, id)
}

// DeleteTx removes the set and its dependents. Caller is expected to
// run this inside a transaction.
func (r *flashcardSets) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	if _, err := tx.NewDelete().Model((*Flashcard)(nil)).
		Where("?TableAlias.set_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := tx.NewDelete().Model((*FavouriteSet)(nil)).
		Where("?TableAlias.set_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := tx.NewDelete().Model((*SetView)(nil)).
		Where("?TableAlias.set_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}
	if _, err := tx.NewDelete().Model((*FlashcardSetTag)(nil)).
		Where("?TableAlias.flashcard_set_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}

	res, err := tx.NewDelete().Model((*FlashcardSet)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrSetNotFound)
}

// OwnerSetCount is the per-user set tally for the admin overview
type OwnerSetCount struct {
	UserID   int64 `bun:"user_id" json:"user_id"`
	SetCount int64 `bun:"set_count" json:"set_count"`
}

func (r *flashcardSets) CountPerOwner(ctx context.Context) ([]*OwnerSetCount, error) {
	var counts []*OwnerSetCount
	err := r.db.NewSelect().Model((*FlashcardSet)(nil)).
		ColumnExpr("fset.user_id AS user_id").
		ColumnExpr("count(*) AS set_count").
		GroupExpr("fset.user_id").
		Scan(ctx, &counts)
	return counts, err
}

func (r *flashcardSets) Favourite(ctx context.Context, userID, setID int64) error {
	record := &FavouriteSet{UserID: userID, SetID: setID}
	_, err := r.db.NewInsert().Model(record).
		On("CONFLICT (user_id, set_id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *flashcardSets) Unfavourite(ctx context.Context, userID, setID int64) error {
	_, err := r.db.NewDelete().Model((*FavouriteSet)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.set_id = ?", setID).
		Exec(ctx)
	return err
}

func (r *flashcardSets) ListFavourites(ctx context.Context, userID int64) ([]*FlashcardSet, error) {
	var records []*FlashcardSet
	err := r.db.NewSelect().Model(&records).
		Relation("User").
		Join("JOIN favourite_sets AS fav ON fav.set_id = fset.id").
		Where("fav.user_id = ?", userID).
		Order("fav.created_at DESC").
		Scan(ctx)
	return records, err
}
