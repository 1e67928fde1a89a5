package flashdeck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/uptrace/bun"
)

// SetViewCount aggregates views for a single set
type SetViewCount struct {
	SetID      int64 `bun:"set_id" json:"set_id"`
	TotalViews int64 `bun:"total_views" json:"total_views"`
	UniqueView int64 `bun:"unique_viewers" json:"unique_viewers"`
}

// SetViews is the view analytics repository
type SetViews interface {
	Record(ctx context.Context, setID int64, userID *int64, viewerIP string) error
	CountForSet(ctx context.Context, setID int64) (*SetViewCount, error)
	CountsForOwner(ctx context.Context, ownerID int64) ([]*SetViewCount, error)
	TotalsPerOwner(ctx context.Context) ([]*OwnerViewCount, error)
	RecentForSet(ctx context.Context, setID int64, limit int) ([]*SetView, error)
}

type setViews struct {
	db *bun.DB
}

var _ SetViews = (*setViews)(nil)

func NewSetViewsRepository(db *bun.DB) SetViews {
	return &setViews{db: db}
}

// HashViewerIP hashes an address before storage. Raw addresses are
// never persisted.
func HashViewerIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

func (r *setViews) Record(ctx context.Context, setID int64, userID *int64, viewerIP string) error {
	now := time.Now()
	record := &SetView{
		SetID:        setID,
		UserID:       userID,
		ViewerIPHash: HashViewerIP(viewerIP),
		ViewedAt:     &now,
	}
	_, err := r.db.NewInsert().Model(record).Exec(ctx)
	return err
}

func (r *setViews) CountForSet(ctx context.Context, setID int64) (*SetViewCount, error) {
	count := &SetViewCount{}
	err := r.db.NewSelect().Model((*SetView)(nil)).
		ColumnExpr("sv.set_id AS set_id").
		ColumnExpr("count(*) AS total_views").
		ColumnExpr("count(DISTINCT sv.viewer_ip_hash) AS unique_viewers").
		Where("?TableAlias.set_id = ?", setID).
		GroupExpr("sv.set_id").
		Scan(ctx, count)
	if err != nil {
		// no rows means no views yet, not an error
		return &SetViewCount{SetID: setID}, nil
	}
	return count, nil
}

func (r *setViews) CountsForOwner(ctx context.Context, ownerID int64) ([]*SetViewCount, error) {
	var counts []*SetViewCount
	err := r.db.NewSelect().Model((*SetView)(nil)).
		ColumnExpr("sv.set_id AS set_id").
		ColumnExpr("count(*) AS total_views").
		ColumnExpr("count(DISTINCT sv.viewer_ip_hash) AS unique_viewers").
		Join("JOIN flashcard_sets AS fset ON fset.id = sv.set_id").
		Where("fset.user_id = ?", ownerID).
		GroupExpr("sv.set_id").
		Scan(ctx, &counts)
	return counts, err
}

// OwnerViewCount aggregates all views across a user's sets
type OwnerViewCount struct {
	UserID     int64 `bun:"user_id" json:"user_id"`
	TotalViews int64 `bun:"total_views" json:"total_views"`
}

func (r *setViews) TotalsPerOwner(ctx context.Context) ([]*OwnerViewCount, error) {
	var counts []*OwnerViewCount
	err := r.db.NewSelect().Model((*SetView)(nil)).
		ColumnExpr("fset.user_id AS user_id").
		ColumnExpr("count(*) AS total_views").
		Join("JOIN flashcard_sets AS fset ON fset.id = sv.set_id").
		GroupExpr("fset.user_id").
		Scan(ctx, &counts)
	return counts, err
}

func (r *setViews) RecentForSet(ctx context.Context, setID int64, limit int) ([]*SetView, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*SetView
	err := r.db.NewSelect().Model(&records).
		Where("?TableAlias.set_id = ?", setID).
		Order("sv.viewed_at DESC").
		Limit(limit).
		Scan(ctx)
	return records, err
}
