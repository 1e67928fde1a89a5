package flashdeck

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ErrFriendRequestNotFound is returned when a request does not exist
var ErrFriendRequestNotFound = errors.New("friend request not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRecordNotFound)

// ErrAlreadyFriends rejects a request between existing friends
var ErrAlreadyFriends = errors.New("users are already friends", errors.CategoryConflict)

// ErrDuplicateRequest rejects a second pending request for the same pair
var ErrDuplicateRequest = errors.New("a pending request already exists", errors.CategoryConflict)

// Friends is the friendship repository
type Friends interface {
	GetRequest(ctx context.Context, id int64) (*FriendRequest, error)
	PendingFor(ctx context.Context, receiverID int64) ([]*FriendRequest, error)
	SentBy(ctx context.Context, senderID int64) ([]*FriendRequest, error)
	PendingBetween(ctx context.Context, a, b int64) (*FriendRequest, error)

	CreateRequest(ctx context.Context, senderID, receiverID int64) (*FriendRequest, error)
	AcceptTx(ctx context.Context, tx bun.IDB, request *FriendRequest) error
	Decline(ctx context.Context, request *FriendRequest) error
	DeleteRequest(ctx context.Context, id int64) error

	AreFriends(ctx context.Context, a, b int64) (bool, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)
	ListFriends(ctx context.Context, userID int64) ([]*User, error)
	RemoveFriend(ctx context.Context, a, b int64) error
}

type friends struct {
	db *bun.DB
}

var _ Friends = (*friends)(nil)

func NewFriendsRepository(db *bun.DB) Friends {
	return &friends{db: db}
}

func (r *friends) GetRequest(ctx context.Context, id int64) (*FriendRequest, error) {
	record := &FriendRequest{}
	err := r.db.NewSelect().Model(record).
		Relation("Sender").
		Relation("Receiver").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "friend request lookup failed")
	}
	return record, nil
}

func (r *friends) PendingFor(ctx context.Context, receiverID int64) ([]*FriendRequest, error) {
	var records []*FriendRequest
	err := r.db.NewSelect().Model(&records).
		Relation("Sender").
		Where("?TableAlias.receiver_id = ?", receiverID).
		Where("?TableAlias.status = ?", RequestPending).
		Order("freq.created_at DESC").
		Scan(ctx)
	return records, err
}

func (r *friends) SentBy(ctx context.Context, senderID int64) ([]*FriendRequest, error) {
	var records []*FriendRequest
	err := r.db.NewSelect().Model(&records).
		Relation("Receiver").
		Where("?TableAlias.sender_id = ?", senderID).
		Where("?TableAlias.status = ?", RequestPending).
		Order("freq.created_at DESC").
		Scan(ctx)
	return records, err
}

// PendingBetween finds a pending request in either direction
func (r *friends) PendingBetween(ctx context.Context, a, b int64) (*FriendRequest, error) {
	record := &FriendRequest{}
	err := r.db.NewSelect().Model(record).
		Where("?TableAlias.status = ?", RequestPending).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("?TableAlias.sender_id = ?", a).
					Where("?TableAlias.receiver_id = ?", b)
			}).WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("?TableAlias.sender_id = ?", b).
					Where("?TableAlias.receiver_id = ?", a)
			})
		}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "friend request lookup failed")
	}
	return record, nil
}

func (r *friends) CreateRequest(ctx context.Context, senderID, receiverID int64) (*FriendRequest, error) {
	already, err := r.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyFriends
	}

	if _, err := r.PendingBetween(ctx, senderID, receiverID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, ErrFriendRequestNotFound) {
		return nil, err
	}

	record := &FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     RequestPending,
	}
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// AcceptTx closes the request and records the friendship atomically
func (r *friends) AcceptTx(ctx context.Context, tx bun.IDB, request *FriendRequest) error {
	now := time.Now()
	res, err := tx.NewUpdate().Model((*FriendRequest)(nil)).
		Set("status = ?", RequestAccepted).
		Set("responded_at = ?", now).
		Where("id = ?", request.ID).
		Where("status = ?", RequestPending).
		Exec(ctx)
	if err != nil {
		return err
	}
	if err := requireAffected(res, ErrFriendRequestClosed); err != nil {
		return err
	}

	id1, id2 := OrderedPair(request.SenderID, request.ReceiverID)
	friendship := &Friend{UserID1: id1, UserID2: id2}
	_, err = tx.NewInsert().Model(friendship).
		On("CONFLICT (user_id_1, user_id_2) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *friends) Decline(ctx context.Context, request *FriendRequest) error {
	now := time.Now()
	res, err := r.db.NewUpdate().Model((*FriendRequest)(nil)).
		Set("status = ?", RequestDeclined).
		Set("responded_at = ?", now).
		Where("id = ?", request.ID).
		Where("status = ?", RequestPending).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrFriendRequestClosed)
}

// DeleteRequest removes a pending request, used by the sender to cancel
func (r *friends) DeleteRequest(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().Model((*FriendRequest)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.status = ?", RequestPending).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrFriendRequestNotFound)
}

func (r *friends) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	id1, id2 := OrderedPair(a, b)
	return r.db.NewSelect().Model((*Friend)(nil)).
		Where("?TableAlias.user_id_1 = ?", id1).
		Where("?TableAlias.user_id_2 = ?", id2).
		Exists(ctx)
}

func (r *friends) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.NewSelect().Model((*Friend)(nil)).
		ColumnExpr("CASE WHEN frn.user_id_1 = ? THEN frn.user_id_2 ELSE frn.user_id_1 END", userID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.user_id_1 = ?", userID).
				WhereOr("?TableAlias.user_id_2 = ?", userID)
		}).
		Scan(ctx, &ids)
	return ids, err
}

func (r *friends) ListFriends(ctx context.Context, userID int64) ([]*User, error) {
	ids, err := r.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*User{}, nil
	}

	var records []*User
	err = r.db.NewSelect().Model(&records).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Order("usr.username ASC").
		Scan(ctx)
	return records, err
}

func (r *friends) RemoveFriend(ctx context.Context, a, b int64) error {
	id1, id2 := OrderedPair(a, b)
	res, err := r.db.NewDelete().Model((*Friend)(nil)).
		Where("?TableAlias.user_id_1 = ?", id1).
		Where("?TableAlias.user_id_2 = ?", id2).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrFriendRequestNotFound)
}
