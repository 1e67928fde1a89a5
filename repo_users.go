package flashdeck

import (
	"context"
	"database/sql"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the user repository
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*User, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Update(ctx context.Context, record *User) (*User, error)
	Delete(ctx context.Context, id int64) error

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error

	ResetPassword(ctx context.Context, id int64, passwordHash, salt string) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrapUserNotFound(err)
	}
	return record, nil
}

// GetByIdentifier resolves a username or email, case insensitively.
// Email-shaped identifiers try the email column first.
func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, ErrIdentityNotFound
	}

	columns := []string{"username"}
	if isEmail(trimmed) {
		columns = []string{"email", "username"}
	}

	for _, column := range columns {
		record := &User{}
		err := a.db.NewSelect().Model(record).
			Where("lower(?TableAlias."+column+") = lower(?)", trimmed).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, errors.Wrap(err, errors.CategoryInternal, "user lookup failed")
		}
		return record, nil
	}

	return nil, ErrIdentityNotFound
}

func (a *users) UsernameExists(ctx context.Context, username string) (bool, error) {
	return a.db.NewSelect().Model((*User)(nil)).
		Where("lower(?TableAlias.username) = lower(?)", strings.TrimSpace(username)).
		Exists(ctx)
}

func (a *users) EmailExists(ctx context.Context, email string) (bool, error) {
	return a.db.NewSelect().Model((*User)(nil)).
		Where("lower(?TableAlias.email) = lower(?)", strings.TrimSpace(email)).
		Exists(ctx)
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().Model(&records).
		Order("usr.created_at ASC").
		Scan(ctx)
	return records, err
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

func (a *users) Update(ctx context.Context, record *User) (*User, error) {
	now := time.Now()
	record.UpdatedAt = &now
	_, err := a.db.NewUpdate().Model(record).
		WherePK().
		OmitZero().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return a.GetByID(ctx, record.ID)
}

func (a *users) Delete(ctx context.Context, id int64) error {
	res, err := a.db.NewDelete().Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrIdentityNotFound)
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	// NOTE: updating via the ORM wont reset login_attempt_at and
	// login_attempts to their zero values, so this stays raw SQL.
	loggedInAt := time.Now()
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	now := time.Now()
	_, err := a.db.NewUpdate().Model((*User)(nil)).
		Set("login_attempts = ?", user.LoginAttempts+1).
		Set("login_attempt_at = ?", now).
		Where("id = ?", user.ID).
		Exec(ctx)
	return err
}

func (a *users) ResetPassword(ctx context.Context, id int64, passwordHash, salt string) error {
	res, err := a.db.NewUpdate().Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("salt = ?", salt).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrIdentityNotFound)
}

func (a *users) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	res, err := a.db.NewUpdate().Model((*User)(nil)).
		Set("is_admin = ?", isAdmin).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrIdentityNotFound)
}

func wrapUserNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrIdentityNotFound
	}
	return errors.Wrap(err, errors.CategoryInternal, "user lookup failed")
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
