package flashdeck

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the user model. Hash and salt are stored base64 encoded,
// side by side, as independent columns.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	Salt           string     `bun:"salt,notnull" json:"-"`
	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Bio            string     `bun:"bio" json:"bio,omitempty"`
	PhoneNumber    string     `bun:"phone_number" json:"phone_number,omitempty"`
	ProfilePicture string     `bun:"profile_picture_url" json:"profile_picture_url,omitempty"`
	IsAdmin        bool       `bun:"is_admin,notnull,default:false" json:"is_admin,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Role maps the stored admin flag onto a role
func (u *User) Role() UserRole {
	return RoleForAdminFlag(u.IsAdmin)
}

// SetVisibility controls who can see a flashcard set
type SetVisibility string

const (
	// VisibilityPublic is visible to everyone, signed in or not
	VisibilityPublic SetVisibility = "public"
	// VisibilityFriends is visible to the owner's accepted friends
	VisibilityFriends SetVisibility = "friends"
	// VisibilityPrivate is visible to the owner only
	VisibilityPrivate SetVisibility = "private"
)

// Valid reports whether the visibility is one of the known values
func (v SetVisibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	default:
		return false
	}
}

// FlashcardSet is a named collection of flashcards owned by a user
type FlashcardSet struct {
	bun.BaseModel `bun:"table:flashcard_sets,alias:fset"`
	ID            int64         `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64         `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User         `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Title         string        `bun:"title,notnull" json:"title,omitempty"`
	Description   string        `bun:"description" json:"description,omitempty"`
	Visibility    SetVisibility `bun:"visibility,notnull,default:'private'" json:"visibility,omitempty"`
	CoverImageURL string        `bun:"cover_image_url" json:"cover_image_url,omitempty"`
	Flashcards    []*Flashcard  `bun:"rel:has-many,join:id=set_id" json:"flashcards,omitempty"`
	Tags          []*Tag        `bun:"m2m:flashcard_set_tags,join:FlashcardSet=Tag" json:"tags,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Flashcard is a single term/definition pair within a set
type Flashcard struct {
	bun.BaseModel   `bun:"table:flashcards,alias:fc"`
	ID              int64         `bun:"id,pk,autoincrement" json:"id,omitempty"`
	SetID           int64         `bun:"set_id,notnull" json:"set_id,omitempty"`
	Set             *FlashcardSet `bun:"rel:belongs-to,join:set_id=id" json:"-"`
	Term            string        `bun:"term,notnull" json:"term,omitempty"`
	Definition      string        `bun:"definition,notnull" json:"definition,omitempty"`
	ImageURL        string        `bun:"image_url" json:"image_url,omitempty"`
	ExampleSentence string        `bun:"example_sentence" json:"example_sentence,omitempty"`
	CreatedAt       *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Tag labels flashcard sets for discovery
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:tag"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name          string `bun:"name,notnull,unique" json:"name,omitempty"`
}

// FlashcardSetTag is the m2m join row between sets and tags
type FlashcardSetTag struct {
	bun.BaseModel  `bun:"table:flashcard_set_tags,alias:fst"`
	FlashcardSetID int64         `bun:"flashcard_set_id,pk" json:"flashcard_set_id"`
	FlashcardSet   *FlashcardSet `bun:"rel:belongs-to,join:flashcard_set_id=id" json:"-"`
	TagID          int64         `bun:"tag_id,pk" json:"tag_id"`
	Tag            *Tag          `bun:"rel:belongs-to,join:tag_id=id" json:"-"`
}

// FriendRequestStatus is the lifecycle state of a friend request
type FriendRequestStatus string

const (
	// RequestPending is awaiting a response from the receiver
	RequestPending FriendRequestStatus = "pending"
	// RequestAccepted closed the request and created a friendship
	RequestAccepted FriendRequestStatus = "accepted"
	// RequestDeclined closed the request without a friendship
	RequestDeclined FriendRequestStatus = "declined"
)

// FriendRequest is a pending, accepted, or declined invitation
type FriendRequest struct {
	bun.BaseModel `bun:"table:friend_requests,alias:freq"`
	ID            int64               `bun:"id,pk,autoincrement" json:"id,omitempty"`
	SenderID      int64               `bun:"sender_id,notnull" json:"sender_id,omitempty"`
	Sender        *User               `bun:"rel:belongs-to,join:sender_id=id" json:"sender,omitempty"`
	ReceiverID    int64               `bun:"receiver_id,notnull" json:"receiver_id,omitempty"`
	Receiver      *User               `bun:"rel:belongs-to,join:receiver_id=id" json:"receiver,omitempty"`
	Status        FriendRequestStatus `bun:"status,notnull,default:'pending'" json:"status,omitempty"`
	CreatedAt     *time.Time          `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	RespondedAt   *time.Time          `bun:"responded_at,nullzero" json:"responded_at,omitempty"`
}

// Friend is an established friendship. Rows are stored with
// UserID1 < UserID2 so a pair appears exactly once.
type Friend struct {
	bun.BaseModel `bun:"table:friends,alias:frn"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID1       int64      `bun:"user_id_1,notnull" json:"user_id_1,omitempty"`
	UserID2       int64      `bun:"user_id_2,notnull" json:"user_id_2,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// OrderedPair normalizes two user ids into storage order
func OrderedPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// FavouriteSet marks a set as favourited by a user
type FavouriteSet struct {
	bun.BaseModel `bun:"table:favourite_sets,alias:fav"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id,omitempty"`
	SetID         int64      `bun:"set_id,notnull" json:"set_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// SetView records a single view of a set. UserID is nil for anonymous
// viewers; the IP is stored hashed, never raw.
type SetView struct {
	bun.BaseModel `bun:"table:set_views,alias:sv"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	SetID         int64      `bun:"set_id,notnull" json:"set_id,omitempty"`
	UserID        *int64     `bun:"user_id" json:"user_id,omitempty"`
	ViewerIPHash  string     `bun:"viewer_ip_hash" json:"-"`
	ViewedAt      *time.Time `bun:"viewed_at,nullzero,default:current_timestamp" json:"viewed_at,omitempty"`
}
