package flashdeck

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing these invalidates every stored hash, so
// treat them as part of the credential format.
const (
	argonTime    = 4
	argonMemory  = 64 * 1024
	argonThreads = 8
	argonKeyLen  = 32
	saltLen      = 32
)

// Hasher derives and verifies password hashes using Argon2id over
// password+pepper with a per-credential random salt. Hash and salt are
// stored base64 encoded.
type Hasher struct {
	pepper string
}

// NewHasher creates a Hasher with the process-wide pepper
func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: pepper}
}

// HashPassword will generate a salted password hash
func (h *Hasher) HashPassword(password string) (string, string, error) {
	if password == "" {
		return "", "", ErrNoEmptyString
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}

	key := h.deriveKey(password, salt)
	return base64.StdEncoding.EncodeToString(key),
		base64.StdEncoding.EncodeToString(salt),
		nil
}

// ComparePasswordAndHash will validate the given cleartext password
// matches the stored hash. The comparison is constant time.
func (h *Hasher) ComparePasswordAndHash(password, hash, salt string) error {
	if password == "" {
		return ErrNoEmptyString
	}

	storedKey, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return ErrMismatchedHashAndPassword
	}

	storedSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return ErrMismatchedHashAndPassword
	}

	key := h.deriveKey(password, storedSalt)
	if subtle.ConstantTimeCompare(key, storedKey) != 1 {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

func (h *Hasher) deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password+h.pepper), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// RandomPassword is a temporary password, used when an admin resets an
// account. The cleartext is returned so it can be handed to the user.
func RandomPassword() string {
	return uuid.NewString()
}
