package hashing

import (
	"github.com/roastery-dev/roastery/pkg/errx"
	"golang.org/x/crypto/bcrypt"
)

// BcryptService implements Service using bcrypt. The cost factor is fixed at
// construction; raising it later only affects newly created digests.
type BcryptService struct {
	cost int
}

// NewBcryptService creates a bcrypt hasher with the given cost. A cost
// outside bcrypt's supported range falls back to the library default.
func NewBcryptService(cost int) *BcryptService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptService{cost: cost}
}

// Hash derives a salted bcrypt digest from the plaintext.
func (s *BcryptService) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", errx.Wrap(err, "failed to hash credential", errx.TypeInternal)
	}
	return string(digest), nil
}

// Compare reports whether the plaintext matches the digest. Malformed
// digests compare false.
func (s *BcryptService) Compare(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
