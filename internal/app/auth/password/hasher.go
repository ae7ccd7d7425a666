package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnsupported is returned when a password exceeds what the hash can represent.
var ErrUnsupported = errors.New("password not supported by hasher")

// bcrypt ignores everything past this many bytes.
const bcryptMaxLen = 72

type Hasher interface {
	Hash(plain string) (string, error)
	// Compare reports whether plain matches hash. A mismatch is (false, nil).
	Compare(plain, hash string) (bool, error)
}

type BcryptHasher struct {
	cost int
}

func NewBcrypt(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (b *BcryptHasher) Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: longer than 72 bytes", ErrUnsupported)
	}
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b *BcryptHasher) Compare(plain, hash string) (bool, error) {
	// Hash never accepts longer input, so a longer candidate cannot match.
	if len(plain) > bcryptMaxLen {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Argon2idHasher struct {
	params *argon2id.Params
}

func NewArgon2id() *Argon2idHasher {
	return &Argon2idHasher{params: argonParams}
}

func (a *Argon2idHasher) Hash(plain string) (string, error) {
	return argon2id.CreateHash(plain, a.params)
}

func (a *Argon2idHasher) Compare(plain, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(plain, hash)
}

// New picks the hasher for new passwords by name.
func New(name string, bcryptCost int) (Hasher, error) {
	switch strings.ToLower(name) {
	case "", "bcrypt":
		return NewBcrypt(bcryptCost), nil
	case "argon2id":
		return NewArgon2id(), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
}

// Auto hashes with primary and verifies against whichever scheme produced
// the stored hash, so switching PASSWORD_HASHER keeps old accounts working.
type Auto struct {
	primary Hasher
	bcrypt  Hasher
	argon   Hasher
}

func NewAuto(primary Hasher, bcryptCost int) *Auto {
	return &Auto{primary: primary, bcrypt: NewBcrypt(bcryptCost), argon: NewArgon2id()}
}

func (a *Auto) Hash(plain string) (string, error) {
	return a.primary.Hash(plain)
}

func (a *Auto) Compare(plain, hash string) (bool, error) {
	if strings.HasPrefix(hash, "$argon2id$") {
		return a.argon.Compare(plain, hash)
	}
	return a.bcrypt.Compare(plain, hash)
}
