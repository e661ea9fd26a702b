package password

import "errors"

var (
	// ErrMalformedDigest is wrapped by Verify when the stored digest cannot be parsed.
	ErrMalformedDigest = errors.New("malformed password digest")
	// ErrEmptyPassword is returned by Hash for an empty plaintext.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Hasher is a one-way password hashing primitive.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

var (
	_ Hasher = (*Argon2)(nil)
	_ Hasher = (*Bcrypt)(nil)
)
