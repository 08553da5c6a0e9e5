package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidPasswordHash is returned for hashes not in PHC argon2id form.
	ErrInvalidPasswordHash = errors.New("application: invalid password hash format")
	// ErrIncompatiblePasswordVersion is returned for hashes from another argon2 version.
	ErrIncompatiblePasswordVersion = errors.New("application: incompatible password hash version")
)

// Argon2idParams tunes password hashing cost.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams is used by HashPassword.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword hashes password with DefaultArgon2idParams.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fieldError("password", "password is required")
	}
	return CreatePasswordHash(password, DefaultArgon2idParams)
}

// CreatePasswordHash returns password hashed as
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	encoded := encodedPassword{
		params: params,
		salt:   salt,
		key:    argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength),
	}
	return encoded.String(), nil
}

// VerifyPassword reports ErrInvalidCredentials when password does not match
// hashedPassword.
func VerifyPassword(hashedPassword, password string) error {
	encoded, err := parseEncodedPassword(hashedPassword)
	if err != nil {
		return err
	}
	p := encoded.params
	candidate := argon2.IDKey([]byte(password), encoded.salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	if subtle.ConstantTimeCompare(encoded.key, candidate) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

type encodedPassword struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (e encodedPassword) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		e.params.Memory, e.params.Iterations, e.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(e.salt),
		base64.RawStdEncoding.EncodeToString(e.key),
	)
}

func parseEncodedPassword(value string) (encodedPassword, error) {
	parts := strings.Split(strings.TrimSpace(value), "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return encodedPassword{}, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return encodedPassword{}, ErrInvalidPasswordHash
	}
	if version != argon2.Version {
		return encodedPassword{}, ErrIncompatiblePasswordVersion
	}

	var encoded encodedPassword
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &encoded.params.Memory, &encoded.params.Iterations, &encoded.params.Parallelism); err != nil {
		return encodedPassword{}, ErrInvalidPasswordHash
	}

	var err error
	if encoded.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return encodedPassword{}, ErrInvalidPasswordHash
	}
	if encoded.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(encoded.key) == 0 {
		return encodedPassword{}, ErrInvalidPasswordHash
	}
	encoded.params.SaltLength = uint32(len(encoded.salt))
	encoded.params.KeyLength = uint32(len(encoded.key))
	return encoded, nil
}
