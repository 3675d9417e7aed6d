package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

const (
	pbkdf2Iterations = 500000
	pbkdf2KeyLen     = 256
	saltLen          = 32
)

// HashPassword создаёт соль и pbkdf2-производную пароля для нового
// пользователя или смены пароля.
func HashPassword(password string) (domain.UserCredentials, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return domain.UserCredentials{}, fmt.Errorf("generate salt: %w", err)
	}
	return domain.UserCredentials{
		Digest: pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New),
		Salt:   salt,
	}, nil
}

// verifyPassword сверяет пароль с сохранёнными производными за
// постоянное время.
func verifyPassword(password string, creds domain.UserCredentials) bool {
	digest := pbkdf2.Key([]byte(password), creds.Salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return subtle.ConstantTimeCompare(digest, creds.Digest) == 1
}
