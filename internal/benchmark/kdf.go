package benchmark

import (
	"crypto/rand"
	"fmt"
	"runtime"
)

// KDF is a password-hashing configuration under test.
type KDF interface {
	Label() string
	Derive(password, salt []byte) ([]byte, error)
}

// Input is the password and salt shared by every benchmark. It is never
// modified after NewInput returns.
type Input struct {
	Password []byte
	Salt     []byte
}

func NewInput(password string, saltLength int) (Input, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return Input{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	return Input{Password: []byte(password), Salt: salt}, nil
}

// Bind turns kdf into an Operation over in. Each call performs one complete
// derivation and discards the key.
func Bind(kdf KDF, in Input) Operation {
	return func() error {
		key, err := kdf.Derive(in.Password, in.Salt)
		runtime.KeepAlive(key)
		return err
	}
}
