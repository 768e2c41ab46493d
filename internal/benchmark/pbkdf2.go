package benchmark

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

type PBKDF2 struct {
	Iterations int
	KeyLength  int
	hashName   string
	newHash    func() hash.Hash
}

func NewPBKDF2(iterations, keyLength int, hashName string) (*PBKDF2, error) {
	var h func() hash.Hash
	switch hashName {
	case "sha1":
		h = sha1.New
	case "sha256":
		h = sha256.New
	case "sha512":
		h = sha512.New
	default:
		return nil, fmt.Errorf("%w: unknown pbkdf2 hash %q", ErrInvalidConfig, hashName)
	}
	return &PBKDF2{
		Iterations: iterations,
		KeyLength:  keyLength,
		hashName:   hashName,
		newHash:    h,
	}, nil
}

func (p *PBKDF2) Label() string {
	if p.hashName != "sha1" {
		return fmt.Sprintf("PBKDF2-%s: Iterations=%d,", p.hashName, p.Iterations)
	}
	return fmt.Sprintf("PBKDF2: Iterations=%d,", p.Iterations)
}

func (p *PBKDF2) Derive(password, salt []byte) ([]byte, error) {
	return pbkdf2.Key(password, salt, p.Iterations, p.KeyLength, p.newHash), nil
}
