package benchmark

import (
	"errors"
	"fmt"

	hargon2 "github.com/matthewhartstonge/argon2"
	dargon2 "github.com/tobischo/argon2"
	"github.com/user/kdfbench/internal/argon2ref"
	"golang.org/x/crypto/argon2"
)

var ErrUnsupportedVariant = errors.New("argon2 variant not supported by backend")

type Argon2Variant int

const (
	Argon2d Argon2Variant = iota
	Argon2i
	Argon2id
)

// Argon2Variants lists the addressing modes in benchmark order.
var Argon2Variants = []Argon2Variant{Argon2d, Argon2i, Argon2id}

func (v Argon2Variant) String() string {
	switch v {
	case Argon2d:
		return "Argon2d"
	case Argon2i:
		return "Argon2i"
	case Argon2id:
		return "Argon2id"
	default:
		return fmt.Sprintf("Argon2Variant(%d)", int(v))
	}
}

// Argon2Params are the cost parameters shared by every backend. Memory is in
// KiB.
type Argon2Params struct {
	Time      uint32
	Memory    uint32
	Lanes     uint8
	KeyLength uint32
}

// Argon2Backend is one Go implementation of Argon2. Core names the code that
// actually fills memory; backends sharing a core time the same algorithm
// code behind different APIs.
type Argon2Backend interface {
	Name() string
	Core() string
	Supports(v Argon2Variant) bool
	KDF(v Argon2Variant, p Argon2Params) (KDF, error)
}

const (
	coreXCrypto   = "x/crypto"
	coreReference = "argon2ref"
)

func getArgon2Backend(name string) (Argon2Backend, error) {
	switch name {
	case "tobischo":
		return tobischoBackend{}, nil
	case "reference":
		return referenceBackend{}, nil
	case "xcrypto":
		return xcryptoBackend{}, nil
	case "hartstonge":
		return hartstongeBackend{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown argon2 backend %q", ErrInvalidConfig, name)
	}
}

type argon2Func func(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte

// argon2KDF adapts the x/crypto style function signature shared by the
// tobischo and x/crypto packages.
type argon2KDF struct {
	label  string
	params Argon2Params
	derive argon2Func
}

func (k *argon2KDF) Label() string { return k.label }

func (k *argon2KDF) Derive(password, salt []byte) ([]byte, error) {
	p := k.params
	return k.derive(password, salt, p.Time, p.Memory, p.Lanes, p.KeyLength), nil
}

func argon2Label(backend string, v Argon2Variant) string {
	return fmt.Sprintf("%s %s:", backend, v)
}

func unsupported(backend string, v Argon2Variant) error {
	return fmt.Errorf("%w: %s does not implement %s", ErrUnsupportedVariant, backend, v)
}

// tobischoBackend is a fork of x/crypto/argon2 that also exports Argon2d.
// It shares the x/crypto memory filling code.
type tobischoBackend struct{}

func (tobischoBackend) Name() string { return "tobischo" }
func (tobischoBackend) Core() string { return coreXCrypto }

func (tobischoBackend) Supports(v Argon2Variant) bool {
	return v == Argon2d || v == Argon2i || v == Argon2id
}

func (b tobischoBackend) KDF(v Argon2Variant, p Argon2Params) (KDF, error) {
	var fn argon2Func
	switch v {
	case Argon2d:
		fn = dargon2.DKey
	case Argon2i:
		fn = dargon2.Key
	case Argon2id:
		fn = dargon2.IDKey
	default:
		return nil, unsupported(b.Name(), v)
	}
	return &argon2KDF{label: argon2Label(b.Name(), v), params: p, derive: fn}, nil
}

// referenceBackend is the in-tree RFC 9106 implementation. It is the one
// core here not derived from x/crypto/argon2.
type referenceBackend struct{}

func (referenceBackend) Name() string { return "reference" }
func (referenceBackend) Core() string { return coreReference }

func (referenceBackend) Supports(v Argon2Variant) bool {
	return v == Argon2d || v == Argon2i || v == Argon2id
}

func (b referenceBackend) KDF(v Argon2Variant, p Argon2Params) (KDF, error) {
	var mode argon2ref.Mode
	switch v {
	case Argon2d:
		mode = argon2ref.ModeD
	case Argon2i:
		mode = argon2ref.ModeI
	case Argon2id:
		mode = argon2ref.ModeID
	default:
		return nil, unsupported(b.Name(), v)
	}
	return &referenceKDF{
		label:  argon2Label(b.Name(), v),
		params: argon2ref.Params{
			Mode:      mode,
			Time:      p.Time,
			Memory:    p.Memory,
			Lanes:     p.Lanes,
			KeyLength: p.KeyLength,
		},
	}, nil
}

type referenceKDF struct {
	label  string
	params argon2ref.Params
}

func (k *referenceKDF) Label() string { return k.label }

func (k *referenceKDF) Derive(password, salt []byte) ([]byte, error) {
	return argon2ref.Key(password, salt, k.params)
}

type xcryptoBackend struct{}

func (xcryptoBackend) Name() string { return "xcrypto" }
func (xcryptoBackend) Core() string { return coreXCrypto }

func (xcryptoBackend) Supports(v Argon2Variant) bool {
	return v == Argon2i || v == Argon2id
}

func (b xcryptoBackend) KDF(v Argon2Variant, p Argon2Params) (KDF, error) {
	var fn argon2Func
	switch v {
	case Argon2i:
		fn = argon2.Key
	case Argon2id:
		fn = argon2.IDKey
	default:
		return nil, unsupported(b.Name(), v)
	}
	return &argon2KDF{label: argon2Label(b.Name(), v), params: p, derive: fn}, nil
}

// hartstongeBackend drives a per-call configuration object. The library hashes
// through x/crypto/argon2, so next to xcrypto it shows what the wrapper's own
// parameter handling costs.
type hartstongeBackend struct{}

func (hartstongeBackend) Name() string { return "hartstonge" }
func (hartstongeBackend) Core() string { return coreXCrypto }

func (hartstongeBackend) Supports(v Argon2Variant) bool {
	return v == Argon2i || v == Argon2id
}

func (b hartstongeBackend) KDF(v Argon2Variant, p Argon2Params) (KDF, error) {
	var mode hargon2.Mode
	switch v {
	case Argon2i:
		mode = hargon2.ModeArgon2i
	case Argon2id:
		mode = hargon2.ModeArgon2id
	default:
		return nil, unsupported(b.Name(), v)
	}
	return &hartstongeKDF{label: argon2Label(b.Name(), v), params: p, mode: mode}, nil
}

type hartstongeKDF struct {
	label  string
	params Argon2Params
	mode   hargon2.Mode
}

func (k *hartstongeKDF) Label() string { return k.label }

func (k *hartstongeKDF) Derive(password, salt []byte) ([]byte, error) {
	cfg := hargon2.Config{
		HashLength:  k.params.KeyLength,
		SaltLength:  uint32(len(salt)),
		TimeCost:    k.params.Time,
		MemoryCost:  k.params.Memory,
		Parallelism: k.params.Lanes,
		Mode:        k.mode,
		Version:     hargon2.Version13,
	}
	raw, err := cfg.Hash(password, salt)
	if err != nil {
		return nil, fmt.Errorf("hartstonge %s: %w", k.label, err)
	}
	return raw.Hash, nil
}
