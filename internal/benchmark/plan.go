package benchmark

import (
	"errors"
	"fmt"
	"log/slog"
)

// Family is a group of related configurations printed under one separator.
type Family struct {
	Name   string
	Argon2 bool
	Cases  []KDF
}

// BuildPlan expands cfg into the ordered list of benchmark families: PBKDF2
// first, then one family per Argon2 backend. Variants a backend does not
// implement are skipped.
func BuildPlan(cfg Config, logger *slog.Logger) ([]Family, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var plan []Family

	if len(cfg.Iterations) > 0 {
		family := Family{Name: "PBKDF2"}
		for _, n := range cfg.Iterations {
			kdf, err := NewPBKDF2(n, cfg.KeyLength, cfg.PBKDF2Hash)
			if err != nil {
				return nil, err
			}
			family.Cases = append(family.Cases, kdf)
		}
		plan = append(plan, family)
	}

	params := Argon2Params{
		Time:      cfg.Argon2Time,
		Memory:    cfg.Argon2Memory,
		Lanes:     cfg.Argon2Lanes,
		KeyLength: uint32(cfg.KeyLength),
	}
	if len(cfg.Argon2Backends) > 0 {
		if err := validateArgon2Params(params); err != nil {
			return nil, err
		}
	}

	cores := make(map[Argon2Variant]map[string]bool)
	seen := make(map[string]bool)
	for _, name := range cfg.Argon2Backends {
		if seen[name] {
			continue
		}
		seen[name] = true

		backend, err := getArgon2Backend(name)
		if err != nil {
			return nil, err
		}

		family := Family{Name: backend.Name(), Argon2: true}
		for _, v := range Argon2Variants {
			kdf, err := backend.KDF(v, params)
			if errors.Is(err, ErrUnsupportedVariant) {
				logger.Info("skipping variant",
					slog.String("backend", backend.Name()),
					slog.String("variant", v.String()),
				)
				continue
			}
			if err != nil {
				return nil, err
			}
			family.Cases = append(family.Cases, kdf)
			if cores[v] == nil {
				cores[v] = make(map[string]bool)
			}
			cores[v][backend.Core()] = true
		}
		if len(family.Cases) > 0 {
			plan = append(plan, family)
		}
	}

	for _, v := range Argon2Variants {
		if n := len(cores[v]); n == 1 {
			logger.Warn("variant runs on a single argon2 core, results are not a cross-implementation comparison",
				slog.String("variant", v.String()),
			)
		}
	}

	return plan, nil
}

func validateArgon2Params(p Argon2Params) error {
	if p.Time < 1 {
		return fmt.Errorf("%w: argon2 time must be >= 1, got %d", ErrInvalidConfig, p.Time)
	}
	if p.Lanes < 1 {
		return fmt.Errorf("%w: argon2 lanes must be >= 1, got %d", ErrInvalidConfig, p.Lanes)
	}
	if p.Memory < 8*uint32(p.Lanes) {
		return fmt.Errorf("%w: argon2 memory (%d KiB) must be >= 8*lanes", ErrInvalidConfig, p.Memory)
	}
	return nil
}
