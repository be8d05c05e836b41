// Package testutil provides deterministic fixtures for code tables and QR
// images.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/vanderheijden86/otpdeck/pkg/model"
)

var (
	issuers  = []string{"GitHub", "GitLab", "AWS", "Okta", "Google", "Slack", "Stripe", "Vault"}
	accounts = []string{"alice", "bob", "carol", "ops", "deploy", "admin", "ci", "billing"}
	owners   = []string{"bob@corp", "carol@corp", "dave@corp"}
)

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// GeneratorConfig controls entry generation.
type GeneratorConfig struct {
	Seed      int64   // random seed for determinism (0 = 42)
	IDStart   int     // first numeric id (default: 1)
	StringIDs bool    // emit "e<n>" ids instead of numeric text
	ErrorRate float64 // share of codes replaced by the "Error" sentinel
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 42, IDStart: 1}
}

// Generator creates code table fixtures.
type Generator struct {
	cfg    GeneratorConfig
	rng    *rand.Rand
	nextID int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.IDStart <= 0 {
		cfg.IDStart = 1
	}
	return &Generator{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		nextID: cfg.IDStart,
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) id() model.EntryID {
	n := g.nextID
	g.nextID++
	if g.cfg.StringIDs {
		return model.EntryID(fmt.Sprintf("e%d", n))
	}
	return model.EntryID(fmt.Sprintf("%d", n))
}

// Code returns a random six-digit code, or the error sentinel at the
// configured rate.
func (g *Generator) Code() string {
	if g.cfg.ErrorRate > 0 && g.rng.Float64() < g.cfg.ErrorRate {
		return model.ErrorCode
	}
	return fmt.Sprintf("%06d", g.rng.Intn(1_000_000))
}

// Secret returns a random 32-character Base32 secret.
func (g *Generator) Secret() string {
	var sb strings.Builder
	for i := 0; i < 32; i++ {
		sb.WriteByte(base32Alphabet[g.rng.Intn(len(base32Alphabet))])
	}
	return sb.String()
}

// Own creates n entries of the own table. Every third entry is marked
// shared.
func (g *Generator) Own(n int) []model.TotpEntry {
	out := make([]model.TotpEntry, n)
	for i := range out {
		out[i] = model.TotpEntry{
			ID:      g.id(),
			Code:    g.Code(),
			Issuer:  issuers[g.rng.Intn(len(issuers))],
			Account: accounts[g.rng.Intn(len(accounts))],
			Shared:  i%3 == 0,
		}
	}
	return out
}

// Shared creates n entries of the shared-with-me table.
func (g *Generator) Shared(n int) []model.TotpEntry {
	out := make([]model.TotpEntry, n)
	for i := range out {
		out[i] = model.TotpEntry{
			ID:      g.id(),
			Code:    g.Code(),
			Issuer:  issuers[g.rng.Intn(len(issuers))],
			Account: accounts[g.rng.Intn(len(accounts))],
			Owner:   owners[g.rng.Intn(len(owners))],
		}
	}
	return out
}

// Rotate returns entries with fresh codes and unchanged ids, as a refetch
// after a period boundary would.
func (g *Generator) Rotate(entries []model.TotpEntry) []model.TotpEntry {
	out := make([]model.TotpEntry, len(entries))
	for i, e := range entries {
		e.Code = g.Code()
		out[i] = e
	}
	return out
}

// IDs returns the ids of entries in order.
func IDs(entries []model.TotpEntry) []model.EntryID {
	out := make([]model.EntryID, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
