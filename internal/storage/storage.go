// Package storage keeps the publish ledger: the links of articles already
// handed to the publishers, each remembered for a retention window.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Ledger records which article links were published.
type Ledger interface {
	Close() error
	Published(link string) (bool, error)
	MarkPublished(link string) error
}

// Options controls retention for the ledger backends.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	TypeBBolt  = "bbolt"
	TypeMemory = "memory"
	TypeNone   = "none"

	defaultTTL             = 2 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// Open creates the configured ledger backend.
func Open(typ, path string, opts Options) (Ledger, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopLedger{}, nil
	case TypeMemory:
		return newMemoryLedger(opts), nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt ledger requires a path")
		}
		ledger, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopLedger remembers nothing, so every article is published on every cycle.
type noopLedger struct{}

func (noopLedger) Close() error                   { return nil }
func (noopLedger) Published(string) (bool, error) { return false, nil }
func (noopLedger) MarkPublished(string) error     { return nil }
