// Package numbering generates the human-readable identifiers used across
// the system: dated document numbers for orders and zero-padded sequential
// codes for counterparties.
//
// Allocation never pre-checks existence. A candidate is generated, the
// insert is attempted, and the storage uniqueness constraint is the source
// of truth: a duplicate-key failure triggers regeneration, bounded by a
// retry cap.
package numbering

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// DefaultMaxAttempts bounds collision retries before allocation gives up.
const DefaultMaxAttempts = 50

// Document number prefixes.
const (
	PrefixPurchaseOrder = "PO"
	PrefixSalesOrder    = "SO"
)

// Entity code prefixes.
const (
	PrefixCustomerIndividual = "IND"
	PrefixCustomerCompany    = "COM"
	PrefixSupplier           = "SUP"
)

// DocumentNumber builds a candidate like PO-20250901-0421. The 4-digit
// suffix is random, so concurrent creates can collide; callers must go
// through AllocateDocumentNumber.
func DocumentNumber(prefix string, date time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("20060102"), rand.IntN(10000))
}

// EntityCode formats a counterparty code like COM000123.
func EntityCode(prefix string, sequence int64) string {
	return fmt.Sprintf("%s%06d", prefix, sequence)
}

// AllocateDocumentNumber drives candidate generation against an insert
// attempt. The insert callback must perform the write that carries the
// unique constraint; duplicate-key failures regenerate, anything else
// aborts. Exceeding the retry cap fails with ErrSequenceExhausted.
func AllocateDocumentNumber(ctx context.Context, prefix string, date time.Time, insert func(ctx context.Context, number string) error) (string, error) {
	for attempt := 0; attempt < DefaultMaxAttempts; attempt++ {
		candidate := DocumentNumber(prefix, date)
		err := insert(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if shared.IsDuplicateKey(err) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("%w: no free %s number after %d attempts", shared.ErrSequenceExhausted, prefix, DefaultMaxAttempts)
}

// AllocateEntityCode computes the next sequential code for a prefix and
// attempts the insert. Reading the current maximum and writing the successor
// races under concurrency; the uniqueness constraint on code turns the race
// into a duplicate-key failure, which re-reads and retries.
func AllocateEntityCode(ctx context.Context, prefix string, readMax func(ctx context.Context) (int64, error), insert func(ctx context.Context, code string) error) (string, error) {
	for attempt := 0; attempt < DefaultMaxAttempts; attempt++ {
		maxSeq, err := readMax(ctx)
		if err != nil {
			return "", err
		}
		candidate := EntityCode(prefix, maxSeq+1)
		err = insert(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if shared.IsDuplicateKey(err) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("%w: no free %s code after %d attempts", shared.ErrSequenceExhausted, prefix, DefaultMaxAttempts)
}
