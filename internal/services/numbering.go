package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	orderNumberPrefix   = "ORD"
	invoiceNumberPrefix = "INV"
)

// nextNumber allocates the next {PREFIX}-{yyyyMM}-{seq} number. The counter
// lives in number_sequences keyed by month-prefix and is bumped with an
// upsert, so concurrent callers serialize on the row lock and the sequence
// restarts at 001 each month. Must run inside the same transaction as the
// insert that consumes the number.
func nextNumber(tx *gorm.DB, prefix string, now time.Time) (string, error) {
	key := fmt.Sprintf("%s-%s", prefix, now.UTC().Format("200601"))
	var seq int
	err := tx.Raw(
		`INSERT INTO number_sequences (key, value) VALUES (?, 1)
		 ON CONFLICT (key) DO UPDATE SET value = number_sequences.value + 1
		 RETURNING value`, key).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("allocate %s sequence: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%03d", key, seq), nil
}
