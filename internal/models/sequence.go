package models

// NumberSequence backs order/invoice number allocation. One row per
// month-prefix (e.g. "ORD-202508"); Value is the last sequence handed out.
// Incremented with an upsert inside the same transaction as the insert that
// consumes the number, so concurrent allocators serialize on the row.
type NumberSequence struct {
	Key   string `gorm:"primaryKey;size:20"`
	Value int    `gorm:"not null"`
}
