package models

import "time"

// Customer entity. Derived values (full name, lifetime spend) are computed
// in the services layer, never stored here.
type Customer struct {
	ID         uint      `gorm:"primaryKey"`
	FirstName  string    `gorm:"size:100;not null"`
	LastName   string    `gorm:"size:100;not null"`
	Email      string    `gorm:"size:200;not null;uniqueIndex"`
	Phone      string    `gorm:"size:20"`
	Address    string    `gorm:"size:500"`
	City       string    `gorm:"size:100"`
	PostalCode string    `gorm:"size:20"`
	Country    string    `gorm:"size:100"`
	DateJoined time.Time `gorm:"not null;index"`
	IsActive   bool      `gorm:"not null;default:true"`
	Notes      string    `gorm:"size:1000"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
