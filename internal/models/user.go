package models

import (
	"time"
)

// User represents a registered account. Accounts start inactive and are
// activated through the emailed verification token.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Username  string    `gorm:"type:varchar(150);not null;uniqueIndex:pigeon_users_ux1;column:username"`
	Email     string    `gorm:"type:varchar(254);not null;uniqueIndex:pigeon_users_ux2;column:email"`
	Password  string    `gorm:"type:varchar(128);not null;column:password"`
	FirstName string    `gorm:"type:varchar(150);not null;default:'';column:first_name"`
	LastName  string    `gorm:"type:varchar(150);not null;default:'';column:last_name"`
	IsActive  bool      `gorm:"not null;default:false;column:is_active"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "pigeon_users"
}
