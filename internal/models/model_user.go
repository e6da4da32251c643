package models

import "time"

// User is the local account profile. Webhook processing only reads it, by
// email, to address notifications in the user's preferred language.
type User struct {
	ID          string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Email       string `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	DisplayName string `gorm:"column:display_name;type:varchar(255)" json:"display_name"`
	// Language is the user's preferred notification language (BCP 47 tag).
	Language  string    `gorm:"column:language;type:varchar(16)" json:"language"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "app_user" }
