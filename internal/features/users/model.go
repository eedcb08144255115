package users

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                   uuid.UUID  `json:"id"`
	Email                string     `json:"email"`
	HashedPassword       *string    `json:"-"         gorm:"column:hashed_password"`
	PasswordCreationTime time.Time  `json:"-"         gorm:"column:password_creation_time"`
	Role                 UserRole   `json:"role"`
	Status               UserStatus `json:"status"`
	CreatedAt            time.Time  `json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) CanManageUsers() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) CanManageApiKeys() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) IsActiveUser() bool {
	return u.Status == UserStatusActive
}

func (u *User) HasPassword() bool {
	return u.HashedPassword != nil && *u.HashedPassword != ""
}

type SecretKey struct {
	Secret string `gorm:"column:secret"`
}

func (SecretKey) TableName() string {
	return "secret_keys"
}
