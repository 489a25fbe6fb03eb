package domain

import (
	"time"
)

// User 是目录中的用户记录，name 同时作为登录别名和 @ 提及的标记
type User struct {
	UID       string  `json:"uid"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// Identity 是身份提供方一侧的账户，用于校验密码
type Identity struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	CreatedAt    time.Time `json:"createdAt"`
}
