package entity

import (
	"calshare/core/entity"
)

type User struct {
	Email    string `db:"email" json:"email"`
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
	IsActive bool   `db:"is_active" json:"is_active"`
	entity.BaseEntity
}
