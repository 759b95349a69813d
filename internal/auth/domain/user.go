package domain

import (
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
)

type User struct {
	ID           string
	Email        string // stored lower-cased, unique
	DisplayName  string
	PasswordHash string // argon2id PHC string
	Role         jwtx.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
