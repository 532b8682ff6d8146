package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindUserByPhone(ctx context.Context, db *gorm.DB, clinicID snowflake.ID, phone string) (*User, error)

	InsertStaff(ctx context.Context, db *gorm.DB, staff *Staff) error
	FindStaffByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Staff, error)
	FindStaffByUsername(ctx context.Context, db *gorm.DB, username string) (*Staff, error)

	InsertSession(ctx context.Context, db *gorm.DB, session *Session) error
	FindSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*Session, error)
	RevokeSession(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	TouchSession(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
