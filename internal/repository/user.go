package repository

import (
	"context"
	"time"

	"github.com/deppfellow/restcore/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID        int64      `json:"id" db:"id"`
	NickName  string     `json:"nick_name" db:"nick_name"`
	Avatar    string     `json:"avatar" db:"avatar"`
	Signature string     `json:"signature" db:"signature"`
	Age       int16      `json:"age" db:"age"`
	Phone     string     `json:"phone" db:"phone"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

const userColumns = `id, nick_name, avatar, signature, age, phone, created_at, updated_at, deleted_at`

type UserRepository struct {
	db *database.Database
}

func NewUserRepository(db *database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns db_row_not_found when no live user has id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.db.WithConn(ctx, func(ctx context.Context, conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
		if err != nil {
			return err
		}
		user, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[User])
		return err
	})
	return user, err
}

// Create inserts user and returns it with the generated columns filled in.
// A taken nick name is db_data_conflict.
func (r *UserRepository) Create(ctx context.Context, user User) (User, error) {
	var created User
	err := r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			INSERT INTO users (nick_name, avatar, signature, age, phone)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+userColumns,
			user.NickName, user.Avatar, user.Signature, user.Age, user.Phone)
		if err != nil {
			return err
		}
		created, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[User])
		return err
	})
	return created, err
}
