package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/studydesk/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザープロフィールリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザープロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	profile := &model.UserProfile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, username, full_name, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&profile.ID, &profile.Email, &profile.Username, &profile.FullName, &profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return profile, nil
}

// Upsert はユーザープロフィールを冪等に作成・更新する。
// 既存行がある場合はcreated_atを維持したままプロフィール項目のみを更新する。
func (r *PostgresUserRepo) Upsert(ctx context.Context, profile *model.UserProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, full_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET email = EXCLUDED.email,
		     username = EXCLUDED.username,
		     full_name = EXCLUDED.full_name,
		     updated_at = EXCLUDED.updated_at`,
		profile.ID, profile.Email, profile.Username, profile.FullName, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
