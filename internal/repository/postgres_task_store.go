package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/studydesk/internal/model"
)

// PostgresTaskStore はPostgreSQLを使用したタスクストア。
// タスクへのアクセスはForOwnerで払い出される所有者束縛リポジトリ経由に限定される。
type PostgresTaskStore struct {
	db *sql.DB
}

// NewPostgresTaskStore はPostgresTaskStoreを生成する。
func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

// ForOwner は指定されたユーザーのタスクのみを操作できるリポジトリを返す。
func (s *PostgresTaskStore) ForOwner(identity model.Identity) TaskRepository {
	return &ownerTaskRepo{db: s.db, ownerID: identity.UserID}
}

// ownerTaskRepo は単一所有者のタスクに束縛されたリポジトリ。
// 全クエリのWHERE句にowner_idが含まれるため、他ユーザーのタスクには到達できない。
type ownerTaskRepo struct {
	db      *sql.DB
	ownerID string
}

// List は所有者のタスク一覧を作成日時の降順で返す。
func (r *ownerTaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, text, completed, priority, created_at
		 FROM tasks
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`,
		r.ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task := &model.Task{}
		if err := rows.Scan(&task.ID, &task.OwnerID, &task.Text, &task.Completed, &task.Priority, &task.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// Create はタスクを作成する。owner_idは束縛された所有者で上書きされる。
func (r *ownerTaskRepo) Create(ctx context.Context, task *model.Task) error {
	task.OwnerID = r.ownerID

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, owner_id, text, completed, priority, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		task.ID, task.OwnerID, task.Text, task.Completed, task.Priority, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// SetCompleted は指定IDのタスクの完了状態を更新し、更新後のタスクを返す。
// 所有者のタスクに該当IDが存在しない場合はnilを返す。
// 他ユーザー所有のタスクも「存在しない」として扱われる。
func (r *ownerTaskRepo) SetCompleted(ctx context.Context, id string, completed bool) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE tasks
		 SET completed = $1
		 WHERE id = $2 AND owner_id = $3
		 RETURNING id, owner_id, text, completed, priority, created_at`,
		completed, id, r.ownerID,
	).Scan(&task.ID, &task.OwnerID, &task.Text, &task.Completed, &task.Priority, &task.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Delete は指定IDのタスクを削除する。
// 所有者のタスクに該当IDが存在しない場合はfalseを返す。
func (r *ownerTaskRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2`,
		id, r.ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// compile-time interface check
var (
	_ TaskStore      = (*PostgresTaskStore)(nil)
	_ TaskRepository = (*ownerTaskRepo)(nil)
)
