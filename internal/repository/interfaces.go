// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/studydesk/internal/model"
)

// UserRepository はユーザープロフィールの永続化インターフェース。
// 認証自体は外部プロバイダーが担うため、ここではローカルのミラーのみを扱う。
type UserRepository interface {
	// FindByID は指定IDのユーザープロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.UserProfile, error)

	// Upsert はユーザープロフィールを冪等に作成・更新する。
	// プロバイダー側のユーザー情報が変わった場合のローカル同期に使用する。
	Upsert(ctx context.Context, profile *model.UserProfile) error
}

// TaskRepository は特定の所有者に束縛されたタスク操作のインターフェース。
// すべての操作は束縛された所有者のタスクのみを対象とし、
// 他ユーザーのタスクには構造的に到達できない。
type TaskRepository interface {
	// List は所有者のタスク一覧を作成日時の降順で返す。
	List(ctx context.Context) ([]*model.Task, error)

	// Create はタスクを作成する。owner_idは束縛された所有者で上書きされる。
	Create(ctx context.Context, task *model.Task) error

	// SetCompleted は指定IDのタスクの完了状態を更新し、更新後のタスクを返す。
	// 所有者のタスクに該当IDが存在しない場合はnilを返す。
	SetCompleted(ctx context.Context, id string, completed bool) (*model.Task, error)

	// Delete は指定IDのタスクを削除する。
	// 所有者のタスクに該当IDが存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// TaskStore は所有者に束縛されたTaskRepositoryを払い出すインターフェース。
// 所有者を経由しないタスクアクセス経路は提供しない。
type TaskStore interface {
	// ForOwner は指定されたユーザーのタスクのみを操作できるリポジトリを返す。
	ForOwner(identity model.Identity) TaskRepository
}

// CourseRepository は公開コースコンテンツの永続化インターフェース。
type CourseRepository interface {
	// ListCourses は全コースを作成日時の昇順で返す。
	ListCourses(ctx context.Context) ([]*model.Course, error)

	// FindCourseByID は指定IDのコースを取得する。見つからない場合はnilを返す。
	FindCourseByID(ctx context.Context, id string) (*model.Course, error)

	// ListTopicsByCourseID はコースのトピック一覧をorder_indexの昇順で返す。
	ListTopicsByCourseID(ctx context.Context, courseID string) ([]*model.Topic, error)

	// FindTopicByID は指定IDのトピックを取得する。見つからない場合はnilを返す。
	FindTopicByID(ctx context.Context, id string) (*model.Topic, error)

	// CreateCourseWithTopics はコースと全トピックを同一トランザクションで作成する。
	CreateCourseWithTopics(ctx context.Context, course *model.Course, topics []*model.Topic) error

	// ListTopicsNeedingLinkCheck は参照リンクの到達確認が必要なトピックを返す。
	// link_checked_at IS NULL（未確認）を優先し、次にlink_checked_atが古い順に処理する。
	// 参照リンクを持たないトピックは対象外。
	ListTopicsNeedingLinkCheck(ctx context.Context, checkedBefore time.Time, limit int) ([]*model.Topic, error)

	// UpdateLinkCheckResult はトピックの到達確認結果を記録する。
	UpdateLinkCheckResult(ctx context.Context, topicID string, checkedAt time.Time, brokenCount int) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
