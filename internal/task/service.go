// Package task は個人タスク管理のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/studydesk/internal/model"
	"github.com/hitoshi/studydesk/internal/repository"
	"github.com/hitoshi/studydesk/internal/security"
)

// TaskCreatedRecorder はタスク作成メトリクスの記録に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type TaskCreatedRecorder interface {
	RecordTaskCreated()
}

// Service はタスク管理のサービス層。
// すべての操作は認証済みIdentityの所有タスクに限定される。
type Service struct {
	store     repository.TaskStore
	sanitizer security.TextSanitizerService
	recorder  TaskCreatedRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(store repository.TaskStore, sanitizer security.TextSanitizerService, recorder TaskCreatedRecorder) *Service {
	return &Service{
		store:     store,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// List は所有タスクの一覧を作成日時の降順で返す。
// タスクを1件も持たないユーザーには空の一覧を返す。
func (s *Service) List(ctx context.Context, identity model.Identity) ([]*model.Task, error) {
	tasks, err := s.store.ForOwner(identity).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}

	if tasks == nil {
		tasks = []*model.Task{}
	}

	return tasks, nil
}

// Create は新しいタスクを作成する。
// 本文はサニタイズ後に空でないことを要求する。
// 優先度の未指定はshouldとして扱い、未定義の値は検証エラーとする。
func (s *Service) Create(ctx context.Context, identity model.Identity, text string, priority string) (*model.Task, error) {
	sanitized := s.sanitizer.SanitizePlain(text)
	if sanitized == "" {
		return nil, model.NewValidationError("タスクの本文は必須です")
	}

	p := model.PriorityShould
	if priority != "" {
		p = model.Priority(priority)
		if !p.IsValid() {
			return nil, model.NewValidationError(fmt.Sprintf("未定義の優先度です: %s", priority))
		}
	}

	task := &model.Task{
		ID:        uuid.New().String(),
		OwnerID:   identity.UserID,
		Text:      sanitized,
		Completed: false,
		Priority:  p,
		CreatedAt: time.Now(),
	}

	if err := s.store.ForOwner(identity).Create(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordTaskCreated()
	}

	return task, nil
}

// SetCompleted は指定IDのタスクの完了状態を更新する。
// 所有タスクに該当IDが存在しない場合はTASK_NOT_FOUNDエラーを返す。
// 他ユーザー所有のタスクIDを指定した場合も同じエラーになり、存在有無は区別できない。
func (s *Service) SetCompleted(ctx context.Context, identity model.Identity, id string, completed bool) (*model.Task, error) {
	task, err := s.store.ForOwner(identity).SetCompleted(ctx, id, completed)
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(id)
	}

	return task, nil
}

// Delete は指定IDのタスクを削除する。
// 所有タスクに該当IDが存在しない場合はTASK_NOT_FOUNDエラーを返す。
func (s *Service) Delete(ctx context.Context, identity model.Identity, id string) error {
	deleted, err := s.store.ForOwner(identity).Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError(id)
	}

	return nil
}
