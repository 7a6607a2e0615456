// Package course は公開コースコンテンツのドメインロジックを提供する。
package course

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/studydesk/internal/model"
	"github.com/hitoshi/studydesk/internal/repository"
	"github.com/hitoshi/studydesk/internal/security"
)

// maxTopicsPerImport は1回の取込で受け付けるトピック数の上限。
const maxTopicsPerImport = 100

// TopicImport は取込リクエストに含まれるトピックの入力を表す。
type TopicImport struct {
	Title          string
	Description    string
	Materials      string
	ReferenceLinks []string
}

// CourseImport はコース取込の入力を表す。
type CourseImport struct {
	Title       string
	Description string
	Topics      []TopicImport
}

// CourseDetail はコースとそのトピック一覧を結合したドメインオブジェクト。
type CourseDetail struct {
	Course *model.Course
	Topics []*model.Topic
}

// Service はコースコンテンツのサービス層。
// 閲覧系は認証不要で提供し、取込のみ認証済みユーザーに限定される。
type Service struct {
	repo      repository.CourseRepository
	sanitizer security.TextSanitizerService
	ssrfGuard security.SSRFGuardService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.CourseRepository, sanitizer security.TextSanitizerService, ssrfGuard security.SSRFGuardService) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		ssrfGuard: ssrfGuard,
	}
}

// ListCourses は全コースの一覧を作成日時の昇順で返す。
func (s *Service) ListCourses(ctx context.Context) ([]*model.Course, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("コース一覧の取得に失敗しました: %w", err)
	}

	if courses == nil {
		courses = []*model.Course{}
	}

	return courses, nil
}

// GetCourse は指定IDのコースをトピック一覧付きで返す。
// トピックはorder_indexの昇順に整列される。
// コースが存在しない場合はCOURSE_NOT_FOUNDエラーを返す。
func (s *Service) GetCourse(ctx context.Context, id string) (*CourseDetail, error) {
	course, err := s.repo.FindCourseByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("コースの取得に失敗しました: %w", err)
	}
	if course == nil {
		return nil, model.NewCourseNotFoundError(id)
	}

	topics, err := s.repo.ListTopicsByCourseID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("トピック一覧の取得に失敗しました: %w", err)
	}
	if topics == nil {
		topics = []*model.Topic{}
	}

	return &CourseDetail{Course: course, Topics: topics}, nil
}

// ListTopics は指定コースのトピック一覧をorder_indexの昇順で返す。
// トピックを持たないコースや存在しないコースIDでは空のスライスを返す（エラーではない）。
func (s *Service) ListTopics(ctx context.Context, courseID string) ([]*model.Topic, error) {
	topics, err := s.repo.ListTopicsByCourseID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("トピック一覧の取得に失敗しました: %w", err)
	}

	if topics == nil {
		topics = []*model.Topic{}
	}

	return topics, nil
}

// GetTopic は指定IDのトピックを返す。
// トピックが存在しない場合はTOPIC_NOT_FOUNDエラーを返す。
func (s *Service) GetTopic(ctx context.Context, id string) (*model.Topic, error) {
	topic, err := s.repo.FindTopicByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("トピックの取得に失敗しました: %w", err)
	}
	if topic == nil {
		return nil, model.NewTopicNotFoundError(id)
	}

	return topic, nil
}

// Import はコースとトピック一式を検証・サニタイズして取り込む。
// タイトルはサニタイズ後に空でないことを要求する。
// 参照リンクは安全なURLのみを受け入れ、危険なURLを含む取込は全体を拒否する。
// 挿入はトランザクションで行われ、部分的な取込結果は残らない。
func (s *Service) Import(ctx context.Context, identity model.Identity, input CourseImport) (*CourseDetail, error) {
	title := s.sanitizer.SanitizePlain(input.Title)
	if title == "" {
		return nil, model.NewValidationError("コースのタイトルは必須です")
	}
	if len(input.Topics) > maxTopicsPerImport {
		return nil, model.NewValidationError(fmt.Sprintf("トピック数が上限を超えています（最大%d件）", maxTopicsPerImport))
	}

	course := &model.Course{
		ID:          uuid.New().String(),
		Title:       title,
		Description: s.sanitizer.SanitizePlain(input.Description),
		CreatedAt:   time.Now(),
	}

	topics := make([]*model.Topic, 0, len(input.Topics))
	for i, t := range input.Topics {
		topicTitle := s.sanitizer.SanitizePlain(t.Title)
		if topicTitle == "" {
			return nil, model.NewValidationError(fmt.Sprintf("トピック%dのタイトルは必須です", i+1))
		}

		links := make([]string, 0, len(t.ReferenceLinks))
		for _, link := range t.ReferenceLinks {
			if err := s.ssrfGuard.ValidateURL(link); err != nil {
				return nil, model.NewValidationError(fmt.Sprintf("参照リンクが不正です: %s", link))
			}
			links = append(links, link)
		}

		topics = append(topics, &model.Topic{
			ID:             uuid.New().String(),
			CourseID:       course.ID,
			Title:          topicTitle,
			Description:    s.sanitizer.SanitizePlain(t.Description),
			Materials:      s.sanitizer.SanitizeMaterials(t.Materials),
			ReferenceLinks: links,
			OrderIndex:     i,
		})
	}

	if err := s.repo.CreateCourseWithTopics(ctx, course, topics); err != nil {
		return nil, fmt.Errorf("コースの取込に失敗しました: %w", err)
	}

	slog.Info("course imported",
		slog.String("course_id", course.ID),
		slog.String("user_id", identity.UserID),
		slog.Int("topic_count", len(topics)),
	)

	return &CourseDetail{Course: course, Topics: topics}, nil
}
