package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/studydesk/internal/course"
	"github.com/hitoshi/studydesk/internal/model"
)

// mockCourseService はCourseServiceInterfaceのモック実装。
type mockCourseService struct {
	listCoursesFn func(ctx context.Context) ([]*model.Course, error)
	getCourseFn   func(ctx context.Context, id string) (*course.CourseDetail, error)
	listTopicsFn  func(ctx context.Context, courseID string) ([]*model.Topic, error)
	getTopicFn    func(ctx context.Context, id string) (*model.Topic, error)
	importFn      func(ctx context.Context, identity model.Identity, input course.CourseImport) (*course.CourseDetail, error)
}

func (m *mockCourseService) ListCourses(ctx context.Context) ([]*model.Course, error) {
	if m.listCoursesFn != nil {
		return m.listCoursesFn(ctx)
	}
	return nil, nil
}

func (m *mockCourseService) GetCourse(ctx context.Context, id string) (*course.CourseDetail, error) {
	if m.getCourseFn != nil {
		return m.getCourseFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCourseService) ListTopics(ctx context.Context, courseID string) ([]*model.Topic, error) {
	if m.listTopicsFn != nil {
		return m.listTopicsFn(ctx, courseID)
	}
	return nil, nil
}

func (m *mockCourseService) GetTopic(ctx context.Context, id string) (*model.Topic, error) {
	if m.getTopicFn != nil {
		return m.getTopicFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCourseService) Import(ctx context.Context, identity model.Identity, input course.CourseImport) (*course.CourseDetail, error) {
	if m.importFn != nil {
		return m.importFn(ctx, identity, input)
	}
	return nil, nil
}

// --- GET /api/courses テスト ---

func TestCourseHandler_ListCourses_Success(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	svc := &mockCourseService{
		listCoursesFn: func(ctx context.Context) ([]*model.Course, error) {
			return []*model.Course{
				{ID: "course-1", Title: "Go入門", CreatedAt: now},
				{ID: "course-2", Title: "SQL基礎", CreatedAt: now.Add(time.Hour)},
			}, nil
		},
	}

	h := NewCourseHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	w := httptest.NewRecorder()

	h.ListCourses(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var courses []courseResponse
	if err := json.NewDecoder(w.Body).Decode(&courses); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("len = %d, want 2", len(courses))
	}
	if courses[0].Title != "Go入門" {
		t.Errorf("Title = %q, want %q", courses[0].Title, "Go入門")
	}
}

// --- GET /api/courses/:id テスト ---

func TestCourseHandler_GetCourse_Success(t *testing.T) {
	svc := &mockCourseService{
		getCourseFn: func(ctx context.Context, id string) (*course.CourseDetail, error) {
			if id != "course-1" {
				t.Errorf("id = %q, want %q", id, "course-1")
			}
			return &course.CourseDetail{
				Course: &model.Course{ID: "course-1", Title: "Go入門"},
				Topics: []*model.Topic{
					{ID: "topic-1", CourseID: "course-1", Title: "環境構築", OrderIndex: 0},
					{ID: "topic-2", CourseID: "course-1", Title: "基本文法", OrderIndex: 1},
				},
			}, nil
		},
	}

	h := NewCourseHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/courses/course-1", nil)
	req = withChiURLParam(req, "id", "course-1")
	w := httptest.NewRecorder()

	h.GetCourse(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var detail courseDetailResponse
	if err := json.NewDecoder(w.Body).Decode(&detail); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(detail.Topics) != 2 {
		t.Fatalf("len(Topics) = %d, want 2", len(detail.Topics))
	}
	if detail.Topics[0].Title != "環境構築" {
		t.Errorf("Topics[0].Title = %q, want %q", detail.Topics[0].Title, "環境構築")
	}
}

func TestCourseHandler_GetCourse_NotFound(t *testing.T) {
	svc := &mockCourseService{
		getCourseFn: func(ctx context.Context, id string) (*course.CourseDetail, error) {
			return nil, model.NewCourseNotFoundError(id)
		},
	}

	h := NewCourseHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/courses/no-such-course", nil)
	req = withChiURLParam(req, "id", "no-such-course")
	w := httptest.NewRecorder()

	h.GetCourse(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeCourseNotFound {
		t.Errorf("code = %q, want %q", got, model.ErrCodeCourseNotFound)
	}
}

// --- GET /api/courses/:id/topics テスト ---

func TestCourseHandler_ListTopics_Success(t *testing.T) {
	svc := &mockCourseService{
		listTopicsFn: func(ctx context.Context, courseID string) ([]*model.Topic, error) {
			if courseID != "course-1" {
				t.Errorf("courseID = %q, want %q", courseID, "course-1")
			}
			return []*model.Topic{
				{ID: "topic-1", CourseID: courseID, Title: "環境構築", OrderIndex: 0},
				{ID: "topic-2", CourseID: courseID, Title: "基本文法", OrderIndex: 1},
			}, nil
		},
	}

	h := NewCourseHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/courses/course-1/topics", nil)
	req = withChiURLParam(req, "id", "course-1")
	w := httptest.NewRecorder()

	h.ListTopics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var topics []topicResponse
	if err := json.NewDecoder(w.Body).Decode(&topics); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("len = %d, want 2", len(topics))
	}
	if topics[0].OrderIndex != 0 || topics[1].OrderIndex != 1 {
		t.Errorf("topics not in order_index order: %v", topics)
	}
}

func TestCourseHandler_ListTopics_EmptyCourse(t *testing.T) {
	svc := &mockCourseService{
		listTopicsFn: func(ctx context.Context, courseID string) ([]*model.Topic, error) {
			return []*model.Topic{}, nil
		},
	}

	h := NewCourseHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/courses/course-empty/topics", nil)
	req = withChiURLParam(req, "id", "course-empty")
	w := httptest.NewRecorder()

	h.ListTopics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	// トピックを持たないコースは空配列（nullではない）
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want %q", got, "[]\n")
	}
}

// --- GET /api/courses/topics/:id テスト ---

func TestCourseHandler_GetTopic_Success(t *testing.T) {
	svc := &mockCourseService{
		getTopicFn: func(ctx context.Context, id string) (*model.Topic, error) {
			return &model.Topic{
				ID:             "topic-1",
				CourseID:       "course-1",
				Title:          "環境構築",
				ReferenceLinks: []string{"https://go.dev/doc/install"},
			}, nil
		},
	}

	h := NewCourseHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/courses/topics/topic-1", nil)
	req = withChiURLParam(req, "id", "topic-1")
	w := httptest.NewRecorder()

	h.GetTopic(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var topic topicResponse
	if err := json.NewDecoder(w.Body).Decode(&topic); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(topic.ReferenceLinks) != 1 {
		t.Errorf("len(ReferenceLinks) = %d, want 1", len(topic.ReferenceLinks))
	}
}

func TestCourseHandler_GetTopic_NotFound(t *testing.T) {
	svc := &mockCourseService{
		getTopicFn: func(ctx context.Context, id string) (*model.Topic, error) {
			return nil, model.NewTopicNotFoundError(id)
		},
	}

	h := NewCourseHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/courses/topics/no-such-topic", nil)
	req = withChiURLParam(req, "id", "no-such-topic")
	w := httptest.NewRecorder()

	h.GetTopic(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- POST /api/courses テスト ---

func TestCourseHandler_ImportCourse_Success(t *testing.T) {
	svc := &mockCourseService{
		importFn: func(ctx context.Context, identity model.Identity, input course.CourseImport) (*course.CourseDetail, error) {
			if identity.UserID != "user-123" {
				t.Errorf("UserID = %q, want %q", identity.UserID, "user-123")
			}
			if input.Title != "Go入門" {
				t.Errorf("Title = %q, want %q", input.Title, "Go入門")
			}
			return &course.CourseDetail{
				Course: &model.Course{ID: "course-new", Title: input.Title},
				Topics: []*model.Topic{{ID: "topic-new", Title: "環境構築", OrderIndex: 0}},
			}, nil
		},
	}

	h := NewCourseHandler(svc)

	body := bytes.NewBufferString(`{"title": "Go入門", "topics": [{"title": "環境構築"}]}`)
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/courses", body), "user-123")
	w := httptest.NewRecorder()

	h.ImportCourse(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var detail courseDetailResponse
	if err := json.NewDecoder(w.Body).Decode(&detail); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if detail.ID != "course-new" {
		t.Errorf("ID = %q, want %q", detail.ID, "course-new")
	}
}

func TestCourseHandler_ImportCourse_Unauthenticated(t *testing.T) {
	h := NewCourseHandler(&mockCourseService{})

	body := bytes.NewBufferString(`{"title": "Go入門"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/courses", body)
	w := httptest.NewRecorder()

	h.ImportCourse(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestCourseHandler_ImportCourse_InvalidJSON(t *testing.T) {
	h := NewCourseHandler(&mockCourseService{})

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/courses", bytes.NewBufferString(`{invalid`)), "user-123")
	w := httptest.NewRecorder()

	h.ImportCourse(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
