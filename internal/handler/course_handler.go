package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/studydesk/internal/course"
	"github.com/hitoshi/studydesk/internal/middleware"
	"github.com/hitoshi/studydesk/internal/model"
)

// CourseServiceInterface はコースハンドラーが必要とするサービスインターフェース。
type CourseServiceInterface interface {
	ListCourses(ctx context.Context) ([]*model.Course, error)
	GetCourse(ctx context.Context, id string) (*course.CourseDetail, error)
	ListTopics(ctx context.Context, courseID string) ([]*model.Topic, error)
	GetTopic(ctx context.Context, id string) (*model.Topic, error)
	Import(ctx context.Context, identity model.Identity, input course.CourseImport) (*course.CourseDetail, error)
}

// CourseHandler は公開コースコンテンツのHTTPハンドラー。
// 閲覧系エンドポイントは認証不要、取込のみ認証が必要。
type CourseHandler struct {
	service CourseServiceInterface
}

// NewCourseHandler はCourseHandlerを生成する。
func NewCourseHandler(service CourseServiceInterface) *CourseHandler {
	return &CourseHandler{service: service}
}

// courseResponse はコースのAPIレスポンス。
type courseResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// topicResponse はトピックのAPIレスポンス。
type topicResponse struct {
	ID              string     `json:"id"`
	CourseID        string     `json:"course_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Materials       string     `json:"materials"`
	ReferenceLinks  []string   `json:"reference_links"`
	OrderIndex      int        `json:"order_index"`
	LinkCheckedAt   *time.Time `json:"link_checked_at,omitempty"`
	BrokenLinkCount int        `json:"broken_link_count"`
}

// courseDetailResponse はコースとトピック一覧を結合したAPIレスポンス。
type courseDetailResponse struct {
	courseResponse
	Topics []topicResponse `json:"topics"`
}

// importCourseRequest はコース取込リクエストのボディ。
type importCourseRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Topics      []importTopicRequest `json:"topics"`
}

// importTopicRequest は取込リクエストに含まれるトピック。
type importTopicRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Materials      string   `json:"materials"`
	ReferenceLinks []string `json:"reference_links"`
}

func toCourseResponse(c *model.Course) courseResponse {
	return courseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func toTopicResponse(t *model.Topic) topicResponse {
	links := t.ReferenceLinks
	if links == nil {
		links = []string{}
	}
	return topicResponse{
		ID:              t.ID,
		CourseID:        t.CourseID,
		Title:           t.Title,
		Description:     t.Description,
		Materials:       t.Materials,
		ReferenceLinks:  links,
		OrderIndex:      t.OrderIndex,
		LinkCheckedAt:   t.LinkCheckedAt,
		BrokenLinkCount: t.BrokenLinkCount,
	}
}

func toCourseDetailResponse(detail *course.CourseDetail) courseDetailResponse {
	topics := make([]topicResponse, len(detail.Topics))
	for i, t := range detail.Topics {
		topics[i] = toTopicResponse(t)
	}
	return courseDetailResponse{
		courseResponse: toCourseResponse(detail.Course),
		Topics:         topics,
	}
}

// ListCourses は全コースの一覧を取得する。
// GET /api/courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]courseResponse, len(courses))
	for i, c := range courses {
		responses[i] = toCourseResponse(c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// GetCourse はコースの詳細をトピック一覧付きで取得する。
// GET /api/courses/:id
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	detail, err := h.service.GetCourse(r.Context(), courseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCourseDetailResponse(detail))
}

// ListTopics はコースのトピック一覧をorder_indexの昇順で取得する。
// GET /api/courses/:id/topics
func (h *CourseHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	topics, err := h.service.ListTopics(r.Context(), courseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]topicResponse, len(topics))
	for i, t := range topics {
		responses[i] = toTopicResponse(t)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// GetTopic はトピックの詳細を取得する。
// GET /api/courses/topics/:id
func (h *CourseHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "id")

	topic, err := h.service.GetTopic(r.Context(), topicID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTopicResponse(topic))
}

// ImportCourse はコースとトピック一式を取り込む。
// POST /api/courses （要認証、取込専用レート制限）
func (h *CourseHandler) ImportCourse(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeUnauthenticated(w)
		return
	}

	var req importCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	topics := make([]course.TopicImport, len(req.Topics))
	for i, t := range req.Topics {
		topics[i] = course.TopicImport{
			Title:          t.Title,
			Description:    t.Description,
			Materials:      t.Materials,
			ReferenceLinks: t.ReferenceLinks,
		}
	}

	detail, err := h.service.Import(r.Context(), *identity, course.CourseImport{
		Title:       req.Title,
		Description: req.Description,
		Topics:      topics,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCourseDetailResponse(detail))
}
