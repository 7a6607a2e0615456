package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/studydesk/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionVerifier   middleware.SessionVerifier
	AuthRecorder      middleware.AuthFailureRecorder
	RequestRecorder   middleware.HTTPRequestRecorder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// タスク
	TaskService TaskServiceInterface

	// コース
	CourseService CourseServiceInterface

	// 運用
	HealthDB       Pinger
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → CORS → [Session → RateLimit(General)]
//
// 認証ルート（/api/auth/*）とコース閲覧ルートはセッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.RequestRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.RequestRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	todoHandler := NewTodoHandler(deps.TaskService)
	courseHandler := NewCourseHandler(deps.CourseService)

	// --- 認証不要のルート ---

	// 認証フロー
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// GET /api/auth/me のみセッション必須
		r.With(middleware.NewSessionMiddleware(deps.SessionVerifier, deps.AuthRecorder)).
			Get("/me", authHandler.Me)
	})

	// 公開コースコンテンツ（閲覧）
	// /api/courses/topics/{id} は /api/courses/{id} より静的セグメントが優先される
	r.Get("/api/courses", courseHandler.ListCourses)
	r.Get("/api/courses/topics/{id}", courseHandler.GetTopic)
	r.Get("/api/courses/{id}", courseHandler.GetCourse)
	r.Get("/api/courses/{id}/topics", courseHandler.ListTopics)

	// 運用エンドポイント
	if deps.HealthDB != nil {
		r.Get("/health", NewHealthHandler(deps.HealthDB).Health)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionVerifier, deps.AuthRecorder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 個人タスク管理
		r.Route("/api/todos", func(r chi.Router) {
			r.Get("/", todoHandler.ListTasks)
			r.Post("/", todoHandler.CreateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", todoHandler.UpdateTask)
				r.Delete("/", todoHandler.DeleteTask)
			})
		})

		// POST /api/courses - コース取込（取込専用レート制限を追加）
		r.With(deps.RateLimiter.ImportMiddleware()).Post("/api/courses", courseHandler.ImportCourse)
	})

	return r
}
