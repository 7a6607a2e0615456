// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、サービス層、リンクチェックワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(statusCode int, duration time.Duration)
	RecordAuthFailure()
	RecordTaskCreated()
	RecordLinkCheckSuccess()
	RecordLinkCheckFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	authFailures    prometheus.Counter
	tasksCreated    prometheus.Counter
	linkCheckOK     prometheus.Counter
	linkCheckBroken prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studydesk_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "studydesk_http_request_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studydesk_auth_failures_total",
			Help: "セッション検証失敗の合計数",
		}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studydesk_tasks_created_total",
			Help: "作成されたタスクの合計数",
		}),
		linkCheckOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studydesk_linkcheck_success_total",
			Help: "到達確認に成功した参照リンクの合計数",
		}),
		linkCheckBroken: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studydesk_linkcheck_broken_total",
			Help: "到達確認に失敗した参照リンクの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.authFailures,
		c.tasksCreated,
		c.linkCheckOK,
		c.linkCheckBroken,
	)

	return c
}

// RecordHTTPRequest はHTTPステータスコードとレイテンシを記録する。
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.requestLatency.Observe(duration.Seconds())
}

// RecordAuthFailure はセッション検証失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// RecordTaskCreated はタスク作成を記録する。
func (c *Collector) RecordTaskCreated() {
	c.tasksCreated.Inc()
}

// RecordLinkCheckSuccess は参照リンクの到達確認成功を記録する。
func (c *Collector) RecordLinkCheckSuccess() {
	c.linkCheckOK.Inc()
}

// RecordLinkCheckFailure は参照リンクの到達確認失敗を記録する。
func (c *Collector) RecordLinkCheckFailure() {
	c.linkCheckBroken.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
