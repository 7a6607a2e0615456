// Package linkcheck はコース教材の参照リンクの到達確認ジョブを提供する。
// 確認間隔を超過したトピックの参照リンクにHEADリクエストを送り、
// リンク切れ数をトピックごとに記録する。
package linkcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hitoshi/studydesk/internal/model"
	"github.com/hitoshi/studydesk/internal/repository"
)

// batchLimit は1サイクルで処理するトピック数の上限。
const batchLimit = 50

// LinkCheckRecorder はリンク確認メトリクスの記録に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type LinkCheckRecorder interface {
	RecordLinkCheckSuccess()
	RecordLinkCheckFailure()
}

// Checker は参照リンクの到達確認ワーカー。
// 一定間隔のティッカーで確認対象トピックを取得し、
// semaphoreパターンで最大並列数を制御しながらリンクを確認する。
type Checker struct {
	courseRepo     repository.CourseRepository
	client         *http.Client
	logger         *slog.Logger
	recorder       LinkCheckRecorder
	maxConcurrency int
}

// NewChecker はCheckerの新しいインスタンスを生成する。
// clientにはSSRF防止機能付きのHTTPクライアントを渡すこと。
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewChecker(
	courseRepo repository.CourseRepository,
	client *http.Client,
	logger *slog.Logger,
	recorder LinkCheckRecorder,
	maxConcurrency int,
) *Checker {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Checker{
		courseRepo:     courseRepo,
		client:         client,
		logger:         logger,
		recorder:       recorder,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでワーカーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("リンク確認ワーカーを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", c.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := c.RunOnce(ctx, interval); err != nil {
		c.logger.Error("リンク確認サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("リンク確認ワーカーを停止しました")
			return
		case <-ticker.C:
			if err := c.RunOnce(ctx, interval); err != nil {
				c.logger.Error("リンク確認サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は確認対象トピックを1回取得し、並列でリンクを確認する。
// 前回確認からinterval以上経過した（または未確認の）トピックが対象になる。
func (c *Checker) RunOnce(ctx context.Context, interval time.Duration) error {
	start := time.Now()

	topics, err := c.courseRepo.ListTopicsNeedingLinkCheck(ctx, time.Now().Add(-interval), batchLimit)
	if err != nil {
		return fmt.Errorf("確認対象トピックの取得に失敗: %w", err)
	}

	if len(topics) == 0 {
		c.logger.Info("確認対象のトピックはありません")
		return nil
	}

	c.logger.Info("リンク確認サイクルを開始します",
		slog.Int("topic_count", len(topics)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, c.maxConcurrency)
	var wg sync.WaitGroup

	for _, topic := range topics {
		wg.Add(1)
		sem <- struct{}{}

		go func(t *model.Topic) {
			defer wg.Done()
			defer func() { <-sem }()

			c.checkTopic(ctx, t)
		}(topic)
	}

	wg.Wait()

	duration := time.Since(start)
	c.logger.Info("リンク確認サイクルが完了しました",
		slog.Int("topic_count", len(topics)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// checkTopic はトピックの全参照リンクを確認し、結果を記録する。
func (c *Checker) checkTopic(ctx context.Context, topic *model.Topic) {
	broken := 0
	for _, link := range topic.ReferenceLinks {
		if c.checkLink(ctx, link) {
			if c.recorder != nil {
				c.recorder.RecordLinkCheckSuccess()
			}
			continue
		}

		broken++
		if c.recorder != nil {
			c.recorder.RecordLinkCheckFailure()
		}
		c.logger.Warn("リンク切れを検出しました",
			slog.String("topic_id", topic.ID),
			slog.String("url", link),
		)
	}

	if err := c.courseRepo.UpdateLinkCheckResult(ctx, topic.ID, time.Now(), broken); err != nil {
		c.logger.Error("リンク確認結果の記録に失敗しました",
			slog.String("topic_id", topic.ID),
			slog.String("error", err.Error()),
		)
	}
}

// checkLink は単一リンクの到達可否を返す。
// HEADを拒否するサーバーのためにGETへフォールバックする。
func (c *Checker) checkLink(ctx context.Context, url string) bool {
	status, err := c.request(ctx, http.MethodHead, url)
	if err != nil {
		return false
	}
	if status == http.StatusMethodNotAllowed {
		status, err = c.request(ctx, http.MethodGet, url)
		if err != nil {
			return false
		}
	}
	return status >= 200 && status < 400
}

// request は指定メソッドでリクエストを送り、ステータスコードを返す。
func (c *Checker) request(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	return resp.StatusCode, nil
}
