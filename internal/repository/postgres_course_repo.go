package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/studydesk/internal/model"
)

// PostgresCourseRepo はPostgreSQLを使用したコースリポジトリ。
type PostgresCourseRepo struct {
	db *sql.DB
}

// NewPostgresCourseRepo はPostgresCourseRepoを生成する。
func NewPostgresCourseRepo(db *sql.DB) *PostgresCourseRepo {
	return &PostgresCourseRepo{db: db}
}

// ListCourses は全コースを作成日時の昇順で返す。
func (r *PostgresCourseRepo) ListCourses(ctx context.Context) ([]*model.Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, created_at
		 FROM courses
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		course := &model.Course{}
		if err := rows.Scan(&course.ID, &course.Title, &course.Description, &course.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	return courses, nil
}

// FindCourseByID は指定IDのコースを取得する。見つからない場合はnilを返す。
func (r *PostgresCourseRepo) FindCourseByID(ctx context.Context, id string) (*model.Course, error) {
	course := &model.Course{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, created_at FROM courses WHERE id = $1`,
		id,
	).Scan(&course.ID, &course.Title, &course.Description, &course.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find course by ID: %w", err)
	}

	return course, nil
}

// ListTopicsByCourseID はコースのトピック一覧をorder_indexの昇順で返す。
func (r *PostgresCourseRepo) ListTopicsByCourseID(ctx context.Context, courseID string) ([]*model.Topic, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, title, description, materials, reference_links,
		        order_index, link_checked_at, broken_link_count
		 FROM course_topics
		 WHERE course_id = $1
		 ORDER BY order_index ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var topics []*model.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topics: %w", err)
	}

	return topics, nil
}

// FindTopicByID は指定IDのトピックを取得する。見つからない場合はnilを返す。
func (r *PostgresCourseRepo) FindTopicByID(ctx context.Context, id string) (*model.Topic, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, course_id, title, description, materials, reference_links,
		        order_index, link_checked_at, broken_link_count
		 FROM course_topics
		 WHERE id = $1`,
		id,
	)

	topic, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return topic, nil
}

// CreateCourseWithTopics はコースと全トピックを同一トランザクションで作成する。
// いずれかのトピックの挿入に失敗した場合は全体をロールバックする。
func (r *PostgresCourseRepo) CreateCourseWithTopics(ctx context.Context, course *model.Course, topics []*model.Topic) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO courses (id, title, description, created_at)
		 VALUES ($1, $2, $3, $4)`,
		course.ID, course.Title, course.Description, course.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}

	for _, topic := range topics {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO course_topics
			 (id, course_id, title, description, materials, reference_links, order_index, broken_link_count)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			topic.ID, topic.CourseID, topic.Title, topic.Description, topic.Materials,
			pq.Array(topic.ReferenceLinks), topic.OrderIndex, topic.BrokenLinkCount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert topic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListTopicsNeedingLinkCheck は参照リンクの到達確認が必要なトピックを返す。
// 未確認（link_checked_at IS NULL）を優先し、次に確認日時が古い順に処理する。
func (r *PostgresCourseRepo) ListTopicsNeedingLinkCheck(ctx context.Context, checkedBefore time.Time, limit int) ([]*model.Topic, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, title, description, materials, reference_links,
		        order_index, link_checked_at, broken_link_count
		 FROM course_topics
		 WHERE array_length(reference_links, 1) > 0
		   AND (link_checked_at IS NULL OR link_checked_at < $1)
		 ORDER BY link_checked_at ASC NULLS FIRST
		 LIMIT $2`,
		checkedBefore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics needing link check: %w", err)
	}
	defer rows.Close()

	var topics []*model.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topics: %w", err)
	}

	return topics, nil
}

// UpdateLinkCheckResult はトピックの到達確認結果を記録する。
func (r *PostgresCourseRepo) UpdateLinkCheckResult(ctx context.Context, topicID string, checkedAt time.Time, brokenCount int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE course_topics
		 SET link_checked_at = $1, broken_link_count = $2
		 WHERE id = $3`,
		checkedAt, brokenCount, topicID,
	)
	if err != nil {
		return fmt.Errorf("failed to update link check result: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("topic not found: %s", topicID)
	}

	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTopic は1行をTopicに変換する。
func scanTopic(row rowScanner) (*model.Topic, error) {
	topic := &model.Topic{}
	var links pq.StringArray
	var checkedAt sql.NullTime

	err := row.Scan(
		&topic.ID, &topic.CourseID, &topic.Title, &topic.Description, &topic.Materials,
		&links, &topic.OrderIndex, &checkedAt, &topic.BrokenLinkCount,
	)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan topic: %w", err)
	}

	topic.ReferenceLinks = []string(links)
	if checkedAt.Valid {
		topic.LinkCheckedAt = &checkedAt.Time
	}

	return topic, nil
}

// compile-time interface check
var _ CourseRepository = (*PostgresCourseRepo)(nil)
