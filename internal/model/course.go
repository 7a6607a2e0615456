package model

import "time"

// Course は公開コースを表す。所有者を持たず、全ユーザーが閲覧できる。
type Course struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
}

// Topic はコース内のトピックを表す。
// 同一コース内ではOrderIndex昇順で提示される。
type Topic struct {
	ID              string
	CourseID        string
	Title           string
	Description     string
	Materials       string
	ReferenceLinks  []string
	OrderIndex      int
	LinkCheckedAt   *time.Time
	BrokenLinkCount int
}
