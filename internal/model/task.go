package model

import "time"

// Priority はタスクの優先度を表す。
type Priority string

const (
	// PriorityTop は最優先タスクを示す。
	PriorityTop Priority = "top"
	// PriorityMust は必須タスクを示す。
	PriorityMust Priority = "must"
	// PriorityShould は推奨タスクを示す。
	PriorityShould Priority = "should"
	// PriorityCould は任意タスクを示す。
	PriorityCould Priority = "could"
)

// IsValid は優先度が定義済みの値かを検証する。
func (p Priority) IsValid() bool {
	switch p {
	case PriorityTop, PriorityMust, PriorityShould, PriorityCould:
		return true
	}
	return false
}

// Task はユーザー個人のToDoタスクを表す。
// OwnerIDによるスコープ付けが必須であり、所有者以外から参照・変更されることはない。
type Task struct {
	ID        string
	OwnerID   string
	Text      string
	Completed bool
	Priority  Priority
	CreatedAt time.Time
}
