// Package model はドメインモデルを定義する。
package model

import "time"

// Identity は認証済みユーザーの身元情報を表す。
// 外部認証プロバイダーによるトークン検証の結果としてのみ生成され、
// リクエスト処理中はイミュータブルとして扱う。
// サービス層が独自にIdentityを組み立てることはない。
type Identity struct {
	UserID   string
	Email    string
	Username string
	FullName string
	Role     string
}

// UserProfile はローカルDBに保持するユーザープロフィール行を表す。
// 認証情報（パスワード等）は外部プロバイダー側にのみ存在する。
type UserProfile struct {
	ID        string
	Email     string
	Username  string
	FullName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
