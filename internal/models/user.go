// Package models はドメインのエンティティとストア共通のエラーを定義します。
package models

import (
	"errors"
	"time"
)

// ErrDuplicate は一意制約違反でストアが書き込みを拒否したことを表します。
var ErrDuplicate = errors.New("duplicate record")

// User は登録済みユーザーです。登録後に更新されることはありません。
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

