// Package apperr はアプリケーション共通のエラー分類と HTTP ステータスへの対応付けを提供します。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind はエラーの分類です。
type Kind string

const (
	KindInvalid      Kind = "INVALID_INPUT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindUpstream     Kind = "UPSTREAM_FAILURE"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error は分類・クライアント向けメッセージ・原因を保持するエラーです。
// Message はそのままレスポンスに載るため、内部情報を含めないこと。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status は分類に対応する HTTP ステータスを返します。
func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

// StatusOf は分類に対応する HTTP ステータスを返します。
func StatusOf(kind Kind) int {
	switch kind {
	case KindInvalid:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Invalid は入力不備を表すエラーを作成します。
func Invalid(message string) *Error {
	return &Error{Kind: KindInvalid, Message: message}
}

// Unauthorized は認証失敗を表すエラーを作成します。
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NotFound は対象が存在しないことを表すエラーを作成します。
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict は重複などの競合を表すエラーを作成します。
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Upstream は外部サービスの失敗を表すエラーを作成します。
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// Internal は想定外の失敗を表すエラーを作成します。
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf は err の分類を返します。*Error を含まないエラーは KindInternal です。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is は err が kind に分類されるかを返します。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// From は err を *Error に変換します。分類のないエラーは Internal として包みます。
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}
