// Package migrations はgooseで適用するSQLマイグレーションを埋め込みます。
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
