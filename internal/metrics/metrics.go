// Package metrics は Prometheus のメトリクスを提供します。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics はアプリケーションのコレクターをまとめます。nil でも各メソッドは安全に呼べます。
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	CatalogRequests   *prometheus.CounterVec
	SessionsCreated   prometheus.Counter
	SessionsDestroyed prometheus.Counter
	BookmarkMutations *prometheus.CounterVec
}

// New は reg にコレクターを登録した Metrics を作成します。
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CatalogRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_requests_total",
				Help: "Total movie catalog calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total sessions created",
		}),
		SessionsDestroyed: f.NewCounter(prometheus.CounterOpts{
			Name: "sessions_destroyed_total",
			Help: "Total sessions destroyed",
		}),
		BookmarkMutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookmark_mutations_total",
				Help: "Total bookmark mutations by operation and result",
			},
			[]string{"op", "result"},
		),
	}
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

func (m *Metrics) SessionDestroyed() {
	if m == nil {
		return
	}
	m.SessionsDestroyed.Inc()
}

func (m *Metrics) CatalogRequest(operation, result string) {
	if m == nil {
		return
	}
	m.CatalogRequests.WithLabelValues(operation, result).Inc()
}

// BookmarkMutation は op（add/remove）ごとの結果を記録します。
func (m *Metrics) BookmarkMutation(op, result string) {
	if m == nil {
		return
	}
	m.BookmarkMutations.WithLabelValues(op, result).Inc()
}

// Middleware はリクエスト数と処理時間を記録します。
// ラベルにはパスではなくルートのパターンを使います。未登録のルートは "unmatched" です。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
