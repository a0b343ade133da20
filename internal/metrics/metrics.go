// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証イベントの結果ラベル
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultEmailTaken         = "email_taken"
	ResultError              = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービスとHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordLogin(result string)
	RecordSignup(result string)
	RecordLogout()
	RecordHashDuration(op string, duration time.Duration)
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
	RecordRateLimited(limiter string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins       *prometheus.CounterVec
	signups      *prometheus.CounterVec
	logouts      prometheus.Counter
	hashDuration *prometheus.HistogramVec
	httpStatus   *prometheus.CounterVec
	httpLatency  prometheus.Histogram
	rateLimited  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_login_total",
			Help: "結果別のログイン試行数",
		}, []string{"result"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_signup_total",
			Help: "結果別のユーザー登録試行数",
		}, []string{"result"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contactbook_logout_total",
			Help: "ログアウトの合計数",
		}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contactbook_password_hash_duration_seconds",
			Help:    "パスワード鍵導出の所要時間（秒）",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_http_requests_total",
			Help: "メソッドとステータスコード別のレスポンス数",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contactbook_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_rate_limited_total",
			Help: "レート制限で拒否されたリクエスト数",
		}, []string{"limiter"}),
	}

	reg.MustRegister(
		c.logins,
		c.signups,
		c.logouts,
		c.hashDuration,
		c.httpStatus,
		c.httpLatency,
		c.rateLimited,
	)

	return c
}

// RecordLogin はログイン試行を結果ラベル付きで記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordSignup はユーザー登録試行を結果ラベル付きで記録する。
func (c *Collector) RecordSignup(result string) {
	c.signups.WithLabelValues(result).Inc()
}

// RecordLogout はログアウトを記録する。
func (c *Collector) RecordLogout() {
	c.logouts.Inc()
}

// RecordHashDuration は鍵導出の所要時間を記録する。opは "hash" または "verify"。
func (c *Collector) RecordHashDuration(op string, duration time.Duration) {
	c.hashDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordHTTPRequest はHTTPレスポンスのステータスと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited(limiter string) {
	c.rateLimited.WithLabelValues(limiter).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
