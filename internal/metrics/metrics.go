// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアとハンドラー層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordSignup()
	RecordIncidentOpened()
	RecordIncidentResolved()
	RecordPublicPageRender()
	RecordSubscription()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus        *prometheus.CounterVec
	requestLatency    prometheus.Histogram
	signups           prometheus.Counter
	incidentsOpened   prometheus.Counter
	incidentsResolved prometheus.Counter
	publicRenders     prometheus.Counter
	subscriptions     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statusdeck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "statusdeck_request_latency_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statusdeck_signups_total",
			Help: "ユーザー登録の合計数",
		}),
		incidentsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statusdeck_incidents_opened_total",
			Help: "作成されたインシデントの合計数",
		}),
		incidentsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statusdeck_incidents_resolved_total",
			Help: "解決されたインシデントの合計数",
		}),
		publicRenders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statusdeck_public_page_renders_total",
			Help: "公開ステータスページの表示回数",
		}),
		subscriptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statusdeck_subscriptions_total",
			Help: "登録された購読の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.signups,
		c.incidentsOpened,
		c.incidentsResolved,
		c.publicRenders,
		c.subscriptions,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSignup はユーザー登録を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordIncidentOpened はインシデント作成を記録する。
func (c *Collector) RecordIncidentOpened() {
	c.incidentsOpened.Inc()
}

// RecordIncidentResolved はインシデント解決を記録する。
func (c *Collector) RecordIncidentResolved() {
	c.incidentsResolved.Inc()
}

// RecordPublicPageRender は公開ページの表示を記録する。
func (c *Collector) RecordPublicPageRender() {
	c.publicRenders.Inc()
}

// RecordSubscription は購読登録を記録する。
func (c *Collector) RecordSubscription() {
	c.subscriptions.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
