package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики торгового ядра
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для алертов (повторяющиеся ошибки закрытия,
//   пропуски тиков из-за медленных проходов)

// ============ Риск-монитор ============

// RiskPassesTotal - количество выполненных проходов оценки рисков
var RiskPassesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "papertrade",
		Subsystem: "risk",
		Name:      "passes_total",
		Help:      "Total number of completed risk evaluation passes",
	},
)

// RiskTicksSkippedTotal - тики таймера, пропущенные из-за незавершенного прохода
// Рост счетчика означает что проход не укладывается в интервал
var RiskTicksSkippedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "papertrade",
		Subsystem: "risk",
		Name:      "ticks_skipped_total",
		Help:      "Timer ticks skipped because a pass was still running",
	},
)

// RiskPassDuration - длительность прохода оценки рисков
var RiskPassDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "papertrade",
		Subsystem: "risk",
		Name:      "pass_duration_seconds",
		Help:      "Duration of a risk evaluation pass in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
)

// TriggersTotal - сработавшие цели по видам (TP/SL)
var TriggersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "papertrade",
		Subsystem: "risk",
		Name:      "triggers_total",
		Help:      "Total number of fired TP/SL triggers",
	},
	[]string{"kind", "symbol"},
)

// TriggerErrorsTotal - ошибки обработчика закрытия
// Позиция остается в кэше и будет переоценена на следующем тике
var TriggerErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "papertrade",
		Subsystem: "risk",
		Name:      "trigger_errors_total",
		Help:      "Close handler failures; positions are retried on next tick",
	},
)

// FetchErrorsTotal - ошибки загрузки открытых позиций
var FetchErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "papertrade",
		Subsystem: "risk",
		Name:      "fetch_errors_total",
		Help:      "Failed open-position fetches (pass aborted, timer survives)",
	},
)

// CacheRefreshesTotal - перезагрузки кэша позиций из хранилища
var CacheRefreshesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "papertrade",
		Subsystem: "risk",
		Name:      "cache_refreshes_total",
		Help:      "Position cache refreshes from the store",
	},
)

// ============ Расчет объемов ============

// SizingRejectionsTotal - отклоненные расчеты объема по причинам
var SizingRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "papertrade",
		Subsystem: "sizing",
		Name:      "rejections_total",
		Help:      "Quantity calculations rejected by validation reason",
	},
	[]string{"reason"},
)

// ============ Поток цен ============

// PriceUpdatesTotal - принятые обновления цен по символам
var PriceUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "papertrade",
		Subsystem: "feed",
		Name:      "price_updates_total",
		Help:      "Accepted price updates per symbol",
	},
	[]string{"symbol"},
)
