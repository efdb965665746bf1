package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"papertrade/internal/models"
	"papertrade/pkg/utils"
)

// watcher.go - риск-монитор: фоновая проверка TP/SL целей открытых позиций
//
// По фиксированному интервалу сравнивает последнюю известную цену с целями
// каждой открытой позиции и ровно один раз за проход вызывает обработчик
// закрытия для пересеченной цели.
//
// Гарантии:
// - Проходы никогда не выполняются параллельно (non-blocking try-lock:
//   тик, пришедший во время работающего прохода, пропускается целиком)
// - Список позиций кэшируется на короткий TTL; после любого срабатывания
//   кэш принудительно устаревает, чтобы следующий тик перечитал
//   авторитетное состояние
// - Ошибка обработчика закрытия изолируется на уровне позиции: остальные
//   позиции прохода оцениваются, а неудавшаяся остается в кэше и
//   ретраится каждым следующим тиком
// - Ошибка загрузки позиций прерывает только текущий проход, таймер живет

// Интервалы по умолчанию и нижняя граница интервала
//
// Нижняя граница ограничивает худший случай нагрузки на хранилище
// при некорректной конфигурации.
const (
	DefaultWatchInterval = 750 * time.Millisecond
	DefaultCacheTTL      = 1000 * time.Millisecond
	MinWatchInterval     = 100 * time.Millisecond
)

// WatcherConfig - зависимости и параметры риск-монитора
type WatcherConfig struct {
	// Interval - период между проходами (по умолчанию 750ms, минимум 100ms)
	Interval time.Duration

	// CacheTTL - время жизни кэша списка позиций (по умолчанию 1s)
	CacheTTL time.Duration

	// FetchPositions загружает открытые позиции из хранилища (может вернуть ошибку)
	FetchPositions func(ctx context.Context) ([]models.Position, error)

	// LastPrice возвращает последнюю известную цену символа.
	// Должен быть неблокирующим (in-memory таблица, не сетевой запрос):
	// медленный lookup растягивает весь проход.
	LastPrice func(symbol string) (float64, bool)

	// OnTrigger вызывается при пересечении цели (может вернуть ошибку).
	// Единственная операция прохода, которой позволено делать I/O
	// помимо FetchPositions.
	OnTrigger func(ctx context.Context, pos models.Position, kind models.TriggerKind, price float64) error

	Logger *utils.Logger
}

// Watcher - риск-монитор открытых позиций
//
// Кэш позиций приватен и мутируется только изнутри прохода
// (single-writer); мьютекс на данные не нужен, потому что параллельных
// проходов не бывает. Кэш - оптимизация, а не источник истины.
type Watcher struct {
	cfg WatcherConfig
	log *utils.Logger

	// Non-blocking try-lock прохода: 1 = проход выполняется
	running int32

	// Кэш открытых позиций (single-writer, только из прохода)
	cachePositions []models.Position
	cacheFetchedAt time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// StartWatcher создает риск-монитор и запускает цикл проверок.
//
// Первый проход выполняется сразу при старте, не дожидаясь первого тика -
// иначе срабатывание могло бы задержаться на целый интервал.
//
// FetchPositions, LastPrice и OnTrigger обязательны.
func StartWatcher(cfg WatcherConfig) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWatchInterval
	}
	if cfg.Interval < MinWatchInterval {
		cfg.Interval = MinWatchInterval
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	w := newWatcher(cfg)
	go w.run()
	return w
}

// newWatcher создает монитор без запуска цикла
func newWatcher(cfg WatcherConfig) *Watcher {
	log := cfg.Logger
	if log == nil {
		log = utils.L()
	}
	return &Watcher{
		cfg:    cfg,
		log:    log.WithComponent("risk_watcher"),
		stopCh: make(chan struct{}),
	}
}

// run - главный цикл: немедленный проход, затем тики таймера
func (w *Watcher) run() {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.tick()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

// Stop останавливает таймер. Идемпотентен.
//
// Не ждет и не прерывает выполняющийся проход - тот завершается
// естественно, после чего новых тиков не будет.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// tick выполняет один проход под re-entrancy guard
//
// Guard освобождается через defer в любом исходе, включая панику внутри
// прохода - иначе монитор навсегда остался бы заблокированным.
func (w *Watcher) tick() {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		RiskTicksSkippedTotal.Inc()
		return
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("risk pass panicked", utils.Any("panic", r))
		}
		RiskPassDuration.Observe(time.Since(start).Seconds())
		atomic.StoreInt32(&w.running, 0)
	}()

	w.pass(context.Background())
	RiskPassesTotal.Inc()
}

// pass - один проход оценки: загрузка позиций и проверка целей по порядку
func (w *Watcher) pass(ctx context.Context) {
	positions, err := w.openPositions(ctx)
	if err != nil {
		FetchErrorsTotal.Inc()
		w.log.Warn("failed to fetch open positions, pass aborted", utils.Err(err))
		return
	}

	// Дедупликация по id внутри прохода: при дублях в загруженном списке
	// побеждает первое вхождение, обработчик закрытия не вызовется дважды
	seen := make(map[int]struct{}, len(positions))

	for _, pos := range positions {
		if _, dup := seen[pos.ID]; dup {
			continue
		}
		seen[pos.ID] = struct{}{}
		w.evaluate(ctx, pos)
	}
}

// openPositions возвращает кэшированный список, если кэш свежее TTL и
// непуст, иначе перечитывает хранилище
func (w *Watcher) openPositions(ctx context.Context) ([]models.Position, error) {
	if len(w.cachePositions) > 0 && time.Since(w.cacheFetchedAt) < w.cfg.CacheTTL {
		return w.cachePositions, nil
	}

	fetched, err := w.cfg.FetchPositions(ctx)
	if err != nil {
		return nil, err
	}

	w.cachePositions = fetched
	w.cacheFetchedAt = time.Now()
	CacheRefreshesTotal.Inc()
	return fetched, nil
}

// evaluate проверяет цели одной позиции и обрабатывает срабатывание
func (w *Watcher) evaluate(ctx context.Context, pos models.Position) {
	// Объем должен быть определим (сохраненный или выведенный из
	// size_usd/entry_price), иначе позиция пропускается на этот тик
	if _, ok := pos.EffectiveQty(); !ok {
		return
	}

	price, ok := w.cfg.LastPrice(pos.Symbol)
	if !ok || !utils.IsFinite(price) {
		return
	}

	kind, fired := EvaluateTrigger(&pos, price)
	if !fired {
		return
	}

	w.log.Info("price target crossed",
		utils.PositionID(pos.ID),
		utils.Symbol(pos.Symbol),
		utils.Side(pos.Side),
		utils.Trigger(string(kind)),
		utils.Price(price),
	)

	if err := w.cfg.OnTrigger(ctx, pos, kind, price); err != nil {
		TriggerErrorsTotal.Inc()
		// Позиция остается в кэше и будет ретраиться каждым следующим
		// тиком, пока не закроется или пользователь не изменит цели
		w.log.Warn("close handler failed, position stays open",
			utils.PositionID(pos.ID),
			utils.Symbol(pos.Symbol),
			utils.Err(err),
		)
		return
	}

	TriggersTotal.WithLabelValues(string(kind), pos.Symbol).Inc()
	w.dropFromCache(pos.ID)
}

// dropFromCache убирает закрытую позицию из кэша и принудительно
// устаревает кэш: следующий тик перечитает авторитетное состояние,
// не дожидаясь, пока хранилище отразит удаление
func (w *Watcher) dropFromCache(id int) {
	next := make([]models.Position, 0, len(w.cachePositions))
	for _, p := range w.cachePositions {
		if p.ID != id {
			next = append(next, p)
		}
	}
	w.cachePositions = next
	w.cacheFetchedAt = time.Time{}
}

// EvaluateTrigger применяет правило срабатывания к позиции при данной цене.
//
// Сравнения включают точное равенство (>=/<=), TP проверяется раньше SL:
//   - LONG:  price >= TP ⇒ TP, иначе price <= SL ⇒ SL
//   - SHORT: price <= TP ⇒ TP, иначе price >= SL ⇒ SL
//
// Позиция без настроенных целей не оценивается (не ошибка).
func EvaluateTrigger(pos *models.Position, price float64) (models.TriggerKind, bool) {
	tp, sl := pos.TPPrice, pos.SLPrice
	if tp == nil && sl == nil {
		return "", false
	}

	if pos.Side == models.SideShort {
		if tp != nil && price <= *tp {
			return models.TriggerTP, true
		}
		if sl != nil && price >= *sl {
			return models.TriggerSL, true
		}
		return "", false
	}

	if tp != nil && price >= *tp {
		return models.TriggerTP, true
	}
	if sl != nil && price <= *sl {
		return models.TriggerSL, true
	}
	return "", false
}
