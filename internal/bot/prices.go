package bot

import (
	"sync"
	"time"

	"papertrade/pkg/utils"
)

// PriceTracker - in-memory таблица последних известных цен по символам
//
// Назначение:
// Единственный источник "последней цены" для риск-монитора и дашборда.
// Обновляется воркером WebSocket-потока биржи, читается из любого
// количества горутин.
//
// Чтение не блокируется на I/O: Last всегда отвечает мгновенно и может
// вернуть "цена неизвестна" (ok=false). Проверка рисков никогда не ждет
// сетевого запроса за ценой.
type PriceTracker struct {
	prices map[string]pricePoint
	mu     sync.RWMutex
}

type pricePoint struct {
	price     float64
	updatedAt time.Time
}

// NewPriceTracker создает пустой трекер цен
func NewPriceTracker() *PriceTracker {
	return &PriceTracker{
		prices: make(map[string]pricePoint),
	}
}

// Update записывает последнюю цену символа
// Неконечные и неположительные цены игнорируются - битый тик не должен
// затирать последнюю валидную цену
func (pt *PriceTracker) Update(symbol string, price float64) {
	if symbol == "" || price <= 0 || !utils.IsFinite(price) {
		return
	}

	pt.mu.Lock()
	pt.prices[symbol] = pricePoint{price: price, updatedAt: time.Now()}
	pt.mu.Unlock()

	PriceUpdatesTotal.WithLabelValues(symbol).Inc()
}

// Last возвращает последнюю известную цену символа
// ok=false если цена еще не поступала
func (pt *PriceTracker) Last(symbol string) (float64, bool) {
	pt.mu.RLock()
	point, ok := pt.prices[symbol]
	pt.mu.RUnlock()

	if !ok {
		return 0, false
	}
	return point.price, true
}

// UpdatedAt возвращает время последнего обновления цены символа
func (pt *PriceTracker) UpdatedAt(symbol string) (time.Time, bool) {
	pt.mu.RLock()
	point, ok := pt.prices[symbol]
	pt.mu.RUnlock()

	if !ok {
		return time.Time{}, false
	}
	return point.updatedAt, true
}

// Snapshot возвращает копию всех последних цен
// Используется для периодического broadcast в WebSocket hub
func (pt *PriceTracker) Snapshot() map[string]float64 {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	snapshot := make(map[string]float64, len(pt.prices))
	for symbol, point := range pt.prices {
		snapshot[symbol] = point.price
	}
	return snapshot
}

// Count возвращает количество отслеживаемых символов
func (pt *PriceTracker) Count() int {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return len(pt.prices)
}
