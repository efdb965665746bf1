package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"papertrade/internal/models"
	"papertrade/internal/service"
	"papertrade/pkg/ratelimit"
	"papertrade/pkg/retry"
	"papertrade/pkg/utils"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	binanceBaseURL = "https://fapi.binance.com"
	binanceWSBase  = "wss://fstream.binance.com/stream?streams="

	// exchangeInfo тяжелый endpoint - фильтры символа меняются редко,
	// кэшируем результат
	filtersCacheTTL = 1 * time.Hour
)

// компиляционная проверка соответствия интерфейсу
var _ service.FilterSource = (*BinanceClient)(nil)

// APIError представляет ошибку Binance API
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance api error (http %d, code %d): %s", e.HTTPStatus, e.Code, e.Message)
}

// Retryable: 5xx и 429 (rate limit) имеет смысл повторять,
// 4xx - ошибка запроса, повтор не поможет
func (e *APIError) Retryable() bool {
	return e.HTTPStatus >= 500 || e.HTTPStatus == http.StatusTooManyRequests
}

// ErrSymbolNotListed возвращается когда биржа не знает такой символ
type ErrSymbolNotListed struct {
	Symbol string
}

func (e *ErrSymbolNotListed) Error() string {
	return fmt.Sprintf("symbol %s is not listed on the exchange", e.Symbol)
}

func (e *ErrSymbolNotListed) Retryable() bool {
	return false
}

// cachedFilters - запись кэша фильтров символа
type cachedFilters struct {
	filters   models.SymbolFilters
	fetchedAt time.Time
}

// BinanceClient - клиент публичного API Binance Futures
//
// Назначение:
// Два публичных потока данных для paper-трейдинга:
// 1. REST exchangeInfo - фильтры символов (step_size, min_qty, min_notional)
// 2. WebSocket miniTicker - последние цены в реальном времени
//
// Приватные endpoints (ордера, баланс) не используются: исполнение
// симулируется локально, API ключи не нужны.
//
// Использование:
// 1. Создать клиент: client := NewBinanceClient()
// 2. Фильтры: client.GetSymbolFilters(ctx, "BTCUSDT")
// 3. Поток цен: client.StartTickerStream(symbols, onPrice)
// 4. Закрыть: client.Close()
type BinanceClient struct {
	baseURL    string
	httpClient *http.Client

	// Rate limiter для REST запросов
	// Binance Futures: weight-based, exchangeInfo дорогой - держим скромный лимит
	limiter *ratelimit.RateLimiter

	// Кэш фильтров символов
	filtersCache map[string]cachedFilters
	cacheMu      sync.RWMutex

	// WebSocket manager потока цен
	wsManager *WSReconnectManager
	wsMu      sync.Mutex

	log *utils.Logger
}

// NewBinanceClient создает новый клиент Binance
// Использует глобальный HTTP клиент с connection pooling
func NewBinanceClient() *BinanceClient {
	return &BinanceClient{
		baseURL:      binanceBaseURL,
		httpClient:   GetGlobalHTTPClient().GetClient(),
		limiter:      ratelimit.NewRateLimiter(5, 10),
		filtersCache: make(map[string]cachedFilters),
		log:          utils.L().WithComponent("binance"),
	}
}

// ============================================================
// REST: фильтры символов
// ============================================================

// exchangeInfoResponse - подмножество ответа /fapi/v1/exchangeInfo
type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol  string `json:"symbol"`
		Status  string `json:"status"`
		Filters []struct {
			FilterType string `json:"filterType"`
			StepSize   string `json:"stepSize"`
			MinQty     string `json:"minQty"`
			Notional   string `json:"notional"`
		} `json:"filters"`
	} `json:"symbols"`
}

// GetSymbolFilters возвращает биржевые фильтры символа
//
// Результат кэшируется на filtersCacheTTL: фильтры меняются при делистинге
// или изменении параметров контракта, это редкие события.
// Сетевые ошибки и 5xx повторяются с backoff, 4xx - нет.
func (c *BinanceClient) GetSymbolFilters(ctx context.Context, symbol string) (models.SymbolFilters, error) {
	if err := utils.ValidateSymbol(symbol); err != nil {
		return models.SymbolFilters{}, err
	}

	c.cacheMu.RLock()
	cached, ok := c.filtersCache[symbol]
	c.cacheMu.RUnlock()

	if ok && time.Since(cached.fetchedAt) < filtersCacheTTL {
		return cached.filters, nil
	}

	cfg := retry.ConservativeConfig()
	cfg.RetryIf = func(err error) bool {
		return retry.RetryIfNotContext(err) && retry.IsRetryable(err)
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.log.Warn("exchangeInfo retry",
			utils.Symbol(symbol),
			utils.Int("attempt", attempt),
			utils.Err(err),
		)
	}

	filters, err := retry.DoWithResult(ctx, func() (models.SymbolFilters, error) {
		return c.fetchSymbolFilters(ctx, symbol)
	}, cfg)
	if err != nil {
		// Протухший кэш лучше чем отказ: биржа недоступна, фильтры стабильны
		if ok {
			c.log.Warn("exchangeInfo failed, using stale filters cache",
				utils.Symbol(symbol),
				utils.Err(err),
			)
			return cached.filters, nil
		}
		return models.SymbolFilters{}, err
	}

	c.cacheMu.Lock()
	c.filtersCache[symbol] = cachedFilters{filters: filters, fetchedAt: time.Now()}
	c.cacheMu.Unlock()

	return filters, nil
}

// fetchSymbolFilters выполняет запрос exchangeInfo и извлекает фильтры символа
func (c *BinanceClient) fetchSymbolFilters(ctx context.Context, symbol string) (models.SymbolFilters, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.SymbolFilters{}, err
	}

	reqURL := c.baseURL + "/fapi/v1/exchangeInfo?symbol=" + symbol

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.SymbolFilters{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.SymbolFilters{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.SymbolFilters{}, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		// тело ошибки может быть не-JSON (например, HTML от балансировщика)
		_ = json.Unmarshal(body, &apiErr)
		return models.SymbolFilters{}, &APIError{
			HTTPStatus: resp.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Msg,
		}
	}

	var info exchangeInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return models.SymbolFilters{}, fmt.Errorf("decode exchangeInfo: %w", err)
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}

		var filters models.SymbolFilters
		for _, f := range s.Filters {
			switch f.FilterType {
			case "LOT_SIZE":
				filters.StepSize = parsePositiveFloat(f.StepSize)
				filters.MinQty = parsePositiveFloat(f.MinQty)
			case "MIN_NOTIONAL":
				filters.MinNotional = parsePositiveFloat(f.Notional)
			}
		}
		return filters, nil
	}

	return models.SymbolFilters{}, &ErrSymbolNotListed{Symbol: symbol}
}

// parsePositiveFloat конвертирует строковое значение фильтра в *float64
// Нулевое или невалидное значение = ограничение не задано (nil)
func parsePositiveFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// ============================================================
// WebSocket: поток цен
// ============================================================

// miniTickerEvent - событие <symbol>@miniTicker из combined stream
type miniTickerEvent struct {
	Stream string `json:"stream"`
	Data   struct {
		EventType string `json:"e"`
		EventTime int64  `json:"E"` // unix millis
		Symbol    string `json:"s"`
		Close     string `json:"c"` // последняя цена
	} `json:"data"`
}

// PriceHandler вызывается на каждый тик цены из биржевого потока
type PriceHandler func(symbol string, price float64, at time.Time)

// StartTickerStream подключается к combined miniTicker потоку
//
// Поток переживает разрывы соединения: WSReconnectManager переподключается
// с exponential backoff, подписка восстанавливается автоматически (streams
// зашиты в URL подключения).
func (c *BinanceClient) StartTickerStream(symbols []string, handler PriceHandler) error {
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to subscribe")
	}
	if handler == nil {
		return fmt.Errorf("nil price handler")
	}

	streams := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if err := utils.ValidateSymbol(symbol); err != nil {
			return fmt.Errorf("symbol %q: %w", symbol, err)
		}
		streams = append(streams, strings.ToLower(symbol)+"@miniTicker")
	}

	wsURL := binanceWSBase + strings.Join(streams, "/")

	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.wsManager != nil {
		return fmt.Errorf("ticker stream already started")
	}

	manager := NewWSReconnectManager("binance", wsURL, DefaultWSReconnectConfig())

	manager.SetOnMessage(func(raw []byte) {
		c.handleTickerMessage(raw, handler)
	})
	manager.SetOnConnect(func() {
		c.log.Info("ticker stream connected", utils.Int("symbols", len(symbols)))
	})
	manager.SetOnDisconnect(func(err error) {
		if err != nil {
			c.log.Warn("ticker stream disconnected", utils.Err(err))
		}
	})

	if err := manager.Connect(); err != nil {
		return fmt.Errorf("connect ticker stream: %w", err)
	}

	c.wsManager = manager
	return nil
}

// handleTickerMessage разбирает сообщение потока и передает цену в handler
func (c *BinanceClient) handleTickerMessage(raw []byte, handler PriceHandler) {
	var event miniTickerEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		c.log.Debug("skip unparseable stream message", utils.Err(err))
		return
	}

	if event.Data.EventType != "24hrMiniTicker" || event.Data.Symbol == "" {
		return
	}

	price, err := strconv.ParseFloat(event.Data.Close, 64)
	if err != nil || price <= 0 {
		return
	}

	at := time.UnixMilli(event.Data.EventTime)
	if event.Data.EventTime == 0 {
		at = time.Now()
	}

	handler(event.Data.Symbol, price, at)
}

// StreamConnected сообщает, установлено ли WebSocket соединение с биржей
func (c *BinanceClient) StreamConnected() bool {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	return c.wsManager != nil && c.wsManager.IsConnected()
}

// Close останавливает поток цен и освобождает соединения
func (c *BinanceClient) Close() error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.wsManager != nil {
		err := c.wsManager.Close()
		c.wsManager = nil
		return err
	}
	return nil
}
