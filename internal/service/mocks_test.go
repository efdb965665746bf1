package service

import (
	"context"
	"sort"
	"time"

	"papertrade/internal/models"
	"papertrade/internal/repository"
)

// ============ Mock PositionRepository ============

type MockPositionRepository struct {
	positions map[int]*models.Position
	nextID    int

	createErr error
	getErr    error
	closeErr  error
	updateErr error
	deleteErr error
}

func NewMockPositionRepository() *MockPositionRepository {
	return &MockPositionRepository{
		positions: make(map[int]*models.Position),
		nextID:    1,
	}
}

func (m *MockPositionRepository) Create(position *models.Position) error {
	if m.createErr != nil {
		return m.createErr
	}
	position.ID = m.nextID
	m.nextID++
	position.Status = models.PositionStatusOpen
	position.OpenedAt = time.Now()
	stored := *position
	m.positions[position.ID] = &stored
	return nil
}

func (m *MockPositionRepository) GetByID(id int) (*models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if position, exists := m.positions[id]; exists {
		copied := *position
		return &copied, nil
	}
	return nil, repository.ErrPositionNotFound
}

func (m *MockPositionRepository) GetOpen() ([]models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []models.Position
	for _, p := range m.positions {
		if p.Status == models.PositionStatusOpen {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockPositionRepository) GetClosed(limit int) ([]models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []models.Position
	for _, p := range m.positions {
		if p.Status == models.PositionStatusClosed {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockPositionRepository) Close(id int, exitPrice float64, exitReason string, pnl float64) error {
	if m.closeErr != nil {
		return m.closeErr
	}
	position, exists := m.positions[id]
	if !exists {
		return repository.ErrPositionNotFound
	}
	if position.Status == models.PositionStatusClosed {
		return repository.ErrPositionClosed
	}
	now := time.Now()
	position.Status = models.PositionStatusClosed
	position.ExitPrice = &exitPrice
	position.ExitReason = exitReason
	position.Pnl = pnl
	position.ClosedAt = &now
	return nil
}

func (m *MockPositionRepository) UpdateTargets(id int, tpPrice, slPrice *float64) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	position, exists := m.positions[id]
	if !exists {
		return repository.ErrPositionNotFound
	}
	if position.Status == models.PositionStatusClosed {
		return repository.ErrPositionClosed
	}
	position.TPPrice = tpPrice
	position.SLPrice = slPrice
	return nil
}

func (m *MockPositionRepository) Delete(id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.positions[id]; !exists {
		return repository.ErrPositionNotFound
	}
	delete(m.positions, id)
	return nil
}

func (m *MockPositionRepository) CountOpen() (int, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	count := 0
	for _, p := range m.positions {
		if p.Status == models.PositionStatusOpen {
			count++
		}
	}
	return count, nil
}

func (m *MockPositionRepository) GetSummary() (*models.PositionSummary, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	summary := &models.PositionSummary{}
	for _, p := range m.positions {
		if p.Status == models.PositionStatusOpen {
			summary.OpenCount++
			continue
		}
		summary.ClosedCount++
		summary.TotalPnl += p.Pnl
		switch p.ExitReason {
		case models.ExitReasonTP:
			summary.TPCount++
		case models.ExitReasonSL:
			summary.SLCount++
		}
	}
	return summary, nil
}

// ============ Mock SettingsRepository ============

type MockSettingsRepository struct {
	settings  *models.Settings
	getErr    error
	updateErr error
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{
		settings: &models.Settings{
			ID:             1,
			OrderAmountUSD: 100,
			NotificationPrefs: models.NotificationPreferences{
				Open:       true,
				TakeProfit: true,
				StopLoss:   true,
				Manual:     true,
				Signal:     true,
				Error:      true,
			},
			UpdatedAt: time.Now(),
		},
	}
}

func (m *MockSettingsRepository) Get() (*models.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	copied := *m.settings
	return &copied, nil
}

func (m *MockSettingsRepository) Update(settings *models.Settings) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	copied := *settings
	m.settings = &copied
	return nil
}

func (m *MockSettingsRepository) UpdateNotificationPrefs(prefs models.NotificationPreferences) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.settings.NotificationPrefs = prefs
	return nil
}

func (m *MockSettingsRepository) UpdateOrderAmount(amountUSD float64) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.settings.OrderAmountUSD = amountUSD
	return nil
}

func (m *MockSettingsRepository) GetNotificationPrefs() (*models.NotificationPreferences, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	prefs := m.settings.NotificationPrefs
	return &prefs, nil
}

func (m *MockSettingsRepository) ResetToDefaults() error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.settings = NewMockSettingsRepository().settings
	return nil
}

// ============ Mock SignalRepository ============

type MockSignalRepository struct {
	signals   map[int]*models.Signal
	nextID    int
	createErr error
	getErr    error
}

func NewMockSignalRepository() *MockSignalRepository {
	return &MockSignalRepository{
		signals: make(map[int]*models.Signal),
		nextID:  1,
	}
}

func (m *MockSignalRepository) Create(signal *models.Signal) error {
	if m.createErr != nil {
		return m.createErr
	}
	signal.ID = m.nextID
	m.nextID++
	signal.CreatedAt = time.Now()
	stored := *signal
	m.signals[signal.ID] = &stored
	return nil
}

func (m *MockSignalRepository) GetByID(id int) (*models.Signal, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if signal, exists := m.signals[id]; exists {
		copied := *signal
		return &copied, nil
	}
	return nil, repository.ErrSignalNotFound
}

func (m *MockSignalRepository) GetRecent(limit int) ([]*models.Signal, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []*models.Signal
	for _, s := range m.signals {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockSignalRepository) GetBySymbol(symbol string, limit int) ([]*models.Signal, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []*models.Signal
	for _, s := range m.signals {
		if s.Symbol == symbol {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *MockSignalRepository) GetBySource(source string, limit int) ([]*models.Signal, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []*models.Signal
	for _, s := range m.signals {
		if s.Source == source {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *MockSignalRepository) DeleteOlderThan(threshold time.Time) (int64, error) {
	var deleted int64
	for id, s := range m.signals {
		if s.CreatedAt.Before(threshold) {
			delete(m.signals, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockSignalRepository) Count() (int, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	return len(m.signals), nil
}

// ============ Mock NotificationRepository ============

type MockNotificationRepository struct {
	notifications []*models.Notification
	nextID        int
	createErr     error
	getErr        error
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{nextID: 1}
}

func (m *MockNotificationRepository) Create(notif *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	notif.ID = m.nextID
	m.nextID++
	if notif.Timestamp.IsZero() {
		notif.Timestamp = time.Now()
	}
	m.notifications = append(m.notifications, notif)
	return nil
}

func (m *MockNotificationRepository) GetRecent(limit int) ([]*models.Notification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.Notification, len(m.notifications))
	copy(result, m.notifications)
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (m *MockNotificationRepository) GetBySeverity(severity string, limit int) ([]*models.Notification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.Severity == severity {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *MockNotificationRepository) DeleteAll() error {
	m.notifications = nil
	return nil
}

func (m *MockNotificationRepository) Count() (int, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	return len(m.notifications), nil
}

func (m *MockNotificationRepository) CountByType(notifType string) (int, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	count := 0
	for _, n := range m.notifications {
		if n.Type == notifType {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) KeepRecent(keep int) (int64, error) {
	if len(m.notifications) <= keep {
		return 0, nil
	}
	deleted := int64(len(m.notifications) - keep)
	m.notifications = m.notifications[len(m.notifications)-keep:]
	return deleted, nil
}

// ============ Mock PriceSource / FilterSource ============

type MockPriceSource struct {
	prices map[string]float64
}

func NewMockPriceSource() *MockPriceSource {
	return &MockPriceSource{prices: make(map[string]float64)}
}

func (m *MockPriceSource) Set(symbol string, price float64) {
	m.prices[symbol] = price
}

func (m *MockPriceSource) Last(symbol string) (float64, bool) {
	price, ok := m.prices[symbol]
	return price, ok
}

type MockFilterSource struct {
	filters map[string]models.SymbolFilters
	err     error
}

func NewMockFilterSource() *MockFilterSource {
	return &MockFilterSource{filters: make(map[string]models.SymbolFilters)}
}

func (m *MockFilterSource) Set(symbol string, filters models.SymbolFilters) {
	m.filters[symbol] = filters
}

func (m *MockFilterSource) GetSymbolFilters(ctx context.Context, symbol string) (models.SymbolFilters, error) {
	if m.err != nil {
		return models.SymbolFilters{}, m.err
	}
	return m.filters[symbol], nil
}

// ============ Mock WebSocketBroadcaster ============

type MockBroadcaster struct {
	notifications []*models.Notification
	positions     []*models.Position
}

func (m *MockBroadcaster) BroadcastNotification(notif *models.Notification) {
	m.notifications = append(m.notifications, notif)
}

func (m *MockBroadcaster) BroadcastPositionUpdate(position *models.Position) {
	m.positions = append(m.positions, position)
}

// Вспомогательная функция для создания указателей
func float64Ptr(f float64) *float64 { return &f }
