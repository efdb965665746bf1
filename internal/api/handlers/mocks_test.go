package handlers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"papertrade/internal/models"
	"papertrade/internal/repository"
	"papertrade/internal/service"
)

// ============ Mock Position Service ============

// MockPositionService мок для PositionServiceInterface
type MockPositionService struct {
	positions map[int]*models.Position
	nextID    int

	openErr    error
	getErr     error
	closeErr   error
	updateErr  error
	summaryErr error

	mu sync.RWMutex
}

// NewMockPositionService создает новый мок сервиса позиций
func NewMockPositionService() *MockPositionService {
	return &MockPositionService{
		positions: make(map[int]*models.Position),
		nextID:    1,
	}
}

func (m *MockPositionService) OpenPosition(ctx context.Context, req *service.OpenPositionRequest) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.openErr != nil {
		return nil, m.openErr
	}

	amount := 100.0
	if req.AmountUSD != nil {
		amount = *req.AmountUSD
	}

	position := &models.Position{
		ID:         m.nextID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Qty:        amount / 100,
		SizeUSD:    amount,
		EntryPrice: 100,
		TPPrice:    req.TPPrice,
		SLPrice:    req.SLPrice,
		Status:     models.PositionStatusOpen,
		OpenedAt:   time.Now(),
	}
	m.nextID++
	m.positions[position.ID] = position
	return position, nil
}

func (m *MockPositionService) GetPosition(id int) (*models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	if position, exists := m.positions[id]; exists {
		return position, nil
	}
	return nil, repository.ErrPositionNotFound
}

func (m *MockPositionService) GetOpenPositions() ([]models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

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

func (m *MockPositionService) GetClosedPositions(limit int) ([]models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	if limit <= 0 {
		limit = 50
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

func (m *MockPositionService) ClosePosition(ctx context.Context, id int) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closeErr != nil {
		return nil, m.closeErr
	}

	position, exists := m.positions[id]
	if !exists {
		return nil, repository.ErrPositionNotFound
	}
	if position.Status == models.PositionStatusClosed {
		return nil, repository.ErrPositionClosed
	}

	now := time.Now()
	exitPrice := position.EntryPrice
	position.Status = models.PositionStatusClosed
	position.ExitPrice = &exitPrice
	position.ExitReason = models.ExitReasonManual
	position.ClosedAt = &now
	return position, nil
}

func (m *MockPositionService) UpdateTargets(id int, req *service.UpdateTargetsRequest) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return nil, m.updateErr
	}

	position, exists := m.positions[id]
	if !exists {
		return nil, repository.ErrPositionNotFound
	}
	if position.Status == models.PositionStatusClosed {
		return nil, repository.ErrPositionClosed
	}

	position.TPPrice = req.TPPrice
	position.SLPrice = req.SLPrice
	return position, nil
}

func (m *MockPositionService) GetSummary() (*models.PositionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.summaryErr != nil {
		return nil, m.summaryErr
	}

	summary := &models.PositionSummary{}
	for _, p := range m.positions {
		if p.Status == models.PositionStatusOpen {
			summary.OpenCount++
		} else {
			summary.ClosedCount++
			summary.TotalPnl += p.Pnl
		}
	}
	return summary, nil
}

// SetError устанавливает ошибку для указанной операции
func (m *MockPositionService) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch operation {
	case "open":
		m.openErr = err
	case "get":
		m.getErr = err
	case "close":
		m.closeErr = err
	case "update":
		m.updateErr = err
	case "summary":
		m.summaryErr = err
	}
}

// AddPosition добавляет позицию напрямую (для настройки тестов)
func (m *MockPositionService) AddPosition(position *models.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if position.ID == 0 {
		position.ID = m.nextID
		m.nextID++
	} else if position.ID >= m.nextID {
		m.nextID = position.ID + 1
	}
	if position.Status == "" {
		position.Status = models.PositionStatusOpen
	}
	m.positions[position.ID] = position
}

// ============ Mock Settings Service ============

// MockSettingsService мок для SettingsServiceInterface
type MockSettingsService struct {
	settings  *models.Settings
	getErr    error
	updateErr error
	mu        sync.RWMutex
}

// NewMockSettingsService создает новый мок сервиса настроек
func NewMockSettingsService() *MockSettingsService {
	return &MockSettingsService{
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

func (m *MockSettingsService) GetSettings() (*models.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.settings, nil
}

func (m *MockSettingsService) UpdateSettings(req *service.UpdateSettingsRequest) (*models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return nil, m.updateErr
	}

	if req.OrderAmountUSD != nil {
		if *req.OrderAmountUSD <= 0 {
			return nil, service.ErrInvalidOrderAmount
		}
		m.settings.OrderAmountUSD = *req.OrderAmountUSD
	}
	if req.DefaultTPPercent != nil {
		m.settings.DefaultTPPercent = req.DefaultTPPercent
	}
	if req.DefaultSLPercent != nil {
		m.settings.DefaultSLPercent = req.DefaultSLPercent
	}
	if req.ClearDefaultTP {
		m.settings.DefaultTPPercent = nil
	}
	if req.ClearDefaultSL {
		m.settings.DefaultSLPercent = nil
	}
	if req.NotificationPrefs != nil {
		m.settings.NotificationPrefs = *req.NotificationPrefs
	}
	m.settings.UpdatedAt = time.Now()

	return m.settings, nil
}

func (m *MockSettingsService) GetNotificationPrefs() (*models.NotificationPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	return &m.settings.NotificationPrefs, nil
}

func (m *MockSettingsService) ResetToDefaults() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}

	m.settings = NewMockSettingsService().settings
	return nil
}

// SetError устанавливает ошибку для указанной операции
func (m *MockSettingsService) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch operation {
	case "get":
		m.getErr = err
	case "update":
		m.updateErr = err
	}
}

// ============ Mock Signal Service ============

// MockSignalService мок для SignalServiceInterface
type MockSignalService struct {
	signals   map[int]*models.Signal
	nextID    int
	createErr error
	getErr    error
	mu        sync.RWMutex
}

// NewMockSignalService создает новый мок сервиса сигналов
func NewMockSignalService() *MockSignalService {
	return &MockSignalService{
		signals: make(map[int]*models.Signal),
		nextID:  1,
	}
}

func (m *MockSignalService) RecordSignal(req *service.RecordSignalRequest) (*models.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}

	if req.Source == "" {
		return nil, service.ErrEmptySource
	}
	if req.Price <= 0 {
		return nil, service.ErrInvalidSignalPrice
	}

	signal := &models.Signal{
		ID:        m.nextID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Price:     req.Price,
		Source:    req.Source,
		Note:      req.Note,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.signals[signal.ID] = signal
	return signal, nil
}

func (m *MockSignalService) GetSignal(id int) (*models.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	if signal, exists := m.signals[id]; exists {
		return signal, nil
	}
	return nil, repository.ErrSignalNotFound
}

func (m *MockSignalService) GetRecentSignals(limit int) ([]*models.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	if limit <= 0 {
		limit = 50
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

func (m *MockSignalService) GetSignalsBySymbol(symbol string, limit int) ([]*models.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

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

// SetError устанавливает ошибку для указанной операции
func (m *MockSignalService) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch operation {
	case "create":
		m.createErr = err
	case "get":
		m.getErr = err
	}
}

// ============ Mock Notification Service ============

// MockNotificationService мок для NotificationServiceInterface
type MockNotificationService struct {
	notifications []*models.Notification
	createErr     error
	getErr        error
	clearErr      error
	nextID        int
	mu            sync.RWMutex
}

// NewMockNotificationService создает новый мок сервиса уведомлений
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{
		notifications: make([]*models.Notification, 0),
		nextID:        1,
	}
}

func (m *MockNotificationService) GetNotifications(limit int) ([]*models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	if limit <= 0 {
		limit = 100
	}

	result := make([]*models.Notification, 0, len(m.notifications))
	result = append(result, m.notifications...)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockNotificationService) ClearNotifications() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clearErr != nil {
		return m.clearErr
	}

	m.notifications = make([]*models.Notification, 0)
	return nil
}

func (m *MockNotificationService) CreateNotification(notif *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}

	notif.ID = m.nextID
	m.nextID++
	notif.Timestamp = time.Now()
	m.notifications = append(m.notifications, notif)
	return nil
}

func (m *MockNotificationService) GetNotificationCount() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return 0, m.getErr
	}
	return len(m.notifications), nil
}

// SetError устанавливает ошибку для указанной операции
func (m *MockNotificationService) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch operation {
	case "create":
		m.createErr = err
	case "get":
		m.getErr = err
	case "clear":
		m.clearErr = err
	}
}

// AddNotification добавляет уведомление напрямую (для настройки тестов)
func (m *MockNotificationService) AddNotification(notifType, severity, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, &models.Notification{
		ID:        m.nextID,
		Type:      notifType,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
	})
	m.nextID++
}

// ============ Helper errors for tests ============

var (
	ErrMockDatabase = errors.New("mock database error")
	ErrMockService  = errors.New("mock service error")
)

// ============ Проверяем, что моки реализуют интерфейсы ============

var _ service.PositionServiceInterface = (*MockPositionService)(nil)
var _ service.SettingsServiceInterface = (*MockSettingsService)(nil)
var _ service.SignalServiceInterface = (*MockSignalService)(nil)
var _ service.NotificationServiceInterface = (*MockNotificationService)(nil)
