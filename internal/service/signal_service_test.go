package service

import (
	"errors"
	"testing"

	"papertrade/internal/models"
)

func newSignalServiceFixture() (*SignalService, *MockSignalRepository, *MockNotificationRepository) {
	signalRepo := NewMockSignalRepository()
	notifRepo := NewMockNotificationRepository()
	notifier := NewNotificationService(notifRepo, NewMockSettingsRepository())
	return NewSignalService(signalRepo, notifier), signalRepo, notifRepo
}

func TestSignalService_RecordSignal(t *testing.T) {
	svc, _, notifRepo := newSignalServiceFixture()

	signal, err := svc.RecordSignal(&RecordSignalRequest{
		Symbol: "BTCUSDT",
		Side:   models.SideLong,
		Price:  50000,
		Source: "momentum-1h",
		Note:   "breakout",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if signal.ID == 0 {
		t.Error("сигнал должен получить ID")
	}
	if signal.CreatedAt.IsZero() {
		t.Error("CreatedAt должен быть установлен")
	}

	// Сигнал порождает уведомление SIGNAL
	if count, _ := notifRepo.CountByType(models.NotificationTypeSignal); count != 1 {
		t.Errorf("ожидали 1 уведомление SIGNAL, получили %d", count)
	}
}

func TestSignalService_RecordSignal_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *RecordSignalRequest
	}{
		{"пустой символ", &RecordSignalRequest{Side: models.SideLong, Price: 100, Source: "s"}},
		{"невалидная сторона", &RecordSignalRequest{Symbol: "BTCUSDT", Side: "BUY", Price: 100, Source: "s"}},
		{"нулевая цена", &RecordSignalRequest{Symbol: "BTCUSDT", Side: models.SideLong, Price: 0, Source: "s"}},
		{"отрицательная цена", &RecordSignalRequest{Symbol: "BTCUSDT", Side: models.SideLong, Price: -5, Source: "s"}},
		{"пустой источник", &RecordSignalRequest{Symbol: "BTCUSDT", Side: models.SideLong, Price: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, signalRepo, _ := newSignalServiceFixture()

			_, err := svc.RecordSignal(tt.req)
			if err == nil {
				t.Error("expected error, got nil")
			}
			if count, _ := signalRepo.Count(); count != 0 {
				t.Error("сигнал не должен сохраняться при ошибке валидации")
			}
		})
	}
}

func TestSignalService_RecordSignal_RepoError(t *testing.T) {
	svc, signalRepo, _ := newSignalServiceFixture()
	signalRepo.createErr = errors.New("db error")

	_, err := svc.RecordSignal(&RecordSignalRequest{
		Symbol: "BTCUSDT",
		Side:   models.SideLong,
		Price:  100,
		Source: "s",
	})
	if err == nil {
		t.Error("expected error, got nil")
	}
}

func TestSignalService_GetRecentSignals(t *testing.T) {
	svc, _, _ := newSignalServiceFixture()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordSignal(&RecordSignalRequest{
			Symbol: "BTCUSDT",
			Side:   models.SideLong,
			Price:  100,
			Source: "s",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	signals, err := svc.GetRecentSignals(0) // дефолтный лимит
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals) != 3 {
		t.Errorf("expected 3 signals, got %d", len(signals))
	}

	signals, err = svc.GetRecentSignals(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals) != 2 {
		t.Errorf("expected 2 signals, got %d", len(signals))
	}
}
