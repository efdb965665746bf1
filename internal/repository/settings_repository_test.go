package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"papertrade/internal/models"
)

// ============================================================
// SettingsRepository Tests
// ============================================================

func TestNewSettingsRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewSettingsRepository(db)
	if repo == nil {
		t.Fatal("NewSettingsRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestSettingsRepositoryGet(t *testing.T) {
	now := time.Now()
	tpPercent := 5.0

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expected    *models.Settings
		expectError bool
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				prefsJSON, _ := json.Marshal(models.NotificationPreferences{
					Open:       true,
					TakeProfit: true,
					StopLoss:   true,
					Manual:     true,
					Signal:     true,
					Error:      true,
				})
				rows := sqlmock.NewRows([]string{"id", "order_amount_usd", "default_tp_percent", "default_sl_percent", "notification_prefs", "updated_at"}).
					AddRow(1, 250.0, &tpPercent, nil, prefsJSON, now)
				mock.ExpectQuery(`SELECT .+ FROM settings WHERE id = 1`).
					WillReturnRows(rows)
			},
			expected: &models.Settings{
				ID:               1,
				OrderAmountUSD:   250,
				DefaultTPPercent: &tpPercent,
			},
			expectError: false,
		},
		{
			name: "not found - creates default",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM settings WHERE id = 1`).
					WillReturnError(sql.ErrNoRows)
				// createDefault is called
				prefsJSON, _ := json.Marshal(defaultNotificationPrefs())
				mock.ExpectExec(`INSERT INTO settings`).
					WithArgs(float64(defaultOrderAmountUSD), (*float64)(nil), (*float64)(nil), prefsJSON, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			expected: &models.Settings{
				ID:             1,
				OrderAmountUSD: defaultOrderAmountUSD,
			},
			expectError: false,
		},
		{
			name: "empty notification prefs",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "order_amount_usd", "default_tp_percent", "default_sl_percent", "notification_prefs", "updated_at"}).
					AddRow(1, 100.0, nil, nil, nil, now)
				mock.ExpectQuery(`SELECT .+ FROM settings WHERE id = 1`).
					WillReturnRows(rows)
			},
			expected: &models.Settings{
				ID:             1,
				OrderAmountUSD: 100,
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewSettingsRepository(db)
			result, err := repo.Get()

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if result.OrderAmountUSD != tt.expected.OrderAmountUSD {
					t.Errorf("expected OrderAmountUSD=%v, got %v", tt.expected.OrderAmountUSD, result.OrderAmountUSD)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestSettingsRepositoryUpdate(t *testing.T) {
	tpPercent := 5.0
	slPercent := 2.5

	tests := []struct {
		name        string
		settings    *models.Settings
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			settings: &models.Settings{
				ID:               1,
				OrderAmountUSD:   500,
				DefaultTPPercent: &tpPercent,
				DefaultSLPercent: &slPercent,
				NotificationPrefs: models.NotificationPreferences{
					Open:       true,
					TakeProfit: true,
				},
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE settings SET`).
					WithArgs(500.0, &tpPercent, &slPercent, sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name: "not found",
			settings: &models.Settings{
				ID:             1,
				OrderAmountUSD: 100,
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE settings SET`).
					WithArgs(100.0, (*float64)(nil), (*float64)(nil), sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrSettingsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewSettingsRepository(db)
			err = repo.Update(tt.settings)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestSettingsRepositoryUpdateNotificationPrefs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	prefs := models.NotificationPreferences{
		Open:       true,
		TakeProfit: false,
		StopLoss:   true,
		Manual:     false,
		Signal:     true,
		Error:      true,
	}

	mock.ExpectExec(`UPDATE settings SET notification_prefs = \$1, updated_at = \$2 WHERE id = 1`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSettingsRepository(db)
	err = repo.UpdateNotificationPrefs(prefs)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSettingsRepositoryUpdateOrderAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      float64
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name:   "success",
			amount: 750,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE settings SET order_amount_usd = \$1, updated_at = \$2 WHERE id = 1`).
					WithArgs(750.0, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name:   "not found",
			amount: 100,
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE settings SET order_amount_usd = \$1, updated_at = \$2 WHERE id = 1`).
					WithArgs(100.0, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectError: ErrSettingsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewSettingsRepository(db)
			err = repo.UpdateOrderAmount(tt.amount)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected error %v, got %v", tt.expectError, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestSettingsRepositoryGetNotificationPrefs(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				prefsJSON, _ := json.Marshal(models.NotificationPreferences{
					Open:       true,
					TakeProfit: true,
				})
				rows := sqlmock.NewRows([]string{"notification_prefs"}).AddRow(prefsJSON)
				mock.ExpectQuery(`SELECT notification_prefs FROM settings WHERE id = 1`).
					WillReturnRows(rows)
			},
			expectError: false,
		},
		{
			name: "not found - returns default",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT notification_prefs FROM settings WHERE id = 1`).
					WillReturnError(sql.ErrNoRows)
			},
			expectError: false,
		},
		{
			name: "empty prefs - returns default",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"notification_prefs"}).AddRow(nil)
				mock.ExpectQuery(`SELECT notification_prefs FROM settings WHERE id = 1`).
					WillReturnRows(rows)
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewSettingsRepository(db)
			result, err := repo.GetNotificationPrefs()

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if result == nil {
					t.Error("expected non-nil result")
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestSettingsRepositoryResetToDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE settings SET`).
		WithArgs(float64(defaultOrderAmountUSD), (*float64)(nil), (*float64)(nil), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSettingsRepository(db)
	err = repo.ResetToDefaults()

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDefaultNotificationPrefs(t *testing.T) {
	prefs := defaultNotificationPrefs()

	if !prefs.Open {
		t.Error("expected Open=true")
	}
	if !prefs.TakeProfit {
		t.Error("expected TakeProfit=true")
	}
	if !prefs.StopLoss {
		t.Error("expected StopLoss=true")
	}
	if !prefs.Manual {
		t.Error("expected Manual=true")
	}
	if !prefs.Signal {
		t.Error("expected Signal=true")
	}
	if !prefs.Error {
		t.Error("expected Error=true")
	}
}
