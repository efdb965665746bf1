package repository

import (
	"database/sql"
	"errors"
	"time"

	"papertrade/internal/models"
)

// Ошибки репозитория сигналов
var (
	ErrSignalNotFound = errors.New("signal not found")
)

const signalColumns = `id, symbol, side, price, source, note, created_at`

// SignalRepository - работа с таблицей signals
type SignalRepository struct {
	db *sql.DB
}

// NewSignalRepository создает новый экземпляр репозитория
func NewSignalRepository(db *sql.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Create сохраняет поступивший сигнал
func (r *SignalRepository) Create(signal *models.Signal) error {
	query := `
		INSERT INTO signals (symbol, side, price, source, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = time.Now()
	}

	return r.db.QueryRow(
		query,
		signal.Symbol,
		signal.Side,
		signal.Price,
		signal.Source,
		signal.Note,
		signal.CreatedAt,
	).Scan(&signal.ID)
}

// GetByID возвращает сигнал по ID
func (r *SignalRepository) GetByID(id int) (*models.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE id = $1`

	signal := &models.Signal{}
	err := r.db.QueryRow(query, id).Scan(
		&signal.ID,
		&signal.Symbol,
		&signal.Side,
		&signal.Price,
		&signal.Source,
		&signal.Note,
		&signal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignalNotFound
		}
		return nil, err
	}

	return signal, nil
}

// GetRecent возвращает последние N сигналов для ленты дашборда
func (r *SignalRepository) GetRecent(limit int) ([]*models.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		ORDER BY created_at DESC
		LIMIT $1`

	return r.querySignals(query, limit)
}

// GetBySymbol возвращает последние сигналы по символу
func (r *SignalRepository) GetBySymbol(symbol string, limit int) ([]*models.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.querySignals(query, symbol, limit)
}

// GetBySource возвращает последние сигналы конкретной стратегии
func (r *SignalRepository) GetBySource(source string, limit int) ([]*models.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		WHERE source = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.querySignals(query, source, limit)
}

// DeleteOlderThan удаляет сигналы старше указанной даты
func (r *SignalRepository) DeleteOlderThan(threshold time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM signals WHERE created_at < $1`, threshold)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Count возвращает общее количество сигналов
func (r *SignalRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM signals`).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *SignalRepository) querySignals(query string, args ...interface{}) ([]*models.Signal, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		signal := &models.Signal{}
		err := rows.Scan(
			&signal.ID,
			&signal.Symbol,
			&signal.Side,
			&signal.Price,
			&signal.Source,
			&signal.Note,
			&signal.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		signals = append(signals, signal)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return signals, nil
}
