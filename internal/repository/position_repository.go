package repository

import (
	"database/sql"
	"errors"
	"time"

	"papertrade/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")
	ErrPositionClosed   = errors.New("position already closed")
)

const positionColumns = `id, symbol, side, qty, size_usd, entry_price, tp_price, sl_price, status, exit_price, exit_reason, pnl, opened_at, closed_at`

// PositionRepository - работа с таблицей positions
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create создает запись об открытой позиции
func (r *PositionRepository) Create(position *models.Position) error {
	query := `
		INSERT INTO positions (symbol, side, qty, size_usd, entry_price, tp_price, sl_price, status, pnl, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	position.Status = models.PositionStatusOpen
	position.OpenedAt = time.Now()

	return r.db.QueryRow(
		query,
		position.Symbol,
		position.Side,
		position.Qty,
		position.SizeUSD,
		position.EntryPrice,
		position.TPPrice,
		position.SLPrice,
		position.Status,
		position.Pnl,
		position.OpenedAt,
	).Scan(&position.ID)
}

// GetByID возвращает позицию по ID
func (r *PositionRepository) GetByID(id int) (*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE id = $1`

	position := &models.Position{}
	err := scanPosition(r.db.QueryRow(query, id), position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	return position, nil
}

// GetOpen возвращает все открытые позиции в порядке открытия
//
// Основной запрос риск-монитора: вызывается на каждое обновление кэша.
func (r *PositionRepository) GetOpen() ([]models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE status = $1
		ORDER BY opened_at ASC`

	rows, err := r.db.Query(query, models.PositionStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var position models.Position
		if err := scanPosition(rows, &position); err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// GetClosed возвращает последние закрытые позиции
func (r *PositionRepository) GetClosed(limit int) ([]models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE status = $1
		ORDER BY closed_at DESC
		LIMIT $2`

	rows, err := r.db.Query(query, models.PositionStatusClosed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var position models.Position
		if err := scanPosition(rows, &position); err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// Close переводит позицию в статус CLOSED с фиксацией цены и причины выхода
//
// Условие status = OPEN в WHERE делает закрытие идемпотентным на уровне
// базы: повторный вызов для уже закрытой позиции вернет ErrPositionClosed,
// а не перезапишет зафиксированный результат.
func (r *PositionRepository) Close(id int, exitPrice float64, exitReason string, pnl float64) error {
	query := `
		UPDATE positions
		SET status = $1, exit_price = $2, exit_reason = $3, pnl = $4, closed_at = $5
		WHERE id = $6 AND status = $7`

	result, err := r.db.Exec(query,
		models.PositionStatusClosed,
		exitPrice,
		exitReason,
		pnl,
		time.Now(),
		id,
		models.PositionStatusOpen,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Либо позиции нет, либо она уже закрыта - различаем отдельным чтением
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return ErrPositionClosed
	}

	return nil
}

// UpdateTargets обновляет TP/SL цели открытой позиции
// nil убирает соответствующую цель
func (r *PositionRepository) UpdateTargets(id int, tpPrice, slPrice *float64) error {
	query := `
		UPDATE positions
		SET tp_price = $1, sl_price = $2
		WHERE id = $3 AND status = $4`

	result, err := r.db.Exec(query, tpPrice, slPrice, id, models.PositionStatusOpen)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return ErrPositionClosed
	}

	return nil
}

// Delete удаляет позицию
func (r *PositionRepository) Delete(id int) error {
	query := `DELETE FROM positions WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// CountOpen возвращает количество открытых позиций
func (r *PositionRepository) CountOpen() (int, error) {
	query := `SELECT COUNT(*) FROM positions WHERE status = $1`

	var count int
	err := r.db.QueryRow(query, models.PositionStatusOpen).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// GetSummary возвращает агрегированную сводку по позициям для дашборда
func (r *PositionRepository) GetSummary() (*models.PositionSummary, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COALESCE(SUM(pnl) FILTER (WHERE status = $2), 0),
			COALESCE(SUM(pnl) FILTER (WHERE status = $2 AND closed_at >= $3), 0),
			COUNT(*) FILTER (WHERE status = $2 AND exit_reason = $4),
			COUNT(*) FILTER (WHERE status = $2 AND exit_reason = $5)
		FROM positions`

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	summary := &models.PositionSummary{}
	err := r.db.QueryRow(query,
		models.PositionStatusOpen,
		models.PositionStatusClosed,
		dayStart,
		models.ExitReasonTP,
		models.ExitReasonSL,
	).Scan(
		&summary.OpenCount,
		&summary.ClosedCount,
		&summary.TotalPnl,
		&summary.TodayPnl,
		&summary.TPCount,
		&summary.SLCount,
	)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(row rowScanner, position *models.Position) error {
	return row.Scan(
		&position.ID,
		&position.Symbol,
		&position.Side,
		&position.Qty,
		&position.SizeUSD,
		&position.EntryPrice,
		&position.TPPrice,
		&position.SLPrice,
		&position.Status,
		&position.ExitPrice,
		&position.ExitReason,
		&position.Pnl,
		&position.OpenedAt,
		&position.ClosedAt,
	)
}
