package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LocDev21/AgroData/internal/domain"

	"github.com/jackc/pgx/v5"
)

type ProcessingLotInput struct {
	LotCode        string
	HarvestID      int64
	Stage          domain.ProcessingStage
	InputQuantity  float64
	OutputQuantity float64
	StartedOn      time.Time
	EndedOn        time.Time
}

func (r *Repository) ListProcessingLots(ctx context.Context, stage string, limit, offset int) ([]domain.ProcessingLot, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)
	stage = strings.ToUpper(strings.TrimSpace(stage))

	rows, err := r.pool.Query(ctx, `
		SELECT id, lot_code, harvest_id, stage, input_quantity, output_quantity, started_on, ended_on
		FROM processing_lots
		WHERE ($1 = '' OR stage = $1)
		ORDER BY started_on DESC, id DESC
		LIMIT $2 OFFSET $3
	`, stage, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list processing lots: %w", err)
	}
	defer rows.Close()

	lots := make([]domain.ProcessingLot, 0, limit)
	for rows.Next() {
		lot, err := scanLotRow(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processing lots: %w", err)
	}
	return lots, nil
}

func (r *Repository) GetProcessingLotByID(ctx context.Context, id int64) (*domain.ProcessingLot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, lot_code, harvest_id, stage, input_quantity, output_quantity, started_on, ended_on
		FROM processing_lots
		WHERE id = $1
	`, id)
	lot, err := scanLotRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get processing lot %d: %w", id, err)
	}
	return &lot, nil
}

func (r *Repository) CreateProcessingLot(ctx context.Context, input ProcessingLotInput) (domain.ProcessingLot, error) {
	lotCode := strings.TrimSpace(input.LotCode)
	if lotCode == "" {
		return domain.ProcessingLot{}, fmt.Errorf("lot_code is required")
	}
	if input.InputQuantity <= 0 {
		return domain.ProcessingLot{}, fmt.Errorf("input_quantity must be positive")
	}
	if input.OutputQuantity < 0 {
		return domain.ProcessingLot{}, fmt.Errorf("output_quantity cannot be negative")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO processing_lots (lot_code, harvest_id, stage, input_quantity, output_quantity, started_on, ended_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, lot_code, harvest_id, stage, input_quantity, output_quantity, started_on, ended_on
	`,
		lotCode,
		input.HarvestID,
		string(input.Stage),
		input.InputQuantity,
		input.OutputQuantity,
		input.StartedOn,
		input.EndedOn,
	)
	lot, err := scanLotRow(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ProcessingLot{}, fmt.Errorf("harvest %d: %w", input.HarvestID, ErrNotFound)
		}
		return domain.ProcessingLot{}, fmt.Errorf("create processing lot: %w", err)
	}
	return lot, nil
}

func (r *Repository) UpdateProcessingLot(ctx context.Context, id int64, input ProcessingLotInput) (*domain.ProcessingLot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE processing_lots
		SET lot_code = $2, harvest_id = $3, stage = $4, input_quantity = $5, output_quantity = $6, started_on = $7, ended_on = $8
		WHERE id = $1
		RETURNING id, lot_code, harvest_id, stage, input_quantity, output_quantity, started_on, ended_on
	`,
		id,
		strings.TrimSpace(input.LotCode),
		input.HarvestID,
		string(input.Stage),
		input.InputQuantity,
		input.OutputQuantity,
		input.StartedOn,
		input.EndedOn,
	)
	lot, err := scanLotRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update processing lot %d: %w", id, err)
	}
	return &lot, nil
}

func (r *Repository) DeleteProcessingLot(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM processing_lots WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete processing lot %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLotRow(row pgx.Row) (domain.ProcessingLot, error) {
	var (
		lot   domain.ProcessingLot
		stage string
	)
	if err := row.Scan(
		&lot.ID,
		&lot.LotCode,
		&lot.HarvestID,
		&stage,
		&lot.InputQuantity,
		&lot.OutputQuantity,
		&lot.StartedOn,
		&lot.EndedOn,
	); err != nil {
		return domain.ProcessingLot{}, err
	}
	lot.Stage = domain.ProcessingStage(stage)
	return lot, nil
}
