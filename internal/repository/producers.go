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

type ProducerInput struct {
	LastName  string
	FirstName string
	Address   string
	Phone     string
}

type PlotInput struct {
	Name         string
	AreaHectares float64
	Address      string
	ProducerID   int64
}

type HarvestInput struct {
	Fruit       string
	Quantity    float64
	HarvestDate time.Time
	ProducerID  int64
	PlotID      int64
}

func (r *Repository) ListProducers(ctx context.Context, search string, limit, offset int) ([]domain.Producer, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)
	search = strings.TrimSpace(search)

	rows, err := r.pool.Query(ctx, `
		SELECT id, last_name, first_name, address, phone
		FROM producers
		WHERE ($1 = ''
			OR last_name ILIKE '%' || $1 || '%'
			OR first_name ILIKE '%' || $1 || '%'
			OR phone ILIKE '%' || $1 || '%')
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list producers: %w", err)
	}
	defer rows.Close()

	producers := make([]domain.Producer, 0, limit)
	for rows.Next() {
		var p domain.Producer
		if err := rows.Scan(&p.ID, &p.LastName, &p.FirstName, &p.Address, &p.Phone); err != nil {
			return nil, fmt.Errorf("scan producer: %w", err)
		}
		producers = append(producers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate producers: %w", err)
	}
	return producers, nil
}

func (r *Repository) GetProducerByID(ctx context.Context, id int64) (*domain.Producer, error) {
	var p domain.Producer
	err := r.pool.QueryRow(ctx, `
		SELECT id, last_name, first_name, address, phone
		FROM producers
		WHERE id = $1
	`, id).Scan(&p.ID, &p.LastName, &p.FirstName, &p.Address, &p.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get producer %d: %w", id, err)
	}
	return &p, nil
}

func (r *Repository) CreateProducer(ctx context.Context, input ProducerInput) (domain.Producer, error) {
	lastName := strings.TrimSpace(input.LastName)
	firstName := strings.TrimSpace(input.FirstName)
	if lastName == "" || firstName == "" {
		return domain.Producer{}, fmt.Errorf("last_name and first_name are required")
	}

	var p domain.Producer
	err := r.pool.QueryRow(ctx, `
		INSERT INTO producers (last_name, first_name, address, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, last_name, first_name, address, phone
	`, lastName, firstName, strings.TrimSpace(input.Address), strings.TrimSpace(input.Phone)).
		Scan(&p.ID, &p.LastName, &p.FirstName, &p.Address, &p.Phone)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Producer{}, fmt.Errorf("a producer with this phone already exists")
		}
		return domain.Producer{}, fmt.Errorf("create producer: %w", err)
	}
	return p, nil
}

func (r *Repository) UpdateProducer(ctx context.Context, id int64, input ProducerInput) (*domain.Producer, error) {
	var p domain.Producer
	err := r.pool.QueryRow(ctx, `
		UPDATE producers
		SET last_name = $2, first_name = $3, address = $4, phone = $5
		WHERE id = $1
		RETURNING id, last_name, first_name, address, phone
	`,
		id,
		strings.TrimSpace(input.LastName),
		strings.TrimSpace(input.FirstName),
		strings.TrimSpace(input.Address),
		strings.TrimSpace(input.Phone),
	).Scan(&p.ID, &p.LastName, &p.FirstName, &p.Address, &p.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("a producer with this phone already exists")
		}
		return nil, fmt.Errorf("update producer %d: %w", id, err)
	}
	return &p, nil
}

func (r *Repository) DeleteProducer(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM producers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete producer %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListPlots(ctx context.Context, producerID *int64, limit, offset int) ([]domain.Plot, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)

	query := `
		SELECT id, name, area_hectares, address, producer_id
		FROM plots
	`
	args := []any{}
	if producerID != nil {
		query += " WHERE producer_id = $1 ORDER BY id ASC LIMIT $2 OFFSET $3"
		args = append(args, *producerID, limit, offset)
	} else {
		query += " ORDER BY id ASC LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	defer rows.Close()

	plots := make([]domain.Plot, 0, limit)
	for rows.Next() {
		var p domain.Plot
		if err := rows.Scan(&p.ID, &p.Name, &p.AreaHectares, &p.Address, &p.ProducerID); err != nil {
			return nil, fmt.Errorf("scan plot: %w", err)
		}
		plots = append(plots, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plots: %w", err)
	}
	return plots, nil
}

func (r *Repository) GetPlotByID(ctx context.Context, id int64) (*domain.Plot, error) {
	var p domain.Plot
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, area_hectares, address, producer_id
		FROM plots
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.AreaHectares, &p.Address, &p.ProducerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plot %d: %w", id, err)
	}
	return &p, nil
}

func (r *Repository) CreatePlot(ctx context.Context, input PlotInput) (domain.Plot, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Plot{}, fmt.Errorf("name is required")
	}
	if input.AreaHectares <= 0 {
		return domain.Plot{}, fmt.Errorf("area_hectares must be positive")
	}

	var p domain.Plot
	err := r.pool.QueryRow(ctx, `
		INSERT INTO plots (name, area_hectares, address, producer_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, area_hectares, address, producer_id
	`, name, input.AreaHectares, strings.TrimSpace(input.Address), input.ProducerID).
		Scan(&p.ID, &p.Name, &p.AreaHectares, &p.Address, &p.ProducerID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Plot{}, fmt.Errorf("producer %d: %w", input.ProducerID, ErrNotFound)
		}
		return domain.Plot{}, fmt.Errorf("create plot: %w", err)
	}
	return p, nil
}

func (r *Repository) UpdatePlot(ctx context.Context, id int64, input PlotInput) (*domain.Plot, error) {
	var p domain.Plot
	err := r.pool.QueryRow(ctx, `
		UPDATE plots
		SET name = $2, area_hectares = $3, address = $4, producer_id = $5
		WHERE id = $1
		RETURNING id, name, area_hectares, address, producer_id
	`, id, strings.TrimSpace(input.Name), input.AreaHectares, strings.TrimSpace(input.Address), input.ProducerID).
		Scan(&p.ID, &p.Name, &p.AreaHectares, &p.Address, &p.ProducerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update plot %d: %w", id, err)
	}
	return &p, nil
}

func (r *Repository) DeletePlot(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM plots WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete plot %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListHarvests(ctx context.Context, producerID *int64, limit, offset int) ([]domain.Harvest, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)

	query := `
		SELECT id, fruit, quantity, harvest_date, producer_id, plot_id
		FROM harvests
	`
	args := []any{}
	if producerID != nil {
		query += " WHERE producer_id = $1 ORDER BY harvest_date DESC, id DESC LIMIT $2 OFFSET $3"
		args = append(args, *producerID, limit, offset)
	} else {
		query += " ORDER BY harvest_date DESC, id DESC LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list harvests: %w", err)
	}
	defer rows.Close()

	harvests := make([]domain.Harvest, 0, limit)
	for rows.Next() {
		var h domain.Harvest
		if err := rows.Scan(&h.ID, &h.Fruit, &h.Quantity, &h.HarvestDate, &h.ProducerID, &h.PlotID); err != nil {
			return nil, fmt.Errorf("scan harvest: %w", err)
		}
		harvests = append(harvests, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate harvests: %w", err)
	}
	return harvests, nil
}

func (r *Repository) GetHarvestByID(ctx context.Context, id int64) (*domain.Harvest, error) {
	var h domain.Harvest
	err := r.pool.QueryRow(ctx, `
		SELECT id, fruit, quantity, harvest_date, producer_id, plot_id
		FROM harvests
		WHERE id = $1
	`, id).Scan(&h.ID, &h.Fruit, &h.Quantity, &h.HarvestDate, &h.ProducerID, &h.PlotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get harvest %d: %w", id, err)
	}
	return &h, nil
}

func (r *Repository) CreateHarvest(ctx context.Context, input HarvestInput) (domain.Harvest, error) {
	fruit := strings.TrimSpace(input.Fruit)
	if fruit == "" {
		return domain.Harvest{}, fmt.Errorf("fruit is required")
	}
	if input.Quantity <= 0 {
		return domain.Harvest{}, fmt.Errorf("quantity must be positive")
	}

	var h domain.Harvest
	err := r.pool.QueryRow(ctx, `
		INSERT INTO harvests (fruit, quantity, harvest_date, producer_id, plot_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, fruit, quantity, harvest_date, producer_id, plot_id
	`, fruit, input.Quantity, input.HarvestDate, input.ProducerID, input.PlotID).
		Scan(&h.ID, &h.Fruit, &h.Quantity, &h.HarvestDate, &h.ProducerID, &h.PlotID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Harvest{}, fmt.Errorf("producer or plot: %w", ErrNotFound)
		}
		return domain.Harvest{}, fmt.Errorf("create harvest: %w", err)
	}
	return h, nil
}

func (r *Repository) UpdateHarvest(ctx context.Context, id int64, input HarvestInput) (*domain.Harvest, error) {
	var h domain.Harvest
	err := r.pool.QueryRow(ctx, `
		UPDATE harvests
		SET fruit = $2, quantity = $3, harvest_date = $4, producer_id = $5, plot_id = $6
		WHERE id = $1
		RETURNING id, fruit, quantity, harvest_date, producer_id, plot_id
	`, id, strings.TrimSpace(input.Fruit), input.Quantity, input.HarvestDate, input.ProducerID, input.PlotID).
		Scan(&h.ID, &h.Fruit, &h.Quantity, &h.HarvestDate, &h.ProducerID, &h.PlotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update harvest %d: %w", id, err)
	}
	return &h, nil
}

func (r *Repository) DeleteHarvest(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM harvests WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete harvest %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
