package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LocDev21/AgroData/internal/domain"

	"github.com/jackc/pgx/v5"
)

type ClientCreateInput struct {
	LastName  string
	FirstName string
	Phone     string
	Address   string
	Email     string
}

type ClientPatchInput struct {
	LastName  *string
	FirstName *string
	Phone     *string
	Address   *string
	Email     *string
}

func (r *Repository) ListClients(ctx context.Context, search string, limit, offset int) ([]domain.Client, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)
	search = strings.TrimSpace(search)

	rows, err := r.pool.Query(ctx, `
		SELECT id, last_name, first_name, phone, address, email
		FROM clients
		WHERE ($1 = ''
			OR last_name ILIKE '%' || $1 || '%'
			OR first_name ILIKE '%' || $1 || '%'
			OR phone ILIKE '%' || $1 || '%')
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0, limit)
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.LastName, &c.FirstName, &c.Phone, &c.Address, &c.Email); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

func (r *Repository) GetClientByID(ctx context.Context, id int64) (*domain.Client, error) {
	var c domain.Client
	err := r.pool.QueryRow(ctx, `
		SELECT id, last_name, first_name, phone, address, email
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.LastName, &c.FirstName, &c.Phone, &c.Address, &c.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", id, err)
	}
	return &c, nil
}

func (r *Repository) CreateClient(ctx context.Context, input ClientCreateInput) (domain.Client, error) {
	lastName := strings.TrimSpace(input.LastName)
	firstName := strings.TrimSpace(input.FirstName)
	if lastName == "" || firstName == "" {
		return domain.Client{}, fmt.Errorf("last_name and first_name are required")
	}

	var c domain.Client
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clients (last_name, first_name, phone, address, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, last_name, first_name, phone, address, email
	`,
		lastName,
		firstName,
		strings.TrimSpace(input.Phone),
		strings.TrimSpace(input.Address),
		strings.TrimSpace(input.Email),
	).Scan(&c.ID, &c.LastName, &c.FirstName, &c.Phone, &c.Address, &c.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Client{}, fmt.Errorf("a client with this phone or email already exists")
		}
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

func (r *Repository) PatchClient(ctx context.Context, id int64, input ClientPatchInput) (*domain.Client, error) {
	current, err := r.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.LastName != nil && strings.TrimSpace(*input.LastName) != "" {
		current.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.FirstName != nil && strings.TrimSpace(*input.FirstName) != "" {
		current.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.Phone != nil {
		current.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		current.Address = strings.TrimSpace(*input.Address)
	}
	if input.Email != nil {
		current.Email = strings.TrimSpace(*input.Email)
	}

	if _, err := r.pool.Exec(ctx, `
		UPDATE clients
		SET last_name = $2, first_name = $3, phone = $4, address = $5, email = $6
		WHERE id = $1
	`, id, current.LastName, current.FirstName, current.Phone, current.Address, current.Email); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("a client with this phone or email already exists")
		}
		return nil, fmt.Errorf("update client %d: %w", id, err)
	}
	return current, nil
}

func (r *Repository) DeleteClient(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete client %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
