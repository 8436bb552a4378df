package hospital

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medvault/medvault/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const hospitalCols = `id, name, address, contact_number, facilities,
	has_pharmacy, has_laboratory, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO hospitals (
			id, name, address, contact_number, facilities, has_pharmacy, has_laboratory
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		h.ID, h.Name, h.Address, h.ContactNumber, h.Facilities, h.HasPharmacy, h.HasLaboratory,
	)
	return db.MapError(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return scanHospital(r.pool.QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+hospitalCols+` FROM hospitals
		ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, h *Hospital) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE hospitals SET
			name = $2, address = $3, contact_number = $4, facilities = $5,
			has_pharmacy = $6, has_laboratory = $7, updated_at = NOW()
		WHERE id = $1`,
		h.ID, h.Name, h.Address, h.ContactNumber, h.Facilities, h.HasPharmacy, h.HasLaboratory,
	)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(
		&h.ID, &h.Name, &h.Address, &h.ContactNumber, &h.Facilities,
		&h.HasPharmacy, &h.HasLaboratory, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &h, nil
}
