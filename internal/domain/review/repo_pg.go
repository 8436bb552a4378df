package review

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

const reviewCols = `id, doctor_id, patient_id, rating, comment, verified, created_at, updated_at`

func (r *repoPG) Upsert(ctx context.Context, rev *Review) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (id, doctor_id, patient_id, rating, comment, verified)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (doctor_id, patient_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			verified = EXCLUDED.verified,
			updated_at = NOW()
		RETURNING `+reviewCols,
		uuid.New(), rev.DoctorID, rev.PatientID, rev.Rating, rev.Comment, rev.Verified,
	)
	stored, err := scanReview(row)
	if err != nil {
		return err
	}
	*rev = *stored
	return nil
}

func (r *repoPG) GetByPair(ctx context.Context, doctorID, patientID uuid.UUID) (*Review, error) {
	return scanReview(r.pool.QueryRow(ctx, `
		SELECT `+reviewCols+` FROM reviews
		WHERE doctor_id = $1 AND patient_id = $2`, doctorID, patientID))
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reviewCols+` FROM reviews
		WHERE doctor_id = $1
		ORDER BY updated_at DESC LIMIT $2 OFFSET $3`, doctorID, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rev)
	}
	return out, total, rows.Err()
}

func (r *repoPG) AverageForDoctor(ctx context.Context, doctorID uuid.UUID) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE doctor_id = $1`, doctorID).Scan(&avg)
	if err != nil {
		return 0, db.MapError(err)
	}
	return avg, nil
}

func scanReview(row pgx.Row) (*Review, error) {
	var rev Review
	err := row.Scan(
		&rev.ID, &rev.DoctorID, &rev.PatientID, &rev.Rating, &rev.Comment,
		&rev.Verified, &rev.CreatedAt, &rev.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &rev, nil
}
