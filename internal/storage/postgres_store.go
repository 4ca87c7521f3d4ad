package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/example/ride-share/internal/models"
)

// PostgresStore keeps each offer as a JSONB document alongside the
// few columns the discovery filter touches. It implements RideStore
// only; accounts stay in the primary document store.
type PostgresStore struct {
	db *sql.DB
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS rides (
    id           TEXT PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    origin       TEXT NOT NULL,
    destination  TEXT NOT NULL,
    departure_at TIMESTAMPTZ NOT NULL,
    status       TEXT NOT NULL,
    doc          JSONB NOT NULL
)`

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(pgSchema); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) CreateOffer(ctx context.Context, o *models.RideOffer) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = time.Now().UTC()
	doc, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO rides(id, owner_id, origin, destination, departure_at, status, doc)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.OwnerID, o.Origin, o.Destination, o.DepartureAt, o.Status, doc)
	return err
}

func (p *PostgresStore) GetOffer(ctx context.Context, id string) (models.RideOffer, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM rides WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RideOffer{}, ErrNotFound
	}
	if err != nil {
		return models.RideOffer{}, err
	}
	return decodeOffer(doc)
}

func (p *PostgresStore) ListOffers(ctx context.Context, f OfferFilter) ([]models.RideOffer, error) {
	q := `SELECT doc FROM rides WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		q += ` AND status = $` + itoa(len(args))
	}
	if f.ExcludeOwner != "" {
		args = append(args, f.ExcludeOwner)
		q += ` AND owner_id <> $` + itoa(len(args))
	}
	if f.Origin != "" {
		args = append(args, f.Origin)
		q += ` AND origin = $` + itoa(len(args))
	}
	if f.Destination != "" {
		args = append(args, f.Destination)
		q += ` AND destination = $` + itoa(len(args))
	}
	q += ` ORDER BY owner_id ASC, departure_at ASC`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RideOffer
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		o, err := decodeOffer(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *PostgresStore) ReplaceRequests(ctx context.Context, offerID string, reqs []models.RideRequest) error {
	if reqs == nil {
		reqs = []models.RideRequest{}
	}
	b, err := json.Marshal(reqs)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE rides SET doc = jsonb_set(doc, '{requests}', $1::jsonb) WHERE id = $2`,
		b, offerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) UpdateOffer(ctx context.Context, o models.RideOffer) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE rides SET owner_id=$1, origin=$2, destination=$3, departure_at=$4, status=$5, doc=$6 WHERE id=$7`,
		o.OwnerID, o.Origin, o.Destination, o.DepartureAt, o.Status, doc, o.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeOffer(doc []byte) (models.RideOffer, error) {
	var o models.RideOffer
	if err := json.Unmarshal(doc, &o); err != nil {
		return models.RideOffer{}, err
	}
	o.DepartureAt = o.DepartureAt.UTC()
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
