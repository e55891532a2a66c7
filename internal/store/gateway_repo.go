package store

import (
	"context"
	"database/sql"
	"fmt"
)

// gatewayRepo implements GatewayRepository.
type gatewayRepo struct {
	db *DB
}

// NewGatewayRepository creates a new GatewayRepository.
func NewGatewayRepository(db *DB) GatewayRepository {
	return &gatewayRepo{db: db}
}

// ListExternal returns every gateway, in insertion order.
func (r *gatewayRepo) ListExternal(ctx context.Context) ([]Gateway, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, realm, username, password, proxy, register,
		 register_transport, dtmf_type, codec_prefs
		 FROM gateways ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("querying gateways: %w", err)
	}
	defer rows.Close()

	var gws []Gateway
	for rows.Next() {
		var g Gateway
		if err := rows.Scan(&g.ID, &g.Name, &g.Realm, &g.Username, &g.Password,
			&g.Proxy, &g.Register, &g.RegisterTransport, &g.DTMFType, &g.CodecPrefs); err != nil {
			return nil, fmt.Errorf("scanning gateway row: %w", err)
		}
		gws = append(gws, g)
	}
	return gws, rows.Err()
}

// Create inserts a new gateway. Returns ErrConflict if name already
// exists.
func (r *gatewayRepo) Create(ctx context.Context, gw Gateway) (*Gateway, error) {
	var nextOrder int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sort_order)+1, 0) FROM gateways`,
	).Scan(&nextOrder); err != nil {
		return nil, fmt.Errorf("computing sort order: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO gateways (name, realm, username, password, proxy, register,
		 register_transport, dtmf_type, codec_prefs, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gw.Name, gw.Realm, gw.Username, gw.Password, gw.Proxy, gw.Register,
		gw.RegisterTransport, gw.DTMFType, gw.CodecPrefs, nextOrder,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("inserting gateway: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting last insert id: %w", err)
	}
	gw.ID = id
	return &gw, nil
}

// Get returns the gateway by name, or (nil, nil) if none exists.
func (r *gatewayRepo) Get(ctx context.Context, name string) (*Gateway, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, realm, username, password, proxy, register,
		 register_transport, dtmf_type, codec_prefs
		 FROM gateways WHERE name = ?`, name,
	))
}

// Update replaces an existing gateway's fields.
func (r *gatewayRepo) Update(ctx context.Context, gw Gateway) (*Gateway, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE gateways SET realm = ?, username = ?, password = ?, proxy = ?,
		 register = ?, register_transport = ?, dtmf_type = ?, codec_prefs = ?
		 WHERE name = ?`,
		gw.Realm, gw.Username, gw.Password, gw.Proxy, gw.Register,
		gw.RegisterTransport, gw.DTMFType, gw.CodecPrefs, gw.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("updating gateway: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, gw.Name)
}

// Delete removes a gateway by name.
func (r *gatewayRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gateways WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting gateway: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gatewayRepo) scanOne(row *sql.Row) (*Gateway, error) {
	var g Gateway
	err := row.Scan(&g.ID, &g.Name, &g.Realm, &g.Username, &g.Password, &g.Proxy,
		&g.Register, &g.RegisterTransport, &g.DTMFType, &g.CodecPrefs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning gateway: %w", err)
	}
	return &g, nil
}
