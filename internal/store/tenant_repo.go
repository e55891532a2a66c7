package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// tenantRepo implements TenantRepository.
type tenantRepo struct {
	db *DB
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(db *DB) TenantRepository {
	return &tenantRepo{db: db}
}

// GetByDomain returns the tenant for domain, or (nil, nil) if none exists.
func (r *tenantRepo) GetByDomain(ctx context.Context, domain string) (*Tenant, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM tenants WHERE domain_name = ?`, domain).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up tenant by domain: %w", err)
	}
	return r.loadTenant(ctx, id, domain)
}

// GetByActiveDID returns the tenant owning an active DID with the given
// canonical number, or (nil, nil) if no active DID matches.
func (r *tenantRepo) GetByActiveDID(ctx context.Context, didNumber string) (*Tenant, error) {
	var tenantID int64
	var domain string
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.domain_name FROM tenants t
		 JOIN dids d ON d.tenant_id = t.id
		 WHERE d.did_number = ? AND d.active = 1`, didNumber,
	).Scan(&tenantID, &domain)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up tenant by did: %w", err)
	}
	return r.loadTenant(ctx, tenantID, domain)
}

// FindSipClient returns the SIP client (domain, userID), or (nil, nil) if
// none exists.
func (r *tenantRepo) FindSipClient(ctx context.Context, domain, userID string) (*SipClient, error) {
	tenantID, err := r.tenantID(ctx, domain)
	if err != nil || tenantID == 0 {
		return nil, err
	}
	return r.scanSipClient(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, password, display_name, enable_voicemail, voicemail_pin,
		 voicemail_email, no_answer_timeout, local_caller_id_name
		 FROM sip_clients WHERE tenant_id = ? AND user_id = ?`, tenantID, userID,
	))
}

// List returns every tenant, in creation order.
func (r *tenantRepo) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, domain_name FROM tenants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying tenants: %w", err)
	}
	type idDomain struct {
		id     int64
		domain string
	}
	var ids []idDomain
	for rows.Next() {
		var d idDomain
		if err := rows.Scan(&d.id, &d.domain); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		ids = append(ids, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	tenants := make([]Tenant, 0, len(ids))
	for _, d := range ids {
		t, err := r.loadTenant(ctx, d.id, d.domain)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, nil
}

// Create inserts a new tenant. Returns ErrConflict if domain_name already
// exists.
func (r *tenantRepo) Create(ctx context.Context, domain string) (*Tenant, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (domain_name) VALUES (?)`, domain)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("inserting tenant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting last insert id: %w", err)
	}
	return &Tenant{ID: id, DomainName: domain}, nil
}

// Delete removes a tenant and everything embedded in it.
func (r *tenantRepo) Delete(ctx context.Context, domain string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE domain_name = ?`, domain)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
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

// UpsertSipClient creates or updates a SIP client within a tenant.
func (r *tenantRepo) UpsertSipClient(ctx context.Context, domain string, c SipClient) (*SipClient, error) {
	tenantID, err := r.tenantID(ctx, domain)
	if err != nil {
		return nil, err
	}
	if tenantID == 0 {
		return nil, ErrNotFound
	}

	var existingID int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM sip_clients WHERE tenant_id = ? AND user_id = ?`, tenantID, c.UserID,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		var nextOrder int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sort_order)+1, 0) FROM sip_clients WHERE tenant_id = ?`, tenantID,
		).Scan(&nextOrder); err != nil {
			return nil, fmt.Errorf("computing sort order: %w", err)
		}
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO sip_clients (tenant_id, user_id, password, display_name,
			 enable_voicemail, voicemail_pin, voicemail_email, no_answer_timeout,
			 local_caller_id_name, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tenantID, c.UserID, c.Password, c.DisplayName, c.EnableVoicemail,
			c.VoicemailPIN, c.VoicemailEmail, c.NoAnswerTimeout, c.LocalCallerIDName, nextOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting sip client: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting last insert id: %w", err)
		}
		c.ID = id
		return &c, nil
	case err != nil:
		return nil, fmt.Errorf("looking up sip client: %w", err)
	default:
		_, err := r.db.ExecContext(ctx,
			`UPDATE sip_clients SET password = ?, display_name = ?, enable_voicemail = ?,
			 voicemail_pin = ?, voicemail_email = ?, no_answer_timeout = ?,
			 local_caller_id_name = ? WHERE id = ?`,
			c.Password, c.DisplayName, c.EnableVoicemail, c.VoicemailPIN,
			c.VoicemailEmail, c.NoAnswerTimeout, c.LocalCallerIDName, existingID,
		)
		if err != nil {
			return nil, fmt.Errorf("updating sip client: %w", err)
		}
		c.ID = existingID
		return &c, nil
	}
}

// DeleteSipClient removes a SIP client from a tenant and, per invariant
// (d), removes it from every group's member list and rewrites any DID
// pointing at it to an "unassigned" custom target.
func (r *tenantRepo) DeleteSipClient(ctx context.Context, domain, userID string) error {
	tenantID, err := r.tenantID(ctx, domain)
	if err != nil {
		return err
	}
	if tenantID == 0 {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM sip_clients WHERE tenant_id = ? AND user_id = ?`, tenantID, userID)
	if err != nil {
		return fmt.Errorf("deleting sip client: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE user_id = ? AND group_id IN
		 (SELECT id FROM groups WHERE tenant_id = ?)`, userID, tenantID); err != nil {
		return fmt.Errorf("removing client from groups: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE dids SET routing_type = ?, routing_target = 'unassigned'
		 WHERE tenant_id = ? AND routing_type = ? AND routing_target = ?`,
		RoutingCustom, tenantID, RoutingExtension, userID); err != nil {
		return fmt.Errorf("rewriting dids after client deletion: %w", err)
	}

	return tx.Commit()
}

// UpsertGroup creates or updates a group within a tenant.
func (r *tenantRepo) UpsertGroup(ctx context.Context, domain string, g Group) (*Group, error) {
	tenantID, err := r.tenantID(ctx, domain)
	if err != nil {
		return nil, err
	}
	if tenantID == 0 {
		return nil, ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM groups WHERE tenant_id = ? AND name = ?`, tenantID, g.Name,
	).Scan(&groupID)
	switch {
	case err == sql.ErrNoRows:
		var nextOrder int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sort_order)+1, 0) FROM groups WHERE tenant_id = ?`, tenantID,
		).Scan(&nextOrder); err != nil {
			return nil, fmt.Errorf("computing sort order: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO groups (tenant_id, name, type, timeout, strategy,
			 voicemail_box_id, voicemail_pin, no_answer_action, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tenantID, g.Name, g.Type, g.Timeout, g.Strategy, g.VoicemailBoxID, g.VoicemailPIN, g.NoAnswerAction, nextOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting group: %w", err)
		}
		groupID, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting last insert id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("looking up group: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE groups SET type = ?, timeout = ?, strategy = ?, voicemail_box_id = ?,
			 voicemail_pin = ?, no_answer_action = ? WHERE id = ?`,
			g.Type, g.Timeout, g.Strategy, g.VoicemailBoxID, g.VoicemailPIN, g.NoAnswerAction, groupID,
		); err != nil {
			return nil, fmt.Errorf("updating group: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, groupID); err != nil {
			return nil, fmt.Errorf("clearing group members: %w", err)
		}
	}

	for i, m := range g.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, sort_order) VALUES (?, ?, ?)`,
			groupID, m.UserID, i,
		); err != nil {
			return nil, fmt.Errorf("inserting group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing group upsert: %w", err)
	}
	g.ID = groupID
	return &g, nil
}

// DeleteGroup removes a group and, per invariant (d), rewrites any DID
// pointing at it to an "unassigned" custom target.
func (r *tenantRepo) DeleteGroup(ctx context.Context, domain, name string) error {
	tenantID, err := r.tenantID(ctx, domain)
	if err != nil {
		return err
	}
	if tenantID == 0 {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM groups WHERE tenant_id = ? AND name = ?`, tenantID, name)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE dids SET routing_type = ?, routing_target = 'unassigned'
		 WHERE tenant_id = ? AND routing_type = ? AND routing_target = ?`,
		RoutingCustom, tenantID, RoutingGroup, name); err != nil {
		return fmt.Errorf("rewriting dids after group deletion: %w", err)
	}

	return tx.Commit()
}

// UpsertDID creates or updates a DID within a tenant. didNumber is
// normalized to canonical form by the caller (admin handler) per
// invariant (e); the store persists exactly what it is given.
func (r *tenantRepo) UpsertDID(ctx context.Context, domain string, d DID) (*DID, error) {
	tenantID, err := r.tenantID(ctx, domain)
	if err != nil {
		return nil, err
	}
	if tenantID == 0 {
		return nil, ErrNotFound
	}

	var existingID int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM dids WHERE tenant_id = ? AND did_number = ?`, tenantID, d.DIDNumber,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		var nextOrder int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sort_order)+1, 0) FROM dids WHERE tenant_id = ?`, tenantID,
		).Scan(&nextOrder); err != nil {
			return nil, fmt.Errorf("computing sort order: %w", err)
		}
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO dids (tenant_id, did_number, active, routing_type, routing_target,
			 failover_routing_type, failover_routing_target, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			tenantID, d.DIDNumber, d.Active, d.RoutingType, d.RoutingTarget,
			d.FailoverRoutingType, d.FailoverRoutingTarget, nextOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting did: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting last insert id: %w", err)
		}
		d.ID = id
		return &d, nil
	case err != nil:
		return nil, fmt.Errorf("looking up did: %w", err)
	default:
		_, err := r.db.ExecContext(ctx,
			`UPDATE dids SET active = ?, routing_type = ?, routing_target = ?,
			 failover_routing_type = ?, failover_routing_target = ? WHERE id = ?`,
			d.Active, d.RoutingType, d.RoutingTarget, d.FailoverRoutingType,
			d.FailoverRoutingTarget, existingID,
		)
		if err != nil {
			return nil, fmt.Errorf("updating did: %w", err)
		}
		d.ID = existingID
		return &d, nil
	}
}

// DeleteDID removes a DID from a tenant.
func (r *tenantRepo) DeleteDID(ctx context.Context, domain, didNumber string) error {
	tenantID, err := r.tenantID(ctx, domain)
	if err != nil {
		return err
	}
	if tenantID == 0 {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM dids WHERE tenant_id = ? AND did_number = ?`, tenantID, didNumber)
	if err != nil {
		return fmt.Errorf("deleting did: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertDialplanExtension creates or updates a dialplan extension within
// a tenant.
func (r *tenantRepo) UpsertDialplanExtension(ctx context.Context, domain string, e DialplanExtension) (*DialplanExtension, error) {
	tenantID, err := r.tenantID(ctx, domain)
	if err != nil {
		return nil, err
	}
	if tenantID == 0 {
		return nil, ErrNotFound
	}

	actionsJSON, err := json.Marshal(e.Actions)
	if err != nil {
		return nil, fmt.Errorf("encoding actions: %w", err)
	}

	var existingID int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM dialplan_extensions WHERE tenant_id = ? AND name = ?`, tenantID, e.Name,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		var nextOrder int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sort_order)+1, 0) FROM dialplan_extensions WHERE tenant_id = ?`, tenantID,
		).Scan(&nextOrder); err != nil {
			return nil, fmt.Errorf("computing sort order: %w", err)
		}
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO dialplan_extensions (tenant_id, name, condition_field,
			 condition_expression, actions_json, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			tenantID, e.Name, e.ConditionField, e.ConditionExpression, string(actionsJSON), nextOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting dialplan extension: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting last insert id: %w", err)
		}
		e.ID = id
		return &e, nil
	case err != nil:
		return nil, fmt.Errorf("looking up dialplan extension: %w", err)
	default:
		_, err := r.db.ExecContext(ctx,
			`UPDATE dialplan_extensions SET condition_field = ?, condition_expression = ?,
			 actions_json = ? WHERE id = ?`,
			e.ConditionField, e.ConditionExpression, string(actionsJSON), existingID,
		)
		if err != nil {
			return nil, fmt.Errorf("updating dialplan extension: %w", err)
		}
		e.ID = existingID
		return &e, nil
	}
}

// DeleteDialplanExtension removes a dialplan extension from a tenant.
func (r *tenantRepo) DeleteDialplanExtension(ctx context.Context, domain, name string) error {
	tenantID, err := r.tenantID(ctx, domain)
	if err != nil {
		return err
	}
	if tenantID == 0 {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM dialplan_extensions WHERE tenant_id = ? AND name = ?`, tenantID, name)
	if err != nil {
		return fmt.Errorf("deleting dialplan extension: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// tenantID returns the internal id for domain, or 0 if no tenant exists.
func (r *tenantRepo) tenantID(ctx context.Context, domain string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM tenants WHERE domain_name = ?`, domain).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("looking up tenant id: %w", err)
	}
	return id, nil
}

// loadTenant loads a tenant and all of its embedded collections,
// preserving insertion order via sort_order.
func (r *tenantRepo) loadTenant(ctx context.Context, id int64, domain string) (*Tenant, error) {
	t := &Tenant{ID: id, DomainName: domain}

	clientRows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, password, display_name, enable_voicemail, voicemail_pin,
		 voicemail_email, no_answer_timeout, local_caller_id_name
		 FROM sip_clients WHERE tenant_id = ? ORDER BY sort_order, id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying sip clients: %w", err)
	}
	for clientRows.Next() {
		var c SipClient
		if err := clientRows.Scan(&c.ID, &c.UserID, &c.Password, &c.DisplayName,
			&c.EnableVoicemail, &c.VoicemailPIN, &c.VoicemailEmail,
			&c.NoAnswerTimeout, &c.LocalCallerIDName); err != nil {
			clientRows.Close()
			return nil, fmt.Errorf("scanning sip client row: %w", err)
		}
		t.SipClients = append(t.SipClients, c)
	}
	if err := clientRows.Err(); err != nil {
		return nil, err
	}
	clientRows.Close()

	groupRows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, timeout, strategy, voicemail_box_id, voicemail_pin, no_answer_action
		 FROM groups WHERE tenant_id = ? ORDER BY sort_order, id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	var groupIDs []int64
	for groupRows.Next() {
		var g Group
		if err := groupRows.Scan(&g.ID, &g.Name, &g.Type, &g.Timeout, &g.Strategy,
			&g.VoicemailBoxID, &g.VoicemailPIN, &g.NoAnswerAction); err != nil {
			groupRows.Close()
			return nil, fmt.Errorf("scanning group row: %w", err)
		}
		t.Groups = append(t.Groups, g)
		groupIDs = append(groupIDs, g.ID)
	}
	if err := groupRows.Err(); err != nil {
		return nil, err
	}
	groupRows.Close()

	for i, gid := range groupIDs {
		memberRows, err := r.db.QueryContext(ctx,
			`SELECT user_id FROM group_members WHERE group_id = ? ORDER BY sort_order, id`, gid)
		if err != nil {
			return nil, fmt.Errorf("querying group members: %w", err)
		}
		for memberRows.Next() {
			var m GroupMember
			if err := memberRows.Scan(&m.UserID); err != nil {
				memberRows.Close()
				return nil, fmt.Errorf("scanning group member row: %w", err)
			}
			t.Groups[i].Members = append(t.Groups[i].Members, m)
		}
		if err := memberRows.Err(); err != nil {
			return nil, err
		}
		memberRows.Close()
	}

	didRows, err := r.db.QueryContext(ctx,
		`SELECT id, did_number, active, routing_type, routing_target,
		 failover_routing_type, failover_routing_target
		 FROM dids WHERE tenant_id = ? ORDER BY sort_order, id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying dids: %w", err)
	}
	for didRows.Next() {
		var d DID
		if err := didRows.Scan(&d.ID, &d.DIDNumber, &d.Active, &d.RoutingType,
			&d.RoutingTarget, &d.FailoverRoutingType, &d.FailoverRoutingTarget); err != nil {
			didRows.Close()
			return nil, fmt.Errorf("scanning did row: %w", err)
		}
		t.DIDs = append(t.DIDs, d)
	}
	if err := didRows.Err(); err != nil {
		return nil, err
	}
	didRows.Close()

	extRows, err := r.db.QueryContext(ctx,
		`SELECT id, name, condition_field, condition_expression, actions_json
		 FROM dialplan_extensions WHERE tenant_id = ? ORDER BY sort_order, id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying dialplan extensions: %w", err)
	}
	for extRows.Next() {
		var e DialplanExtension
		var actionsJSON string
		if err := extRows.Scan(&e.ID, &e.Name, &e.ConditionField, &e.ConditionExpression, &actionsJSON); err != nil {
			extRows.Close()
			return nil, fmt.Errorf("scanning dialplan extension row: %w", err)
		}
		if err := json.Unmarshal([]byte(actionsJSON), &e.Actions); err != nil {
			extRows.Close()
			return nil, fmt.Errorf("decoding dialplan extension actions: %w", err)
		}
		t.Dialplan = append(t.Dialplan, e)
	}
	if err := extRows.Err(); err != nil {
		return nil, err
	}
	extRows.Close()

	return t, nil
}

func (r *tenantRepo) scanSipClient(row *sql.Row) (*SipClient, error) {
	var c SipClient
	err := row.Scan(&c.ID, &c.UserID, &c.Password, &c.DisplayName, &c.EnableVoicemail,
		&c.VoicemailPIN, &c.VoicemailEmail, &c.NoAnswerTimeout, &c.LocalCallerIDName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sip client: %w", err)
	}
	return &c, nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness constraint
// failure. modernc.org/sqlite doesn't export a typed error; its message
// follows the upstream SQLite driver's wording.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
