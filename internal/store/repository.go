package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by write-path lookups (admin CRUD) when the
// requested aggregate or child does not exist. The read path used by the
// resolvers never returns this: a missing aggregate there is reported as
// (nil, nil), because a missing tenant/client/DID is a routing outcome,
// not a failure (spec §7).
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned by write-path inserts that violate a
// uniqueness invariant: a tenant's domain_name or a gateway's name.
// Tenant-scoped children are written by upsert and do not return it.
var ErrConflict = errors.New("store: conflict")

// TenantRepository is the read/write surface over the Tenant aggregate
// and everything embedded in it. The dialplan and directory resolvers
// only use the read methods (GetByDomain, GetByActiveDID,
// FindSipClient); the admin REST surface uses the rest.
type TenantRepository interface {
	// GetByDomain returns the tenant for domain, or (nil, nil) if none
	// exists. Embedded collections are returned in insertion order.
	GetByDomain(ctx context.Context, domain string) (*Tenant, error)

	// GetByActiveDID returns the tenant owning an active DID with the
	// given canonical number, or (nil, nil) if no active DID matches.
	GetByActiveDID(ctx context.Context, didNumber string) (*Tenant, error)

	// FindSipClient returns the SIP client (domain, userID), or
	// (nil, nil) if none exists.
	FindSipClient(ctx context.Context, domain, userID string) (*SipClient, error)

	// List returns every tenant, in creation order.
	List(ctx context.Context) ([]Tenant, error)

	// Create inserts a new tenant. Returns ErrConflict if domain_name
	// already exists.
	Create(ctx context.Context, domain string) (*Tenant, error)

	// Delete removes a tenant and everything embedded in it. Returns
	// ErrNotFound if no such tenant exists.
	Delete(ctx context.Context, domain string) error

	// UpsertSipClient creates or updates a SIP client within a tenant.
	// Returns ErrNotFound if the tenant does not exist.
	UpsertSipClient(ctx context.Context, domain string, client SipClient) (*SipClient, error)

	// DeleteSipClient removes a SIP client from a tenant and, per
	// invariant (d), removes it from every group's member list and
	// rewrites any DID pointing at it to an "unassigned" custom target.
	DeleteSipClient(ctx context.Context, domain, userID string) error

	// UpsertGroup creates or updates a group within a tenant.
	UpsertGroup(ctx context.Context, domain string, group Group) (*Group, error)

	// DeleteGroup removes a group and, per invariant (d), rewrites any
	// DID pointing at it to an "unassigned" custom target.
	DeleteGroup(ctx context.Context, domain, name string) error

	// UpsertDID creates or updates a DID within a tenant.
	UpsertDID(ctx context.Context, domain string, did DID) (*DID, error)

	// DeleteDID removes a DID from a tenant.
	DeleteDID(ctx context.Context, domain, didNumber string) error

	// UpsertDialplanExtension creates or updates a dialplan extension
	// within a tenant.
	UpsertDialplanExtension(ctx context.Context, domain string, ext DialplanExtension) (*DialplanExtension, error)

	// DeleteDialplanExtension removes a dialplan extension from a tenant.
	DeleteDialplanExtension(ctx context.Context, domain, name string) error
}

// GatewayRepository is the read/write surface over the global Gateway
// aggregate.
type GatewayRepository interface {
	// ListExternal returns every gateway, in insertion order. The
	// dialplan resolver only checks that the pool is non-empty before
	// outbound PSTN bridging; the configuration resolver enumerates all
	// of them.
	ListExternal(ctx context.Context) ([]Gateway, error)

	// Create inserts a new gateway. Returns ErrConflict if name already
	// exists.
	Create(ctx context.Context, gw Gateway) (*Gateway, error)

	// Get returns the gateway by name, or (nil, nil) if none exists.
	Get(ctx context.Context, name string) (*Gateway, error)

	// Update replaces an existing gateway's fields. Returns ErrNotFound
	// if no gateway with that name exists.
	Update(ctx context.Context, gw Gateway) (*Gateway, error)

	// Delete removes a gateway by name. Returns ErrNotFound if none
	// exists.
	Delete(ctx context.Context, name string) error
}
