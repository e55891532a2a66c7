// Package directory implements the directory-lookup half of the
// switch-facing contract: given a domain and a user or mailbox id, it
// finds the matching SIP client, group mailbox, or DID failover
// mailbox, in that precedence order, and renders the matching
// directory document.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/switchplane/xmlcurld/internal/store"
	"github.com/switchplane/xmlcurld/internal/xmlgen"
)

// TenantReader is the narrow read surface the resolver needs. Kept
// separate from dialplan.TenantReader so this package has no import
// dependency on dialplan, even though both are satisfied by the same
// store.TenantRepository concrete type.
type TenantReader interface {
	GetByDomain(ctx context.Context, domain string) (*store.Tenant, error)
}

const noSIPAuthPassword = "NO_SIP_AUTH"

// Resolver answers directory lookups.
type Resolver struct {
	Tenants TenantReader
	Logger  *slog.Logger
}

// NewResolver constructs a Resolver. logger may be nil, in which case
// slog.Default() is used.
func NewResolver(tenants TenantReader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{Tenants: tenants, Logger: logger}
}

// Resolve answers one directory lookup. It never returns an error for
// a missing tenant or missing sub-entity — those render the empty
// directory document instead. A non-nil error means the store itself
// failed.
func (r *Resolver) Resolve(ctx context.Context, domain, userOrMailboxID string) (string, error) {
	tenant, err := r.Tenants.GetByDomain(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("loading tenant: %w", err)
	}
	if tenant == nil {
		return xmlgen.EmitDirectory(xmlgen.DirectoryDoc{}), nil
	}

	if client, ok := findSipClient(tenant, userOrMailboxID); ok {
		return xmlgen.EmitDirectory(sipClientDocument(tenant.DomainName, client)), nil
	}

	if g, ok := findGroupMailbox(tenant, userOrMailboxID); ok {
		return xmlgen.EmitDirectory(mailboxDocument(tenant.DomainName, userOrMailboxID, g.VoicemailPIN)), nil
	}

	if boxID, ok := findDIDFailoverMailbox(tenant, userOrMailboxID); ok {
		return xmlgen.EmitDirectory(mailboxDocument(tenant.DomainName, boxID, "")), nil
	}

	return xmlgen.EmitDirectory(xmlgen.DirectoryDoc{}), nil
}

func findSipClient(tenant *store.Tenant, userID string) (*store.SipClient, bool) {
	for i := range tenant.SipClients {
		if tenant.SipClients[i].UserID == userID {
			return &tenant.SipClients[i], true
		}
	}
	return nil, false
}

// findGroupMailbox matches a group whose voicemail_box_id equals id.
func findGroupMailbox(tenant *store.Tenant, id string) (*store.Group, bool) {
	for i := range tenant.Groups {
		if tenant.Groups[i].VoicemailBoxID != "" && tenant.Groups[i].VoicemailBoxID == id {
			return &tenant.Groups[i], true
		}
	}
	return nil, false
}

// findDIDFailoverMailbox matches a DID whose failover_routing_target
// is "voicemail_<id>", where id matches either the DID number itself
// or the requested mailbox id. Returns the mailbox id to emit.
func findDIDFailoverMailbox(tenant *store.Tenant, idOrDID string) (string, bool) {
	for i := range tenant.DIDs {
		d := &tenant.DIDs[i]
		boxID, ok := strings.CutPrefix(d.FailoverRoutingTarget, "voicemail_")
		if !ok {
			continue
		}
		if d.DIDNumber == idOrDID || boxID == idOrDID {
			return boxID, true
		}
	}
	return "", false
}

func sipClientDocument(domain string, c *store.SipClient) xmlgen.DirectoryDoc {
	params := []xmlgen.KV{{Name: "password", Value: c.Password}}
	if c.EnableVoicemail {
		params = append(params, xmlgen.KV{Name: "vm-password", Value: c.VoicemailPIN})
	}

	vars := []xmlgen.KV{
		{Name: "context", Value: "default"},
		{Name: "domain", Value: domain},
		{Name: "dial-string", Value: fmt.Sprintf("{sip_invite_domain=%s}user/%s@%s", domain, c.UserID, domain)},
		{Name: "voicemail_enabled", Value: boolParam(c.EnableVoicemail)},
	}
	if c.VoicemailEmail != "" {
		vars = append(vars, xmlgen.KV{Name: "email", Value: c.VoicemailEmail})
	}
	if c.LocalCallerIDName != "" {
		vars = append(vars, xmlgen.KV{Name: "effective_caller_id_name", Value: c.LocalCallerIDName})
	}
	vars = append(vars, xmlgen.KV{Name: "effective_caller_id_number", Value: c.UserID})

	return xmlgen.DirectoryDoc{
		DomainName: domain,
		User: xmlgen.DirectoryUser{
			ID:        c.UserID,
			Params:    params,
			Variables: vars,
		},
	}
}

// mailboxDocument builds the voicemail-only pseudo-user shared by the
// group-mailbox and DID-failover-mailbox branches.
func mailboxDocument(domain, mailboxID, pin string) xmlgen.DirectoryDoc {
	params := []xmlgen.KV{{Name: "password", Value: noSIPAuthPassword}}
	if pin != "" {
		params = append(params, xmlgen.KV{Name: "vm-password", Value: pin})
	}

	return xmlgen.DirectoryDoc{
		DomainName: domain,
		User: xmlgen.DirectoryUser{
			ID:     mailboxID,
			Params: params,
			Variables: []xmlgen.KV{
				{Name: "context", Value: "default"},
				{Name: "domain", Value: domain},
				{Name: "mailbox", Value: mailboxID},
			},
		},
	}
}

func boolParam(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
