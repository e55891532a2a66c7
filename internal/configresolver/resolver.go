// Package configresolver implements the configuration-lookup half of
// the switch-facing contract: the single recognized key renders the
// sofia.conf document (internal profile, plus an external profile
// built by enumerating the global gateway pool).
package configresolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/switchplane/xmlcurld/internal/store"
	"github.com/switchplane/xmlcurld/internal/xmlgen"
)

// recognizedKey is the only configuration key this resolver answers.
// Anything else yields the "result not found" document.
const recognizedKey = "configuration.conf"

// externalProfileName: the
// external-facing SIP profile is named "external", matching the
// profile token the dialplan resolver's outbound bridge targets
// ("sofia/gateway/<profile>/...").
const externalProfileName = "external"

// GatewayReader is the narrow read surface over the global gateway
// pool.
type GatewayReader interface {
	ListExternal(ctx context.Context) ([]store.Gateway, error)
}

// Resolver answers configuration lookups.
type Resolver struct {
	Gateways GatewayReader
	Logger   *slog.Logger
}

// NewResolver constructs a Resolver. logger may be nil, in which case
// slog.Default() is used.
func NewResolver(gateways GatewayReader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{Gateways: gateways, Logger: logger}
}

// Resolve answers one configuration lookup for key. A non-nil error
// means the gateway store itself failed; an unrecognized key is not
// an error, it's the "result not found" document.
func (r *Resolver) Resolve(ctx context.Context, key string) (string, error) {
	if key != recognizedKey {
		return xmlgen.EmitNotFound("configuration"), nil
	}

	gateways, err := r.Gateways.ListExternal(ctx)
	if err != nil {
		return "", fmt.Errorf("listing gateways: %w", err)
	}

	return xmlgen.EmitConfiguration(xmlgen.ConfigDoc{
		InternalProfileParams: internalProfileParams(),
		ExternalProfileName:   externalProfileName,
		ExternalProfileParams: externalProfileParams(),
		Gateways:              gatewayEntries(gateways),
	}), nil
}

// internalProfileParams are the fixed settings the internal SIP
// profile registers with: tenants' phones bind here.
func internalProfileParams() []xmlgen.KV {
	return []xmlgen.KV{
		{Name: "context", Value: "default"},
		{Name: "codec-prefs", Value: "OPUS,G722,PCMU,PCMA"},
		{Name: "inbound-codec-negotiation", Value: "generous"},
		{Name: "presence-privacy", Value: "true"},
		{Name: "manage-presence", Value: "true"},
		{Name: "apply-nat-acl", Value: "rfc1918.auto"},
		{Name: "aggressive-nat-detection", Value: "true"},
		{Name: "record-path", Value: "/var/lib/xmlcurld/recordings"},
		{Name: "record-template", Value: "${domain_name}/${caller_id_number}.${strftime(%Y-%m-%d-%H-%M-%S)}.wav"},
	}
}

// externalProfileParams are the fixed settings of the carrier-facing
// profile, applied regardless of how many gateways the pool holds.
func externalProfileParams() []xmlgen.KV {
	return []xmlgen.KV{
		{Name: "context", Value: "public"},
		{Name: "codec-prefs", Value: "PCMU,PCMA"},
		{Name: "apply-nat-acl", Value: "trusted-networks"},
		{Name: "accept-blind-reg", Value: "false"},
		{Name: "accept-blind-auth", Value: "false"},
	}
}

func gatewayEntries(gateways []store.Gateway) []xmlgen.SIPGateway {
	entries := make([]xmlgen.SIPGateway, 0, len(gateways))
	for _, g := range gateways {
		entries = append(entries, xmlgen.SIPGateway{
			Name:              g.Name,
			Realm:             g.Realm,
			Username:          g.Username,
			Password:          g.Password,
			Proxy:             g.Proxy,
			Register:          g.Register,
			RegisterTransport: g.RegisterTransport,
			DTMFType:          g.DTMFType,
			CodecPrefs:        g.CodecPrefs,
		})
	}
	return entries
}
