// Package dialplan implements the call-routing core: given the switch's
// request variables, classify the call, dispatch to the matching
// handler, and produce a single extension program ready for XML
// emission.
package dialplan

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/switchplane/xmlcurld/internal/store"
	"github.com/switchplane/xmlcurld/internal/xmlgen"
)

// Resolver is the dialplan router. It is built from narrow read
// interfaces rather than a concrete store connection, mirroring the
// teacher's flow.Engine construction from repository interfaces — this
// is what makes it unit-testable with hand-written fakes.
type Resolver struct {
	Tenants                TenantReader
	Gateways               GatewayReader
	CNAM                   CNAMLookup
	OutboundGatewayProfile string
	Logger                 *slog.Logger
}

// NewResolver constructs a Resolver. logger may be nil, in which case
// slog.Default() is used.
func NewResolver(tenants TenantReader, gateways GatewayReader, cnamClient CNAMLookup, outboundProfile string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		Tenants:                tenants,
		Gateways:               gateways,
		CNAM:                   cnamClient,
		OutboundGatewayProfile: outboundProfile,
		Logger:                 logger,
	}
}

// Resolve answers one dialplan lookup. It never panics out to the
// caller: any internal failure renders the standard error program
// instead.
func (r *Resolver) Resolve(ctx context.Context, vars CallVariables) (xml string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Error("dialplan resolver panic", "recovered", rec)
			xml = xmlgen.EmitError()
		}
	}()

	switch vars.Context() {
	case "public":
		return r.resolvePublic(ctx, vars)
	case "default":
		return r.resolveDefault(ctx, vars)
	default:
		r.Logger.Info("unrecognized call context, falling back", "context", vars.Context())
		return xmlgen.EmitDialplan(outboundContext, fallbackProgram(vars.Destination()))
	}
}

// resolvePublic handles calls arriving from a carrier trunk.
func (r *Resolver) resolvePublic(ctx context.Context, vars CallVariables) string {
	did := vars.TrunkDID()
	if did == "" {
		if hint := vars.TrunkCalleeHint(); hint != "" {
			did = hint
		}
	}
	if did == "" {
		r.Logger.Info("public context call with no DID hint")
		return xmlgen.EmitDialplan(outboundContext, fallbackProgram(vars.Destination()))
	}
	return r.resolveInboundDID(ctx, vars, did)
}

// resolveDefault handles calls in the internal context: inter-domain
// guard, outbound PSTN, local dispatch, then fallback, in that order.
func (r *Resolver) resolveDefault(ctx context.Context, vars CallVariables) string {
	domain := vars.Domain()

	if prog, ok := interDomainGuardProgram(vars, domain); ok {
		return xmlgen.EmitDialplan(outboundContext, prog)
	}

	destination := vars.Destination()

	if prog, ok, err := r.outboundPSTNProgram(ctx, destination); err != nil {
		return xmlgen.EmitError()
	} else if ok {
		return xmlgen.EmitDialplan(outboundContext, prog)
	}

	tenant, err := r.Tenants.GetByDomain(ctx, domain)
	if err != nil {
		r.Logger.Error("store error loading tenant", "domain", domain, "error", err)
		return xmlgen.EmitError()
	}
	if tenant == nil {
		return xmlgen.EmitDialplan(outboundContext, fallbackProgram(destination))
	}

	if prog, ok := r.localDispatch(vars, tenant, destination); ok {
		return xmlgen.EmitDialplan(outboundContext, prog)
	}

	return xmlgen.EmitDialplan(outboundContext, fallbackProgram(destination))
}

// interDomainGuardProgram implements the inter-domain attack guard: if
// the caller's channel-name-derived domain is present and does not
// match the request domain (after normalization), reject the call.
func interDomainGuardProgram(vars CallVariables, requestDomain string) (xmlgen.Program, bool) {
	callerDomain := domainFromChannelName(vars.CallerChannelName())
	if callerDomain == "" || requestDomain == "" {
		return xmlgen.Program{}, false
	}
	if normalizeDomain(callerDomain) == normalizeDomain(requestDomain) {
		return xmlgen.Program{}, false
	}
	return xmlgen.Program{
		Name:                "inter-domain-reject",
		ConditionField:      "destination_number",
		ConditionExpression: anchoredExpression(vars.Destination()),
		Actions: []xmlgen.Action{
			{Application: "hangup", Data: "CALL_REJECTED"},
		},
	}, true
}

// domainFromChannelName extracts the domain portion of a channel name
// of the form "sofia/internal/user@domain" (or similar) by taking
// everything after the last "@".
func domainFromChannelName(channelName string) string {
	idx := strings.LastIndex(channelName, "@")
	if idx == -1 {
		return ""
	}
	return channelName[idx+1:]
}

// outboundPSTNProgram matches a 10-digit North American destination and
// builds a bridge-to-gateway program. It declines when the gateway pool
// is empty; the bridge string names the configured outbound profile, not
// an individual gateway from the pool.
func (r *Resolver) outboundPSTNProgram(ctx context.Context, destination string) (xmlgen.Program, bool, error) {
	number, ok := matchOutboundPSTN(destination)
	if !ok {
		return xmlgen.Program{}, false, nil
	}

	gateways, err := r.Gateways.ListExternal(ctx)
	if err != nil {
		return xmlgen.Program{}, false, fmt.Errorf("listing gateways: %w", err)
	}
	if len(gateways) == 0 {
		return xmlgen.Program{}, false, nil
	}

	return xmlgen.Program{
		Name:                "outbound-pstn",
		ConditionField:      "destination_number",
		ConditionExpression: anchoredExpression(destination),
		Actions: []xmlgen.Action{
			{Application: "bridge", Data: fmt.Sprintf("sofia/gateway/%s/%s", r.OutboundGatewayProfile, number)},
			{Application: "playback", Data: "ivr/ivr-call_cannot_be_completed_as_dialed.wav"},
			{Application: "hangup"},
		},
	}, true, nil
}

// localDispatch runs the six-step local-dispatch precedence order
// (minus the final fallback, which the caller supplies).
func (r *Resolver) localDispatch(vars CallVariables, tenant *store.Tenant, destination string) (xmlgen.Program, bool) {
	if destination == voicemailRetrievalCode {
		return voicemailRetrievalProgram(tenant.DomainName), true
	}

	if g, ok := findGroup(tenant, destination); ok {
		return groupProgram(tenant.DomainName, g, destination), true
	}

	if ext, ok := findDialplanExtension(tenant, destination); ok {
		return dialplanExtensionProgram(ext, destination), true
	}

	if client, ok := findSipClient(tenant, destination); ok {
		return sipClientProgram(tenant.DomainName, client, vars, destination), true
	}

	if matchExternalDialOut(destination) {
		return xmlgen.Program{
			Name:                "external-dial-out",
			ConditionField:      "destination_number",
			ConditionExpression: anchoredExpression(destination),
			Actions: []xmlgen.Action{
				{Application: "bridge", Data: fmt.Sprintf("sofia/gateway/%s/%s", r.OutboundGatewayProfile, destination)},
				{Application: "playback", Data: "ivr/ivr-call_cannot_be_completed_as_dialed.wav"},
				{Application: "hangup"},
			},
		}, true
	}

	return xmlgen.Program{}, false
}

func voicemailRetrievalProgram(domain string) xmlgen.Program {
	return xmlgen.Program{
		Name:                "voicemail-check",
		ConditionField:      "destination_number",
		ConditionExpression: anchoredExpression(voicemailRetrievalCode),
		Actions: []xmlgen.Action{
			{Application: "answer"},
			{Application: "sleep", Data: "1000"},
			{Application: "voicemail", Data: fmt.Sprintf("check default %s", domain)},
			{Application: "hangup"},
		},
	}
}

func findGroup(tenant *store.Tenant, destination string) (*store.Group, bool) {
	for i := range tenant.Groups {
		if tenant.Groups[i].Name == destination {
			return &tenant.Groups[i], true
		}
	}
	return nil, false
}

// groupComposeMembers joins member URIs with "|" for hunt groups
// (sequential) or "," for ring groups (simultaneous), prefixed with an
// optional "timeout=<n>," token.
func groupComposeMembers(domain string, g *store.Group) string {
	sep := "|"
	if g.Type == store.GroupTypeRing {
		sep = ","
	}
	uris := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		uris = append(uris, fmt.Sprintf("user/%s@%s", m.UserID, domain))
	}
	data := strings.Join(uris, sep)
	if g.Timeout > 0 {
		data = fmt.Sprintf("timeout=%d,%s", g.Timeout, data)
	}
	return data
}

func groupProgram(domain string, g *store.Group, destination string) xmlgen.Program {
	actions := []xmlgen.Action{
		{Application: "bridge", Data: groupComposeMembers(domain, g)},
	}
	actions = append(actions, failureActions(domain, g.VoicemailBoxID, g.NoAnswerAction)...)

	return xmlgen.Program{
		Name:                "group-" + g.Name,
		ConditionField:      "destination_number",
		ConditionExpression: anchoredExpression(destination),
		Actions:             actions,
	}
}

// failureActions builds the common "if voicemail, else if custom
// no-answer action, else announce+hangup" tail shared by group
// dispatch and direct SIP client dispatch.
func failureActions(domain, voicemailBoxID, noAnswerAction string) []xmlgen.Action {
	if voicemailBoxID != "" {
		return []xmlgen.Action{
			{Application: "answer"},
			{Application: "sleep", Data: "1000"},
			{Application: "voicemail", Data: fmt.Sprintf("default %s %s", domain, voicemailBoxID)},
			{Application: "hangup"},
		}
	}
	if noAnswerAction != "" {
		return []xmlgen.Action{
			{Application: "transfer", Data: noAnswerAction},
		}
	}
	return []xmlgen.Action{
		{Application: "answer"},
		{Application: "playback", Data: "ivr/ivr-call_cannot_be_completed_as_dialed.wav"},
		{Application: "hangup"},
	}
}

func findDialplanExtension(tenant *store.Tenant, destination string) (*store.DialplanExtension, bool) {
	for i := range tenant.Dialplan {
		ext := &tenant.Dialplan[i]
		if ext.ConditionField != "destination_number" {
			continue
		}
		matched, err := anchoredMatch(ext.ConditionExpression, destination)
		if err != nil {
			continue
		}
		if matched {
			return ext, true
		}
	}
	return nil, false
}

// dialplanExtensionProgram copies a tenant-admin-authored extension
// straight through. ConditionExpression and each action's Data are not
// re-escaped here: they come from the admin CRUD write path, not a call
// variable, and an authenticated tenant admin already has full control
// over their own dialplan.
func dialplanExtensionProgram(ext *store.DialplanExtension, destination string) xmlgen.Program {
	actions := make([]xmlgen.Action, 0, len(ext.Actions))
	for _, a := range ext.Actions {
		actions = append(actions, xmlgen.Action{Application: a.Application, Data: a.Data})
	}
	return xmlgen.Program{
		Name:                ext.Name,
		ConditionField:      ext.ConditionField,
		ConditionExpression: ext.ConditionExpression,
		Actions:             actions,
	}
}

func findSipClient(tenant *store.Tenant, destination string) (*store.SipClient, bool) {
	normDest := normalizeUserID(destination)
	for i := range tenant.SipClients {
		if normalizeUserID(tenant.SipClients[i].UserID) == normDest {
			return &tenant.SipClients[i], true
		}
	}
	return nil, false
}

func sipClientProgram(domain string, client *store.SipClient, vars CallVariables, destination string) xmlgen.Program {
	timeout := client.NoAnswerTimeout
	if timeout <= 0 {
		timeout = 30
	}

	actions := []xmlgen.Action{
		{Application: "export", Data: "dialed_extension=" + client.UserID},
		{Application: "set", Data: fmt.Sprintf("user_exists=${user_exists id %s %s}", client.UserID, domain)},
		{Application: "set", Data: "sip_forward_contact=${call_forward_" + client.UserID + "}"},
		{Application: "set", Data: "attended_transfer=true"},
		{Application: "set", Data: "ringback=${us-ring}"},
		{Application: "set", Data: "transfer_ringback=${us-ring}"},
		{Application: "set", Data: "call_timeout=" + strconv.Itoa(timeout)},
		{Application: "set", Data: "hangup_after_bridge=true"},
		{Application: "set", Data: "continue_on_fail=true"},
		{Application: "set", Data: fmt.Sprintf("call_return(%s)=%s", domain, escapeXMLAttr(vars.CallerIDNumber()))},
		{Application: "set", Data: "last_dial_ext=" + client.UserID},
		{Application: "bridge", Data: fmt.Sprintf("user/%s@%s", client.UserID, domain)},
	}

	voicemailBoxID := ""
	if client.EnableVoicemail {
		voicemailBoxID = client.UserID
	}
	actions = append(actions, failureActions(domain, voicemailBoxID, "")...)

	return xmlgen.Program{
		Name:                "client-" + client.UserID,
		ConditionField:      "destination_number",
		ConditionExpression: anchoredExpression(destination),
		Actions:             actions,
	}
}

func fallbackProgram(destination string) xmlgen.Program {
	return xmlgen.Program{
		Name:                "fallback",
		ConditionField:      "destination_number",
		ConditionExpression: anchoredExpression(destination),
		Actions: []xmlgen.Action{
			{Application: "answer"},
			{Application: "playback", Data: "ivr/ivr-call_cannot_be_completed_as_dialed.wav"},
			{Application: "hangup"},
		},
	}
}
