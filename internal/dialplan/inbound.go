package dialplan

import (
	"context"
	"fmt"
	"strings"

	"github.com/switchplane/xmlcurld/internal/store"
	"github.com/switchplane/xmlcurld/internal/xmlgen"
)

// resolveInboundDID implements the public-context inbound-DID handler:
// CNAM enrichment, tenant/DID lookup, the caller-identity preamble, and
// routing-type dispatch with failover.
func (r *Resolver) resolveInboundDID(ctx context.Context, vars CallVariables, did string) string {
	callerNumber := vars.CallerIDNumber()
	callerName := vars.CallerIDName()

	if r.CNAM != nil {
		if rec, err := r.CNAM.Lookup(ctx, callerNumber); err != nil {
			r.Logger.Warn("cnam lookup error, proceeding without enrichment", "error", err)
		} else if rec != nil {
			callerName = fmt.Sprintf("%s, %s, %s", rec.NationalNumberFormatted, rec.CallerID, rec.Location)
		}
	}

	callerName = stripLeadingCountryCode(callerName)
	callerNumber = stripLeadingCountryCode(callerNumber)

	canonicalDID := normalizeDID(did)
	tenant, err := r.Tenants.GetByActiveDID(ctx, canonicalDID)
	if err != nil {
		r.Logger.Error("store error loading tenant by did", "did", canonicalDID, "error", err)
		return xmlgen.EmitError()
	}
	if tenant == nil {
		return xmlgen.EmitDialplan(outboundContext, fallbackProgram(did))
	}

	var target *store.DID
	for i := range tenant.DIDs {
		if tenant.DIDs[i].DIDNumber == canonicalDID && tenant.DIDs[i].Active {
			target = &tenant.DIDs[i]
			break
		}
	}
	if target == nil {
		return xmlgen.EmitDialplan(outboundContext, fallbackProgram(did))
	}

	preamble := inboundPreamble(tenant.DomainName, callerName, callerNumber)

	var dispatch []xmlgen.Action
	matched := true
	switch target.RoutingType {
	case store.RoutingExtension:
		if client, ok := findSipClient(tenant, target.RoutingTarget); ok {
			dispatch = []xmlgen.Action{
				{Application: "bridge", Data: fmt.Sprintf("user/%s@%s", client.UserID, tenant.DomainName)},
			}
		} else {
			matched = false
		}
	case store.RoutingGroup:
		if g, ok := findGroup(tenant, target.RoutingTarget); ok {
			dispatch = []xmlgen.Action{
				{Application: "bridge", Data: groupComposeMembers(tenant.DomainName, g)},
			}
		} else {
			matched = false
		}
	case store.RoutingIVR:
		dispatch = []xmlgen.Action{
			{Application: "transfer", Data: fmt.Sprintf("%s XML %s_ivr_context", target.RoutingTarget, tenant.DomainName)},
		}
	default:
		dispatch = []xmlgen.Action{
			{Application: "transfer", Data: target.RoutingTarget},
		}
	}

	if !matched {
		return xmlgen.EmitDialplan(outboundContext, fallbackProgram(did))
	}

	actions := append(preamble, dispatch...)
	actions = append(actions, didFailoverActions(tenant.DomainName, target)...)

	return xmlgen.EmitDialplan(outboundContext, xmlgen.Program{
		Name:                "inbound-did-" + canonicalDID,
		ConditionField:      "destination_number",
		ConditionExpression: anchoredExpression(did),
		Actions:             actions,
	})
}

// inboundPreamble sets and exports the caller-identity variables the
// bridged leg needs to see. callerName and callerNumber come from the
// carrier's INVITE (or CNAM enrichment) and are escaped before they're
// folded into the "data" attribute xmlgen writes verbatim.
func inboundPreamble(domain, callerName, callerNumber string) []xmlgen.Action {
	name := escapeXMLAttr(callerName)
	number := escapeXMLAttr(callerNumber)
	set := func(kv string) xmlgen.Action { return xmlgen.Action{Application: "export", Data: kv} }
	return []xmlgen.Action{
		set("caller_id_name=" + name),
		set("caller_id_number=" + number),
		set("effective_caller_id_name=" + name),
		set("effective_caller_id_number=" + number),
		set("sip_invite_domain=" + domain),
		set("sip_from_host=" + domain),
		set("sip_from_user=" + number),
		set("sip_from_display=" + name),
		set(fmt.Sprintf("sip_from_uri=%s@%s", number, domain)),
		{Application: "set", Data: "continue_on_fail=true"},
		{Application: "set", Data: "hangup_after_bridge=true"},
	}
}

// didFailoverActions appends the failover tail: voicemail if the
// failover target names a mailbox, else announce+hangup.
func didFailoverActions(domain string, target *store.DID) []xmlgen.Action {
	if target.FailoverRoutingType == store.RoutingDialplanEntry && strings.HasPrefix(target.FailoverRoutingTarget, "voicemail_") {
		boxID := strings.TrimPrefix(target.FailoverRoutingTarget, "voicemail_")
		return []xmlgen.Action{
			{Application: "answer"},
			{Application: "sleep", Data: "1000"},
			{Application: "voicemail", Data: fmt.Sprintf("default %s %s", domain, boxID)},
			{Application: "hangup"},
		}
	}
	return []xmlgen.Action{
		{Application: "answer"},
		{Application: "playback", Data: "ivr/ivr-call_cannot_be_completed_as_dialed.wav"},
		{Application: "hangup"},
	}
}
