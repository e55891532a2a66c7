package dialplan

// CallVariables is the loose string-keyed map of request variables the
// switch posts with every lookup. Recognized keys are read through the
// typed accessors below, each implementing the documented precedence
// chain for that field.
type CallVariables map[string]string

func (v CallVariables) first(keys ...string) string {
	for _, k := range keys {
		if val, ok := v[k]; ok && val != "" {
			return val
		}
	}
	return ""
}

// Domain returns the domain hint: domain, else variable_domain_name,
// else variable_sip_to_host.
func (v CallVariables) Domain() string {
	return v.first("domain", "variable_domain_name", "variable_sip_to_host")
}

// Context returns the call-context hint, defaulting to "default".
func (v CallVariables) Context() string {
	if c := v.first("Caller-Context", "variable_dialplan_context"); c != "" {
		return c
	}
	return "default"
}

// Destination returns the dialed destination number.
func (v CallVariables) Destination() string {
	return v.first("Caller-Destination-Number", "destination_number")
}

// TrunkDID returns the trunk-provided DID override, if any.
func (v CallVariables) TrunkDID() string {
	return v["variable_signalwire_actual_did"]
}

// TrunkCalleeHint returns the trunk-side callee hint used when no
// explicit DID override is present.
func (v CallVariables) TrunkCalleeHint() string {
	return v.first("variable_sip_to_user", "variable_sip_dest_user")
}

// CallerIDNumber returns the caller's number as presented by the switch.
func (v CallVariables) CallerIDNumber() string {
	return v["Caller-Caller-ID-Number"]
}

// CallerIDName returns the caller's display name as presented by the
// switch.
func (v CallVariables) CallerIDName() string {
	return v["Caller-Caller-ID-Name"]
}

// CallerChannelName returns the full channel name of the calling leg,
// used to derive the caller's home domain for the inter-domain guard.
func (v CallVariables) CallerChannelName() string {
	return v["Caller-Channel-Name"]
}
