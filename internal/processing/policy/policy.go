package policy

import "strings"

// Owner-facing policy values as stored on the shortlink. The dashboard
// writes these strings; the engine treats "" the same as the explicit
// allow-all value.
const (
	DeviceAllowAll = "Allow All"
	DeviceMobile   = "Mobile"
	DeviceDesktop  = "Desktop"

	ConnAllowAll   = "Allow All"
	ConnBlockProxy = "Block Proxy"
	ConnBlockVPN   = "Block VPN"
	ConnBlockAll   = "Block All"
)

// Block reasons. These exact strings are persisted on visit records and
// shown on the dashboard; do not reword them.
const (
	ReasonBotISP     = "BOT is not allowed"
	ReasonCountry    = "Your country is banned from accessing this resource."
	ReasonDevice     = "Device not allowed"
	ReasonProxy      = "PROXY is not allowed"
	ReasonVPN        = "VPN is not allowed"
	ReasonDatacenter = "DATACENTER is not allowed"
	ReasonVPNProxy   = "VPN or Proxy is not allowed"
	ReasonDenied     = "Access denied"
	ReasonBotUA      = "BOT User Agent"
	ReasonHuman      = "Real Human"
)

// Policy is the owner-defined restriction set attached to a shortlink.
// Zero values mean "no restriction" for that dimension.
type Policy struct {
	AllowedDevice  string
	ConnectionType string
	AllowedCountry string
	AllowedISP     string
}

// Input is everything the engine knows about one visitor: the merged IP
// intelligence plus the user-agent classification.
type Input struct {
	ISP            string // ASN description from the reputation source
	BotISP         bool   // cloud-provider heuristic or upstream bot flag
	CountryCode    string // "" when unresolvable
	ConnectionType string // proxy | vpn | datacenter | "" when unknown
	DeviceType     string
	MatchedBot     string // matched UA signature, "" when none
}

// Decision is the outcome of evaluating one visitor against one policy.
type Decision struct {
	Blocked bool
	Reason  string
}

// A rule inspects the visitor and either claims the decision or passes.
// Rules are evaluated strictly in slice order and the first claim wins,
// so priority lives in the data structure, not in nested conditionals.
type rule struct {
	name string
	eval func(Policy, Input) (Decision, bool)
}

var rules = []rule{
	{
		// Bot-class infrastructure is blocked unless the owner allowlisted
		// the visitor's ISP and the visitor actually matches it.
		name: "bot-isp",
		eval: func(p Policy, in Input) (Decision, bool) {
			ispAllowed := p.AllowedISP != "" &&
				strings.Contains(strings.ToLower(in.ISP), strings.ToLower(p.AllowedISP))
			if in.BotISP && !ispAllowed {
				return Decision{Blocked: true, Reason: ReasonBotISP}, true
			}
			return Decision{}, false
		},
	},
	{
		// An unresolvable country counts as a mismatch: when the owner pinned
		// a country, a visitor we cannot place is not provably inside it.
		name: "country",
		eval: func(p Policy, in Input) (Decision, bool) {
			if p.AllowedCountry == "" {
				return Decision{}, false
			}
			if !strings.EqualFold(in.CountryCode, p.AllowedCountry) {
				return Decision{Blocked: true, Reason: ReasonCountry}, true
			}
			return Decision{}, false
		},
	},
	{
		name: "device",
		eval: func(p Policy, in Input) (Decision, bool) {
			if p.AllowedDevice == "" || p.AllowedDevice == DeviceAllowAll {
				return Decision{}, false
			}
			if (p.AllowedDevice == DeviceMobile && in.DeviceType != DeviceMobile) ||
				(p.AllowedDevice == DeviceDesktop && in.DeviceType != DeviceDesktop) {
				return Decision{Blocked: true, Reason: ReasonDevice}, true
			}
			return Decision{}, false
		},
	},
	{
		// Datacenter traffic is blocked under every policy, including
		// Allow All; proxies and VPNs only when the owner targets them.
		name: "connection-type",
		eval: func(p Policy, in Input) (Decision, bool) {
			ct := in.ConnectionType
			targeted := (p.ConnectionType == ConnBlockProxy && ct == "proxy") ||
				(p.ConnectionType == ConnBlockVPN && ct == "vpn") ||
				(p.ConnectionType == ConnBlockAll && (ct == "vpn" || ct == "proxy" || ct == "datacenter"))

			if !targeted && ct != "datacenter" {
				return Decision{}, false
			}

			if p.ConnectionType == ConnBlockAll {
				return Decision{Blocked: true, Reason: ReasonVPNProxy}, true
			}
			switch ct {
			case "proxy":
				return Decision{Blocked: true, Reason: ReasonProxy}, true
			case "vpn":
				return Decision{Blocked: true, Reason: ReasonVPN}, true
			case "datacenter":
				return Decision{Blocked: true, Reason: ReasonDatacenter}, true
			}
			return Decision{Blocked: true, Reason: ReasonDenied}, true
		},
	},
	{
		name: "ua-signature",
		eval: func(p Policy, in Input) (Decision, bool) {
			if in.MatchedBot != "" {
				return Decision{Blocked: true, Reason: ReasonBotUA}, true
			}
			return Decision{}, false
		},
	},
}

// Decide evaluates the visitor against the policy. Pure and deterministic;
// the first matching rule decides and later rules are never consulted.
func Decide(p Policy, in Input) Decision {
	for _, r := range rules {
		if d, hit := r.eval(p, in); hit {
			return d
		}
	}
	return Decision{Blocked: false, Reason: ReasonHuman}
}
