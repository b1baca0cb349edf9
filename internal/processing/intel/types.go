package intel

import (
	"context"
	"strings"
)

// Connection classes as reported by the reputation sources. Unknown
// classes pass through lowercased; the policy engine only reacts to
// these three.
const (
	TypeProxy      = "proxy"
	TypeVPN        = "vpn"
	TypeDatacenter = "datacenter"
)

// Intelligence is the merged view of one IP across all sources that
// answered. Fields from sources that failed stay at their zero value.
type Intelligence struct {
	IP             string
	Type           string
	BotFlag        bool
	ASNDescription string
	Country        string
	CountryCode    string
	Region         string
	City           string
	Latitude       float64
	Longitude      float64
	Timezone       string
	ISP            string
	FlagImg        string
}

// Source is one independent reputation/geolocation backend.
type Source interface {
	Name() string
	Lookup(ctx context.Context, ip string) (*Intelligence, error)
}

// SourceResult tags the outcome of a single source so that partial
// failure stays visible to the caller instead of being thrown away.
type SourceResult struct {
	Source string
	Data   *Intelligence
	Err    error
}

// cloudProviders are ASN/ISP name fragments that mark an address as
// bot-class infrastructure regardless of its declared connection type.
var cloudProviders = []string{
	"cdnext", "amazon", "google", "apple", "microsoft",
	"digitalocean", "cloudflare", "datacamp", "ovh",
	"linode", "vultr", "akamai", "fastly",
}

// BotInfrastructure reports whether the ISP/ASN description names a known
// cloud provider, or the upstream source already flagged the IP as a bot.
func BotInfrastructure(asnDescription string, botFlag bool) bool {
	if botFlag {
		return true
	}
	lower := strings.ToLower(asnDescription)
	for _, p := range cloudProviders {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
