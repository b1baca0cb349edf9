package useragent

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// Device classes reported to the policy engine. Anything the parser
// cannot place lands on Desktop.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
)

// suspiciousSignatures is matched first-hit-wins against the lowercased
// agent string. The order is part of the observable contract: the matched
// signature is persisted on the visit record, so reordering changes what
// the dashboard reports for agents that contain several signatures.
var suspiciousSignatures = []string{
	"bot", "spider", "crawl", "curl", "wget", "python", "java",
	"httpclient", "libwww", "scrapy", "go-http-client",
	"phantomjs", "headless", "selenium", "node-fetch",
}

// Classification is the pure output of parsing one user-agent string.
type Classification struct {
	DeviceType string
	// MatchedBot holds the first suspicious signature found in the agent
	// string, or "" when none matched.
	MatchedBot string
}

// Classify parses a raw user-agent string into a device class and a
// suspicious-signature match. It performs no I/O and is deterministic:
// the same input always yields the same classification.
func Classify(raw string) Classification {
	c := Classification{DeviceType: DeviceDesktop}

	parsed := ua.Parse(raw)
	switch {
	case parsed.Mobile:
		c.DeviceType = DeviceMobile
	case parsed.Tablet:
		c.DeviceType = DeviceTablet
	}

	lower := strings.ToLower(raw)
	for _, sig := range suspiciousSignatures {
		if strings.Contains(lower, sig) {
			c.MatchedBot = sig
			break
		}
	}

	return c
}
