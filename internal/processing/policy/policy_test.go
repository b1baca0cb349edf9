package policy

import "testing"

func TestDecideRulePriority(t *testing.T) {
	// Visitor triggers the bot-ISP rule and the device rule at once; the
	// bot-ISP rule is first, so its reason must be reported.
	p := Policy{AllowedDevice: DeviceMobile}
	in := Input{
		ISP:        "AMAZON-02, US",
		BotISP:     true,
		DeviceType: DeviceDesktop,
	}

	got := Decide(p, in)
	if !got.Blocked {
		t.Fatal("expected block")
	}
	if got.Reason != ReasonBotISP {
		t.Errorf("Reason = %q, want %q (rule priority)", got.Reason, ReasonBotISP)
	}
}

func TestDecideBotISPRule(t *testing.T) {
	tests := []struct {
		name    string
		p       Policy
		in      Input
		blocked bool
		reason  string
	}{
		{
			"bot infra with no allowlist",
			Policy{},
			Input{BotISP: true, ISP: "GOOGLE-CLOUD"},
			true, ReasonBotISP,
		},
		{
			"bot infra but isp allowlisted",
			Policy{AllowedCountry: "", AllowedISP: "google"},
			Input{BotISP: true, ISP: "GOOGLE-CLOUD"},
			false, ReasonHuman,
		},
		{
			"bot infra and allowlist does not match",
			Policy{AllowedISP: "comcast"},
			Input{BotISP: true, ISP: "GOOGLE-CLOUD"},
			true, ReasonBotISP,
		},
		{
			"clean isp passes",
			Policy{},
			Input{BotISP: false, ISP: "Comcast Cable"},
			false, ReasonHuman,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.p, tt.in)
			if got.Blocked != tt.blocked || got.Reason != tt.reason {
				t.Errorf("got %+v, want blocked=%v reason=%q", got, tt.blocked, tt.reason)
			}
		})
	}
}

func TestDecideCountryRule(t *testing.T) {
	p := Policy{AllowedCountry: "ID"}

	t.Run("matching country passes", func(t *testing.T) {
		got := Decide(p, Input{CountryCode: "id"})
		if got.Blocked {
			t.Errorf("case-insensitive match should pass, got %+v", got)
		}
	})

	t.Run("wrong country blocked", func(t *testing.T) {
		got := Decide(p, Input{CountryCode: "US"})
		if !got.Blocked || got.Reason != ReasonCountry {
			t.Errorf("got %+v, want country block", got)
		}
	})

	t.Run("unresolvable country blocked", func(t *testing.T) {
		got := Decide(p, Input{CountryCode: ""})
		if !got.Blocked || got.Reason != ReasonCountry {
			t.Errorf("got %+v, want country block for unresolvable country", got)
		}
	})

	t.Run("no country restriction passes anything", func(t *testing.T) {
		got := Decide(Policy{}, Input{CountryCode: ""})
		if got.Blocked {
			t.Errorf("got %+v, want allow", got)
		}
	})
}

func TestDecideDeviceRule(t *testing.T) {
	tests := []struct {
		name    string
		allowed string
		device  string
		blocked bool
	}{
		{"mobile only blocks desktop", DeviceMobile, DeviceDesktop, true},
		{"mobile only passes mobile", DeviceMobile, DeviceMobile, false},
		{"desktop only blocks mobile", DeviceDesktop, DeviceMobile, true},
		{"allow all passes everything", DeviceAllowAll, DeviceMobile, false},
		{"empty policy passes everything", "", DeviceDesktop, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(Policy{AllowedDevice: tt.allowed}, Input{DeviceType: tt.device})
			if got.Blocked != tt.blocked {
				t.Errorf("got %+v, want blocked=%v", got, tt.blocked)
			}
			if tt.blocked && got.Reason != ReasonDevice {
				t.Errorf("Reason = %q, want %q", got.Reason, ReasonDevice)
			}
		})
	}
}

func TestDecideConnectionTypeRule(t *testing.T) {
	tests := []struct {
		name    string
		connPol string
		ipType  string
		blocked bool
		reason  string
	}{
		{"block proxy hits proxy", ConnBlockProxy, "proxy", true, ReasonProxy},
		{"block proxy ignores vpn", ConnBlockProxy, "vpn", false, ReasonHuman},
		{"block vpn hits vpn", ConnBlockVPN, "vpn", true, ReasonVPN},
		{"block all hits vpn", ConnBlockAll, "vpn", true, ReasonVPNProxy},
		{"block all hits proxy", ConnBlockAll, "proxy", true, ReasonVPNProxy},
		{"block all hits datacenter", ConnBlockAll, "datacenter", true, ReasonVPNProxy},
		{"datacenter blocked under allow all", ConnAllowAll, "datacenter", true, ReasonDatacenter},
		{"datacenter blocked under empty policy", "", "datacenter", true, ReasonDatacenter},
		{"datacenter blocked under block proxy", ConnBlockProxy, "datacenter", true, ReasonDatacenter},
		{"residential passes block all", ConnBlockAll, "", false, ReasonHuman},
		{"unknown type passes", "", "", false, ReasonHuman},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(Policy{ConnectionType: tt.connPol}, Input{ConnectionType: tt.ipType})
			if got.Blocked != tt.blocked || got.Reason != tt.reason {
				t.Errorf("got %+v, want blocked=%v reason=%q", got, tt.blocked, tt.reason)
			}
		})
	}
}

func TestDecideUASignatureRule(t *testing.T) {
	t.Run("matched signature blocks when nothing earlier fires", func(t *testing.T) {
		got := Decide(Policy{}, Input{MatchedBot: "headless"})
		if !got.Blocked || got.Reason != ReasonBotUA {
			t.Errorf("got %+v, want %q", got, ReasonBotUA)
		}
	})

	t.Run("earlier rule outranks the signature", func(t *testing.T) {
		got := Decide(Policy{}, Input{MatchedBot: "headless", ConnectionType: "datacenter"})
		if got.Reason != ReasonDatacenter {
			t.Errorf("Reason = %q, want %q", got.Reason, ReasonDatacenter)
		}
	})
}

func TestDecideRealHuman(t *testing.T) {
	got := Decide(
		Policy{AllowedDevice: DeviceAllowAll, ConnectionType: ConnBlockAll, AllowedCountry: "BR"},
		Input{CountryCode: "BR", DeviceType: DeviceMobile, ISP: "Vivo"},
	)
	if got.Blocked {
		t.Fatalf("got %+v, want allow", got)
	}
	if got.Reason != ReasonHuman {
		t.Errorf("Reason = %q, want %q", got.Reason, ReasonHuman)
	}
}
