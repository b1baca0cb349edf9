package useragent

import "testing"

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	ipadUA    = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	chromeUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	curlUA    = "curl/8.4.0"
	htmlessUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) HeadlessChrome/119.0.6045.105 Safari/537.36"
)

func TestClassifyDeviceType(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"iphone is mobile", iphoneUA, DeviceMobile},
		{"ipad is tablet", ipadUA, DeviceTablet},
		{"windows chrome is desktop", chromeUA, DeviceDesktop},
		{"empty string defaults to desktop", "", DeviceDesktop},
		{"gibberish defaults to desktop", "not a real user agent", DeviceDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.ua)
			if got.DeviceType != tt.want {
				t.Errorf("Classify(%q).DeviceType = %q, want %q", tt.ua, got.DeviceType, tt.want)
			}
		})
	}
}

func TestClassifyMatchedBot(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"curl", curlUA, "curl"},
		{"headless chrome", htmlessUA, "headless"},
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "bot"},
		{"scrapy", "Scrapy/2.11.0 (+https://scrapy.org)", "scrapy"},
		{"go http client", "Go-http-client/2.0", "go-http-client"},
		{"case insensitive", "CURL/7.68.0", "curl"},
		{"plain browser has no match", chromeUA, ""},
		{"empty string has no match", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.ua)
			if got.MatchedBot != tt.want {
				t.Errorf("Classify(%q).MatchedBot = %q, want %q", tt.ua, got.MatchedBot, tt.want)
			}
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// "bot" precedes "spider" in the signature list, so an agent carrying
	// both reports "bot" regardless of position in the string.
	got := Classify("superspider powered by megabot")
	if got.MatchedBot != "bot" {
		t.Errorf("got %q, want %q (list order, not string order)", got.MatchedBot, "bot")
	}
}

func TestClassifyDeterministic(t *testing.T) {
	first := Classify(htmlessUA)
	for i := 0; i < 10; i++ {
		if got := Classify(htmlessUA); got != first {
			t.Fatalf("iteration %d: got %+v, want %+v", i, got, first)
		}
	}
}
