package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IgorGrieder/guardiao-url/pkg/httpclient"
)

// IPDetectiveSource queries the IPDetective API (via RapidAPI). It is the
// authority for connection type, the upstream bot flag and the ASN
// description.
type IPDetectiveSource struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

func NewIPDetectiveSource(baseURL, apiKey string, timeout time.Duration) *IPDetectiveSource {
	return &IPDetectiveSource{
		client:  httpclient.NewClient(timeout, 5, 30*time.Second).WithoutRetries(),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (s *IPDetectiveSource) Name() string { return "ipdetective" }

type ipDetectiveResponse struct {
	IP             string `json:"ip"`
	Type           string `json:"type"`
	Bot            bool   `json:"bot"`
	ASNDescription string `json:"asn_description"`
	CountryCode    string `json:"country_code"`
	Error          string `json:"error"`
}

func (s *IPDetectiveSource) Lookup(ctx context.Context, ip string) (*Intelligence, error) {
	resp, err := s.client.Get(ctx,
		fmt.Sprintf("%s/ip/%s", s.baseURL, ip),
		map[string]string{"info": "true"},
		map[string]string{
			"x-rapidapi-key":  s.apiKey,
			"x-rapidapi-host": "ipdetective.p.rapidapi.com",
		},
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body ipDetectiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ipdetective: malformed response: %w", err)
	}
	// The API reports failures in-band with a 200.
	if body.Error != "" {
		return nil, fmt.Errorf("ipdetective: %s", body.Error)
	}

	return &Intelligence{
		IP:             body.IP,
		Type:           strings.ToLower(strings.TrimSpace(body.Type)),
		BotFlag:        body.Bot,
		ASNDescription: body.ASNDescription,
		CountryCode:    strings.ToUpper(strings.TrimSpace(body.CountryCode)),
	}, nil
}

// IPWhoisSource queries ipwho.is, the geolocation authority: country,
// region, city, coordinates, timezone, ISP name and flag image.
type IPWhoisSource struct {
	client  *httpclient.Client
	baseURL string
}

func NewIPWhoisSource(baseURL string, timeout time.Duration) *IPWhoisSource {
	return &IPWhoisSource{
		client:  httpclient.NewClient(timeout, 5, 30*time.Second).WithoutRetries(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *IPWhoisSource) Name() string { return "ipwhois" }

type ipWhoisResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Connection  struct {
		ISP string `json:"isp"`
		Org string `json:"org"`
	} `json:"connection"`
	Timezone struct {
		ID string `json:"id"`
	} `json:"timezone"`
	Flag struct {
		Img string `json:"img"`
	} `json:"flag"`
}

func (s *IPWhoisSource) Lookup(ctx context.Context, ip string) (*Intelligence, error) {
	resp, err := s.client.Get(ctx, s.baseURL+"/"+ip, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body ipWhoisResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ipwhois: malformed response: %w", err)
	}
	if !body.Success {
		if body.Message == "" {
			body.Message = "lookup unsuccessful"
		}
		return nil, fmt.Errorf("ipwhois: %s", body.Message)
	}

	return &Intelligence{
		IP:          ip,
		Country:     body.Country,
		CountryCode: strings.ToUpper(strings.TrimSpace(body.CountryCode)),
		Region:      body.Region,
		City:        body.City,
		Latitude:    body.Latitude,
		Longitude:   body.Longitude,
		Timezone:    body.Timezone.ID,
		ISP:         body.Connection.ISP,
		FlagImg:     body.Flag.Img,
	}, nil
}
