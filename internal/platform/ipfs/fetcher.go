// Package ipfs resolves IPFS URLs through an HTTP gateway and fetches NFT
// metadata documents.
package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// GatewayTokenHeader carries the access token of a dedicated gateway.
const GatewayTokenHeader = "x-pinata-gateway-token"

const (
	schemePrefix     = "ipfs://"
	maxMetadataBytes = 1 << 20
)

var (
	ErrInvalidURL      = errors.New("invalid ipfs url")
	ErrFetchFailed     = errors.New("metadata fetch failed")
	ErrInvalidMetadata = errors.New("invalid metadata document")
)

// Trait is one entry of the metadata "attributes" array.
type Trait struct {
	TraitType   string      `json:"trait_type,omitempty"`
	Value       interface{} `json:"value"`
	DisplayType string      `json:"display_type,omitempty"`
}

// Metadata is the subset of an ERC-721 metadata document the gallery uses.
type Metadata struct {
	Name               string
	Description        string
	Image              string
	IdentificationWord string
	Attributes         []Trait
	Fields             []string
	Raw                json.RawMessage
}

// IsIPFSURL accepts ipfs:// URLs and gateway URLs that mention ipfs.
func IsIPFSURL(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, schemePrefix) || strings.Contains(trimmed, "ipfs")
}

// ParseMetadata extracts the known fields of a metadata document.
func ParseMetadata(body []byte) (Metadata, error) {
	if !gjson.ValidBytes(body) {
		return Metadata{}, ErrInvalidMetadata
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return Metadata{}, ErrInvalidMetadata
	}

	meta := Metadata{
		Name:               strings.TrimSpace(doc.Get("name").String()),
		Description:        strings.TrimSpace(doc.Get("description").String()),
		Image:              strings.TrimSpace(doc.Get("image").String()),
		IdentificationWord: strings.TrimSpace(doc.Get("identification_word").String()),
		Attributes:         []Trait{},
		Fields:             []string{},
		Raw:                json.RawMessage(append([]byte(nil), body...)),
	}
	doc.ForEach(func(key, _ gjson.Result) bool {
		meta.Fields = append(meta.Fields, key.String())
		return true
	})

	if attrs := doc.Get("attributes"); attrs.IsArray() {
		if err := json.Unmarshal([]byte(attrs.Raw), &meta.Attributes); err != nil {
			return Metadata{}, fmt.Errorf("%w: attributes: %v", ErrInvalidMetadata, err)
		}
	}
	return meta, nil
}

// TraitsFromRaw reads the attributes of a stored metadata document. Broken
// documents yield no traits.
func TraitsFromRaw(raw json.RawMessage) []Trait {
	if len(raw) == 0 {
		return []Trait{}
	}
	meta, err := ParseMetadata(raw)
	if err != nil {
		return []Trait{}
	}
	return meta.Attributes
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	Gateway        string
	TrustedDomains []string
	Timeout        time.Duration
	Client         *http.Client
}

// Fetcher downloads metadata over HTTP. Requests to hosts outside the
// trusted list are stripped of credential headers, and redirects are never
// followed to an untrusted host.
type Fetcher struct {
	gateway string
	trusted []string
	client  *http.Client
	headers http.Header
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	gateway := strings.TrimSpace(cfg.Gateway)
	if gateway == "" {
		gateway = "https://ipfs.io/ipfs/"
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	f := &Fetcher{
		gateway: gateway,
		headers: http.Header{},
	}
	for _, domain := range cfg.TrustedDomains {
		if trimmed := strings.ToLower(strings.TrimSpace(domain)); trimmed != "" {
			f.trusted = append(f.trusted, trimmed)
		}
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	copied := *client
	copied.Timeout = timeout
	copied.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return errors.New("too many redirects")
		}
		if !f.isTrusted(req.URL) {
			return http.ErrUseLastResponse
		}
		return nil
	}
	f.client = &copied
	return f
}

// WithHeader returns a copy of f that sends header on requests to trusted
// hosts, e.g. a pinning service API key.
func (f *Fetcher) WithHeader(key, value string) *Fetcher {
	clone := *f
	clone.headers = f.headers.Clone()
	clone.headers.Set(key, value)
	return &clone
}

// GatewayURL rewrites ipfs:// URLs onto the configured gateway and leaves
// other URLs untouched.
func (f *Fetcher) GatewayURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, schemePrefix) {
		return f.gateway + strings.TrimPrefix(trimmed, schemePrefix)
	}
	return trimmed
}

// Fetch downloads and parses the metadata document behind metadataURL.
func (f *Fetcher) Fetch(ctx context.Context, metadataURL string) (Metadata, error) {
	if !IsIPFSURL(metadataURL) {
		return Metadata{}, ErrInvalidURL
	}
	target := f.GatewayURL(metadataURL)
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Metadata{}, ErrInvalidURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.isTrusted(parsed) {
		for key, values := range f.headers {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return ParseMetadata(body)
}

func (f *Fetcher) isTrusted(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	for _, domain := range f.trusted {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
