package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"

	"github.com/bryanwahyu/homefix-vision/internal/domain/diagnosis"
)

const (
	defaultModel  = "gemini-1.5-flash"
	maxImageBytes = 20 << 20
)

// Client implements diagnosis.ModelGateway on top of the Gemini API.
type Client struct {
	APIKey    string
	Model     string
	MaxTokens int
	JSONMode  bool

	httpc *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		httpc:  publicOnlyClient(30 * time.Second),
	}
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) ModelName() string {
	if c.Model == "" {
		return defaultModel
	}
	return c.Model
}

func (c *Client) Complete(ctx context.Context, p diagnosis.Prompt) (string, error) {
	parts := make([]genai.Part, 0, len(p.Images)+1)
	parts = append(parts, genai.Text(p.Text))
	for i, img := range p.Images {
		blob, err := c.loadImage(ctx, img.URL)
		if err != nil {
			return "", diagnosis.ModelError(fmt.Sprintf("image %d could not be sent", i), err)
		}
		parts = append(parts, blob)
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.APIKey))
	if err != nil {
		return "", providerError(err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(c.ModelName())
	if c.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(c.MaxTokens))
	}
	if c.JSONMode {
		m.ResponseMIMEType = "application/json"
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", providerError(err)
	}

	var out strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				out.WriteString(string(t))
			}
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", diagnosis.ModelError("empty output", nil)
	}
	return out.String(), nil
}

// loadImage turns a data URI or http(s) URL into an inline blob.
func (c *Client) loadImage(ctx context.Context, ref string) (genai.Blob, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref)
	}

	u, err := url.Parse(ref)
	if err != nil {
		return genai.Blob{}, fmt.Errorf("image URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return genai.Blob{}, fmt.Errorf("image URL scheme %q not supported", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return genai.Blob{}, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return genai.Blob{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return genai.Blob{}, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return genai.Blob{}, err
	}
	if len(data) > maxImageBytes {
		return genai.Blob{}, fmt.Errorf("fetch image: larger than %d bytes", maxImageBytes)
	}
	mime := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	return genai.Blob{MIMEType: mime, Data: data}, nil
}

var errNonPublicHost = errors.New("image host resolves to a non-public address")

// cgnat is the carrier-grade NAT range, not covered by net.IP.IsPrivate.
var cgnat = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// publicOnlyClient fetches caller supplied image URLs. The address check runs on the
// resolved IP at dial time, so redirects and DNS tricks hit it too.
func publicOnlyClient(timeout time.Duration) *http.Client {
	d := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip == nil || !isPublicIP(ip) {
				return fmt.Errorf("%w: %s", errNonPublicHost, host)
			}
			return nil
		},
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	// a proxy would be the dialed address and hide the image host
	tr.Proxy = nil
	tr.DialContext = d.DialContext
	return &http.Client{
		Timeout:   timeout,
		Transport: tr,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return errors.New("fetch image: too many redirects")
			}
			return nil
		},
	}
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		cgnat.Contains(ip))
}

// decodeDataURI parses data:<mime>;base64,<payload>.
func decodeDataURI(s string) (genai.Blob, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return genai.Blob{}, errors.New("data URI without payload")
	}
	meta := s[len("data:"):comma]
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return genai.Blob{}, fmt.Errorf("unsupported data URI encoding %q", enc)
	}
	data, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return genai.Blob{}, fmt.Errorf("decode data URI: %w", err)
	}
	return genai.Blob{MIMEType: mime, Data: data}, nil
}

func providerError(err error) error {
	e := diagnosis.ModelError("gemini request failed", err)
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		e.Status = apiErr.HTTPCode()
		if st := apiErr.GRPCStatus(); st != nil {
			e.ProviderType = st.Code().String()
		}
		if r := apiErr.Reason(); r != "" {
			e.ProviderType = r
		}
	}
	return e
}
