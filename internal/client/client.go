package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"markethub/marketplace/internal/listing"
	"markethub/marketplace/internal/model"

	"github.com/andybalholm/brotli"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	APIURL string
	Token  string
}

// Client talks to the marketplace API. It keeps no per-call state, so one
// Client can serve concurrent callers.
type Client struct {
	client *http.Client
	config Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		client: &http.Client{
			Transport: &AuthTransport{
				Token: cfg.Token,
				Base:  http.DefaultTransport,
			},
			Timeout: 10 * time.Second,
		},
		config: cfg,
	}
}

// AuthTransport adds the bearer token and asks for brotli bodies.
type AuthTransport struct {
	Token string
	Base  http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")
	return t.Base.RoundTrip(req)
}

func (c *Client) Products(ctx context.Context, f listing.Filter) ([]Listing, error) {
	return c.listings(ctx, "/products", f.Values(), model.ItemTypeProduct)
}

func (c *Client) Services(ctx context.Context, f listing.Filter) ([]Listing, error) {
	return c.listings(ctx, "/services", f.Values(), model.ItemTypeService)
}

func (c *Client) Niche(ctx context.Context, niche string, f listing.Filter) ([]Listing, error) {
	f.Niche = nil
	return c.listings(ctx, "/niche/"+url.PathEscape(niche), f.Values(), model.ItemTypeProduct)
}

// Storefront loads products and services in parallel.
func (c *Client) Storefront(ctx context.Context) (Storefront, error) {
	g, ctx := errgroup.WithContext(ctx)
	var sf Storefront

	g.Go(func() error {
		var err error
		sf.Products, err = c.Products(ctx, listing.Filter{})
		return err
	})

	g.Go(func() error {
		var err error
		sf.Services, err = c.Services(ctx, listing.Filter{})
		return err
	})

	if err := g.Wait(); err != nil {
		return Storefront{}, err
	}
	return sf, nil
}

// Purchase buys a product and returns its download URL.
func (c *Client) Purchase(ctx context.Context, req PurchaseRequest) (string, error) {
	var resp purchaseResponse
	if err := c.do(ctx, http.MethodPost, "/purchases", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.DownloadURL == "" {
		return "", &Error{Op: "POST /purchases", Message: "response has no download_url"}
	}
	return resp.DownloadURL, nil
}

func (c *Client) Book(ctx context.Context, req BookingRequest) error {
	return c.do(ctx, http.MethodPost, "/bookings", nil, req, nil)
}

func (c *Client) listings(ctx context.Context, path string, q url.Values, kind model.ItemType) ([]Listing, error) {
	var out []Listing
	if err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Kind = kind
	}
	if out == nil {
		out = []Listing{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	op := method + " " + path
	fail := func(err error) error { return &Error{Op: op, Err: err} }

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fail(err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.APIURL+path, reqBody)
	if err != nil {
		return fail(err)
	}
	if len(q) > 0 {
		req.URL.RawQuery = q.Encode()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(err)
	}

	if resp.Header.Get("Content-Encoding") == "br" {
		resp.Body = &readCloserWrapper{Reader: brotli.NewReader(resp.Body), Closer: resp.Body}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

type readCloserWrapper struct {
	io.Reader
	io.Closer
}

func (r *readCloserWrapper) Read(p []byte) (n int, err error) {
	return r.Reader.Read(p)
}

func (r *readCloserWrapper) Close() error {
	return r.Closer.Close()
}
