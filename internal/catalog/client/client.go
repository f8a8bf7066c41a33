package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dkress/shopfront/internal/catalog/domain"
)

// Client fetches the third-party product catalog over HTTP. It performs no
// caching and no retries; a failed fetch is surfaced to the caller, who
// decides whether to keep prior UI state or show an error. A circuit breaker
// guards every catalog request, and concurrent FetchAll calls are collapsed
// into one request.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	sfg     singleflight.Group
}

func New(baseURL string) *Client {
	settings := gobreaker.Settings{
		Name:    "catalog",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing product is a valid catalog answer, not a catalog outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrProductNotFound)
		},
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// productDTO is the catalog's wire shape.
type productDTO struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Gender   string          `json:"gender"`
}

func (c *Client) FetchAll(ctx context.Context) ([]domain.Product, error) {
	// The flight runs detached from the winning caller's context, so one
	// cancelled request cannot fail every caller collapsed onto it. The
	// http client's own timeout still bounds the fetch.
	flightCtx := context.WithoutCancel(ctx)

	v, err, _ := c.sfg.Do("all", func() (interface{}, error) {
		body, err := c.fetch(flightCtx, c.baseURL+"/products")
		if err != nil {
			return nil, err
		}

		var dtos []productDTO
		if err := json.Unmarshal(body, &dtos); err != nil {
			return nil, fmt.Errorf("malformed catalog response: %w", err)
		}

		products := make([]domain.Product, len(dtos))
		for i, d := range dtos {
			products[i] = d.toDomain()
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

func (c *Client) FetchOne(ctx context.Context, id string) (domain.Product, error) {
	body, err := c.fetch(ctx, c.baseURL+"/products/"+url.PathEscape(id))
	if err != nil {
		return domain.Product{}, err
	}

	var dto productDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.Product{}, fmt.Errorf("malformed catalog response: %w", err)
	}
	return dto.toDomain(), nil
}

// fetch routes every catalog request through the shared circuit breaker.
func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, u)
	})
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	return body, nil
}

func (d productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:       d.ID,
		Title:    d.Title,
		Price:    d.Price,
		ImageURL: d.ImageURL,
		Gender:   domain.Gender(d.Gender),
	}
}
