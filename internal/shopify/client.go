// Package shopify implements catalog.Client against the Shopify
// Storefront GraphQL API.
//
// The Storefront API authenticates with a public access token sent in the
// X-Shopify-Storefront-Access-Token header. All operations are a single
// POST to /api/{version}/graphql.json; queries use GraphQL variables
// rather than string-built documents so SKU values never need escaping.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"checkout-bridge/internal/catalog"
	"checkout-bridge/internal/model"
	"checkout-bridge/internal/transport"
)

// userAgent identifies this client to upstream servers.
// Shopify's CDN rate-limits requests without a User-Agent.
const userAgent = "checkout-bridge/1.0"

// defaultAPIVersion is the Storefront API version used when the config
// leaves it blank.
const defaultAPIVersion = "2025-01"

// defaultPageSize is the catalog enumeration page size. Storefront caps
// connection page sizes at 250; 50 keeps individual responses small.
const defaultPageSize = 50

// Both queries fetch variants(first: 100) per product: Shopify itself
// caps products at 100 variants, so no variant connection paginates.
const variantBySKUQuery = `
query variantBySKU($query: String!) {
  products(first: 5, query: $query) {
    edges {
      node {
        title
        variants(first: 100) {
          edges {
            node {
              id
              sku
              title
            }
          }
        }
      }
    }
  }
}`

const catalogPageQuery = `
query catalogPage($pageSize: Int!, $cursor: String) {
  products(first: $pageSize, after: $cursor) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        title
        variants(first: 100) {
          edges {
            node {
              id
              sku
            }
          }
        }
      }
    }
  }
}`

const cartCreateMutation = `
mutation cartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart {
      id
      checkoutUrl
    }
    userErrors {
      field
      message
    }
  }
}`

// Config holds Shopify-specific client configuration.
type Config struct {
	// StoreDomain is the destination store's myshopify domain,
	// e.g. "example.myshopify.com".
	StoreDomain string

	// AccessToken is the Storefront API public access token.
	AccessToken string

	// APIVersion overrides the Storefront API version. Optional.
	APIVersion string

	// PageSize overrides the catalog enumeration page size. Optional.
	PageSize int
}

// Client calls the Storefront GraphQL API. Stateless: every method is one
// request/response round trip.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	pageSize   int
}

// New creates a Storefront client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.StoreDomain == "" {
		return nil, fmt.Errorf("store domain is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("storefront access token is required")
	}

	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	// Chrome TLS fingerprint transport: Shopify sits behind a CDN that
	// JA3-scores clients. See internal/transport.
	return &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewChromeTransport(30 * time.Second),
		},
		endpoint: fmt.Sprintf("https://%s/api/%s/graphql.json", cfg.StoreDomain, version),
		token:    cfg.AccessToken,
		pageSize: pageSize,
	}, nil
}

// FindBySKU searches the catalog for a variant whose SKU exactly equals
// sku. The products search query matches loosely (prefix and analyzer
// quirks), so the response is scanned for an exact string match; the
// first exact match in response order wins. Returns (nil, nil) on a miss.
func (c *Client) FindBySKU(ctx context.Context, sku string) (*model.VariantMatch, error) {
	variables := map[string]any{
		"query": fmt.Sprintf("sku:%q", sku),
	}

	var data productsData
	if err := c.query(ctx, variantBySKUQuery, variables, &data); err != nil {
		return nil, err
	}

	for _, product := range data.Products.Edges {
		for _, variant := range product.Node.Variants.Edges {
			if variant.Node.SKU == sku {
				return &model.VariantMatch{
					VariantID:    variant.Node.ID,
					ProductTitle: product.Node.Title,
					VariantTitle: variant.Node.Title,
				}, nil
			}
		}
	}
	return nil, nil
}

// EnumeratePage fetches one page of the full catalog. An empty cursor
// requests the first page. Entries carry raw SKU values; blank SKUs are
// included and left for the index build to filter.
func (c *Client) EnumeratePage(ctx context.Context, cursor string) (*catalog.Page, error) {
	variables := map[string]any{
		"pageSize": c.pageSize,
	}
	if cursor != "" {
		variables["cursor"] = cursor
	}

	var data productsData
	if err := c.query(ctx, catalogPageQuery, variables, &data); err != nil {
		return nil, err
	}

	page := &catalog.Page{
		HasNextPage: data.Products.PageInfo.HasNextPage,
		EndCursor:   data.Products.PageInfo.EndCursor,
	}
	for _, product := range data.Products.Edges {
		for _, variant := range product.Node.Variants.Edges {
			page.Entries = append(page.Entries, catalog.PageEntry{
				SKU:          variant.Node.SKU,
				VariantID:    variant.Node.ID,
				ProductTitle: product.Node.Title,
			})
		}
	}
	return page, nil
}

// CreateCart creates a cart with all line items in a single cartCreate
// mutation. Platform validation failures come back as Result.UserErrors;
// the error return is reserved for transport and protocol failures.
func (c *Client) CreateCart(ctx context.Context, lines []model.ResolvedLineItem) (*catalog.Result, error) {
	input := cartInput{Lines: make([]cartLineInput, 0, len(lines))}
	for _, line := range lines {
		wireLine := cartLineInput{
			MerchandiseID: line.VariantID,
			Quantity:      line.Quantity,
		}
		for _, attr := range line.Attributes {
			wireLine.Attributes = append(wireLine.Attributes, attributeInput{
				Key:   attr.Name,
				Value: attr.Value,
			})
		}
		input.Lines = append(input.Lines, wireLine)
	}

	var data cartCreateData
	if err := c.query(ctx, cartCreateMutation, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}

	result := &catalog.Result{}
	if data.CartCreate.Cart != nil {
		result.CheckoutURL = data.CartCreate.Cart.CheckoutURL
	}
	for _, ue := range data.CartCreate.UserErrors {
		result.UserErrors = append(result.UserErrors, catalog.UserError{
			Field:   strings.Join(ue.Field, "."),
			Message: ue.Message,
		})
	}
	return result, nil
}

// query executes one GraphQL operation and decodes the data payload
// into out. Top-level GraphQL errors are surfaced as upstream errors.
func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("Shopify", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.statusError(resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if len(env.Errors) > 0 {
		return model.NewUpstreamError("Shopify",
			fmt.Errorf("graphql error: %s", env.Errors[0].Message))
	}
	if len(env.Data) == 0 {
		return model.NewUpstreamError("Shopify", fmt.Errorf("empty data payload"))
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("parsing data payload: %w", err)
	}
	return nil
}

// statusError maps an HTTP-level Storefront failure to an APIError.
func (c *Client) statusError(statusCode int) error {
	switch statusCode {
	case 401, 403:
		return model.NewUnauthorizedError("Shopify storefront token rejected")
	case 429:
		return model.NewRateLimitError("Shopify")
	default:
		return model.NewUpstreamError("Shopify",
			fmt.Errorf("status %d", statusCode))
	}
}
