package shopify

import "encoding/json"

// Wire types for the Storefront GraphQL API. Only the fields the bridge
// reads are declared; everything else in the responses is ignored.

// graphQLRequest is the POST body for every Storefront call.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLError is a top-level GraphQL error (malformed query, throttling
// reported in-band, etc.).
type graphQLError struct {
	Message string `json:"message"`
}

// envelope is the common GraphQL response shape. Data is decoded in a
// second pass into the operation-specific type.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// === products query ===

type productsData struct {
	Products productConnection `json:"products"`
}

type productConnection struct {
	PageInfo pageInfo      `json:"pageInfo"`
	Edges    []productEdge `json:"edges"`
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type productEdge struct {
	Node productNode `json:"node"`
}

type productNode struct {
	Title    string            `json:"title"`
	Variants variantConnection `json:"variants"`
}

type variantConnection struct {
	Edges []variantEdge `json:"edges"`
}

type variantEdge struct {
	Node variantNode `json:"node"`
}

type variantNode struct {
	ID    string `json:"id"`
	SKU   string `json:"sku"`
	Title string `json:"title"`
}

// === cartCreate mutation ===

type cartCreateData struct {
	CartCreate cartCreatePayload `json:"cartCreate"`
}

type cartCreatePayload struct {
	Cart       *cartNode      `json:"cart"`
	UserErrors []wireUserError `json:"userErrors"`
}

type cartNode struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkoutUrl"`
}

// wireUserError is the platform's cart validation error. Field is a path
// through the mutation input, e.g. ["input","lines","0","quantity"].
type wireUserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// cartInput is the cartCreate mutation input.
type cartInput struct {
	Lines []cartLineInput `json:"lines"`
}

type cartLineInput struct {
	MerchandiseID string           `json:"merchandiseId"`
	Quantity      int              `json:"quantity"`
	Attributes    []attributeInput `json:"attributes,omitempty"`
}

// attributeInput carries a pass-through line-item property. The
// Storefront schema names the key field "key" where cart forms say
// "name"; values are never interpreted.
type attributeInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
