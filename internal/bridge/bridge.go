// Package bridge orchestrates one checkout-bridge request: resolve the
// requested SKUs, assemble a cart on the destination store, and decide
// the buyer-facing outcome.
//
// Every upstream failure is handled exactly once and converted to a
// terminal Outcome; nothing in this path retries. How a failure surfaces
// is a deployment choice: fallback deployments send the buyer back to
// the origin store's cart, strict deployments return the error.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"checkout-bridge/internal/catalog"
	"checkout-bridge/internal/model"
	"checkout-bridge/internal/notify"
	"checkout-bridge/internal/resolver"
)

// FailurePolicy selects how bridge failures surface to the buyer.
type FailurePolicy string

const (
	// PolicyFallback redirects every failure to the configured origin
	// cart URL. The buyer lands back where they started.
	PolicyFallback FailurePolicy = "fallback"

	// PolicyStrict returns failures as error responses.
	PolicyStrict FailurePolicy = "strict"
)

// Config holds bridge orchestration settings.
type Config struct {
	FailurePolicy FailurePolicy

	// FallbackCartURL is the origin store's cart URL. Required under
	// PolicyFallback.
	FallbackCartURL string
}

// Service runs bridge requests.
type Service struct {
	resolver    resolver.Resolver
	catalog     catalog.Client
	notifier    notify.Notifier
	policy      FailurePolicy
	fallbackURL string
	logger      *slog.Logger
}

// New creates a bridge service.
func New(res resolver.Resolver, client catalog.Client, notifier notify.Notifier, cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = PolicyFallback
	}
	if cfg.FailurePolicy == PolicyFallback && cfg.FallbackCartURL == "" {
		return nil, fmt.Errorf("fallback cart URL is required under the fallback policy")
	}
	return &Service{
		resolver:    res,
		catalog:     client,
		notifier:    notifier,
		policy:      cfg.FailurePolicy,
		fallbackURL: cfg.FallbackCartURL,
		logger:      logger,
	}, nil
}

// Bridge resolves the requested items, creates the destination cart, and
// returns the terminal outcome. The notifier fires asynchronously on
// success and cannot influence the returned outcome.
func (s *Service) Bridge(ctx context.Context, items []model.CartItem) *model.Outcome {
	if len(items) == 0 {
		return s.fail(model.NewValidationError("items", "at least one item required"))
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return s.fail(err)
		}
	}

	res, err := s.resolver.Resolve(ctx, items)
	if err != nil {
		s.logger.Error("sku resolution failed", slog.String("error", err.Error()))
		return s.fail(err)
	}

	if len(res.Unmatched) > 0 {
		s.logger.Info("unmatched skus",
			slog.Int("count", len(res.Unmatched)),
			slog.String("skus", strings.Join(res.Unmatched, ",")),
		)
	}

	// Nothing resolved: never call the platform with an empty cart.
	if len(res.LineItems) == 0 {
		outcome := s.fail(model.NewValidationError("items", "no requested SKUs matched the catalog"))
		outcome.Unmatched = res.Unmatched
		return outcome
	}

	result, err := s.catalog.CreateCart(ctx, res.LineItems)
	if err != nil {
		s.logger.Error("cart creation failed", slog.String("error", err.Error()))
		return s.withResolution(s.fail(err), res)
	}

	if result.CheckoutURL == "" || len(result.UserErrors) > 0 {
		err := model.NewCartRejectedError(joinUserErrors(result.UserErrors))
		s.logger.Error("cart creation rejected", slog.String("error", err.Error()))
		return s.withResolution(s.fail(err), res)
	}

	outcome := s.withResolution(model.Redirected(result.CheckoutURL), res)

	// Fire-and-forget: detached from the request's cancellation so the
	// redirect going out does not kill the post.
	go s.notifier.CheckoutStarted(context.WithoutCancel(ctx), res.Matched)

	return outcome
}

// fail converts an error into the policy's terminal outcome.
func (s *Service) fail(err error) *model.Outcome {
	if s.policy == PolicyStrict {
		return model.Rejected(err)
	}
	return model.FallbackRedirected(s.fallbackURL)
}

// withResolution attaches resolution diagnostics to an outcome.
func (s *Service) withResolution(outcome *model.Outcome, res *resolver.Resolution) *model.Outcome {
	outcome.Matched = res.Matched
	outcome.Unmatched = res.Unmatched
	return outcome
}

// joinUserErrors flattens platform validation messages into one string.
func joinUserErrors(errs []catalog.UserError) string {
	if len(errs) == 0 {
		return "cart created without a checkout URL"
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Field != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
			continue
		}
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
