package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"navius/app/config"
	"navius/app/domain"
	"navius/app/port"
	"navius/app/reliability"
	apperrors "navius/app/utils/errors"
)

const (
	petstoreService    = "petstore"
	inventoryTimeout   = 2 * time.Second
	maxErrorBodyLength = 512
)

// PetstoreGateway calls the upstream Petstore API through a retry policy and
// a circuit breaker.
type PetstoreGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	policy  reliability.Policy
	breaker *reliability.CircuitBreaker
	metrics *reliability.Metrics
	logger  *slog.Logger
}

func NewPetstoreGateway(
	cfg config.APIConfig,
	client *http.Client,
	policy reliability.Policy,
	breaker *reliability.CircuitBreaker,
	metrics *reliability.Metrics,
	logger *slog.Logger,
) *PetstoreGateway {
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}
	g := &PetstoreGateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
		policy:  policy,
		breaker: breaker,
		metrics: metrics,
		logger:  logger.With("component", "petstore_gateway"),
	}
	g.policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		if g.metrics != nil {
			g.metrics.RecordRetry()
		}
		g.logger.Warn("Retrying petstore request", "attempt", attempt, "delay", delay, "error", err)
	}
	return g
}

// BaseURL is the upstream root the gateway talks to
func (g *PetstoreGateway) BaseURL() string { return g.baseURL }

// GetPet fetches one pet. A 404 is returned as NOT_FOUND without retrying.
func (g *PetstoreGateway) GetPet(ctx context.Context, id int64) (*domain.PetstorePet, error) {
	ctx, span := otel.Tracer("navius/gateway").Start(ctx, "petstore.GetPet")
	defer span.End()
	span.SetAttributes(attribute.Int64("petstore.pet_id", id))

	var pet domain.PetstorePet
	err := g.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		return g.breaker.Execute(ctx, func(ctx context.Context) error {
			return g.getJSON(ctx, fmt.Sprintf("/pet/%d", id), &pet)
		})
	})
	if err != nil {
		err = g.classify(err, id)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &pet, nil
}

// CheckInventory requests the store inventory and returns the HTTP status.
// It bypasses retries and the breaker.
func (g *PetstoreGateway) CheckInventory(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, inventoryTimeout)
	defer cancel()

	req, err := g.newRequest(ctx, "/store/inventory")
	if err != nil {
		return 0, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (g *PetstoreGateway) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfigError, "invalid petstore request", err)
	}
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("api_key", g.apiKey)
	}
	return req, nil
}

func (g *PetstoreGateway) getJSON(ctx context.Context, path string, out any) error {
	req, err := g.newRequest(ctx, path)
	if err != nil {
		return reliability.Permanent(err)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		if g.metrics != nil {
			g.metrics.RecordUpstreamError(petstoreService, errors.Is(err, context.DeadlineExceeded))
		}
		return err
	}
	defer resp.Body.Close()

	if g.metrics != nil {
		g.metrics.RecordUpstream(petstoreService, resp.StatusCode)
	}
	g.logger.Debug("Petstore response", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return reliability.Permanent(apperrors.NewNotFound("petstore pet").WithContext("path", path))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return &reliability.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return reliability.Permanent(apperrors.NewExternalServiceError(petstoreService, fmt.Errorf("decoding response: %w", err)))
	}
	return nil
}

func (g *PetstoreGateway) classify(err error, id int64) error {
	if errors.Is(err, reliability.ErrCircuitOpen) {
		g.logger.Warn("Petstore circuit breaker is open", "pet_id", id)
		return apperrors.Wrap(apperrors.ErrCodeCircuitOpen, "petstore is temporarily unavailable", err)
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	g.logger.Error("Petstore request failed", "pet_id", id, "error", err)
	return apperrors.NewExternalServiceError(petstoreService, err).WithContext("pet_id", id)
}

var _ port.PetstoreGateway = (*PetstoreGateway)(nil)
