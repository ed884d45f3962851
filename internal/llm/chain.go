package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"clinsynth/internal/config"
	"clinsynth/internal/domain"
	"clinsynth/internal/port"
)

const tracerName = "clinsynth/internal/llm"

// Provider is one entry in the fallback chain.
type Provider struct {
	Name   string
	Client port.ModelClient

	// Timeout, when positive, bounds the attempt with a hard cancellation.
	Timeout time.Duration

	// ShouldFallback decides whether a failure moves on to the next provider.
	// A nil predicate always falls back.
	ShouldFallback func(error) bool
}

func (p Provider) fallsBack(err error) bool {
	return p.ShouldFallback == nil || p.ShouldFallback(err)
}

// AlwaysFallback is the predicate used by providers whose failures never stop the chain.
func AlwaysFallback(error) bool { return true }

// Chain tries providers strictly in order, each at most once, and returns the first answer.
// It implements port.ModelInvoker.
type Chain struct {
	providers []Provider
	log       *zap.Logger
	tracer    trace.Tracer
}

// NewChain creates a Chain from an ordered list of providers.
func NewChain(log *zap.Logger, providers ...Provider) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{
		providers: providers,
		log:       log,
		tracer:    otel.Tracer(tracerName),
	}
}

// Names returns the provider names in chain order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name
	}
	return names
}

func (c *Chain) Invoke(ctx context.Context, systemInstruction, userMessage string) (*domain.ModelInvocationResult, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("llm.Chain.Invoke: no providers configured: %w", domain.ErrNoProviderReachable)
	}

	req := port.CompletionRequest{SystemInstruction: systemInstruction, UserMessage: userMessage}

	for i, p := range c.providers {
		res, err := c.attempt(ctx, p, req)
		if err == nil {
			return &domain.ModelInvocationResult{
				RawText:            res.Text,
				ProviderIdentifier: res.Model,
				ProviderName:       p.Name,
			}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("llm.Chain.Invoke: %w", ctxErr)
		}
		if !p.fallsBack(err) {
			return nil, err
		}
		if i == len(c.providers)-1 {
			return nil, terminalError(p, err)
		}

		c.log.Warn("llm.Chain: falling back",
			zap.String("from", p.Name),
			zap.String("to", c.providers[i+1].Name),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("llm.Chain.Invoke: %w", domain.ErrAllProvidersFailed)
}

func (c *Chain) attempt(ctx context.Context, p Provider, req port.CompletionRequest) (*port.CompletionResult, error) {
	ctx, span := c.tracer.Start(ctx, "llm.attempt", trace.WithAttributes(
		attribute.String("llm.provider", p.Name),
		attribute.Int("llm.input_bytes", req.InputSize()),
	))
	defer span.End()

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := p.Client.Complete(ctx, req)
	elapsed := time.Since(start)

	fields := []zap.Field{
		zap.String("provider", p.Name),
		zap.Int("input_bytes", req.InputSize()),
		zap.Duration("elapsed", elapsed),
	}
	span.SetAttributes(attribute.Int64("llm.elapsed_ms", elapsed.Milliseconds()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("llm.Chain: provider attempt failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("llm.model", res.Model),
		attribute.Int("llm.output_bytes", len(res.Text)),
	)
	c.log.Info("llm.Chain: provider answered", append(fields,
		zap.String("model", res.Model),
		zap.Int("output_bytes", len(res.Text)),
	)...)
	return res, nil
}

// terminalError classifies the failure of the last provider into an actionable error.
func terminalError(p Provider, err error) error {
	var timeout *TimeoutError
	switch {
	case errors.As(err, &timeout):
		if timeout.Timeout == 0 {
			timeout.Timeout = p.Timeout
		}
		return timeout
	case errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{Provider: p.Name, Timeout: p.Timeout, Err: err}
	case isConnectError(err):
		return &UnreachableError{Provider: p.Name, Err: err}
	case IsUnavailable(err):
		return fmt.Errorf("%w: %s: %v", domain.ErrNoProviderReachable, p.Name, err)
	default:
		return fmt.Errorf("%w: last error from %s: %v", domain.ErrAllProvidersFailed, p.Name, err)
	}
}

// BuildChain assembles primary -> secondary -> tertiary from configuration. The secondary
// is only added when it has credentials; the tertiary gets the local hard timeout.
func BuildChain(cfg *config.LLMConfig, log *zap.Logger) (*Chain, error) {
	var chain []Provider

	if cfg.Primary.Configured() {
		client, err := NewClient(&cfg.Primary)
		if err != nil {
			return nil, fmt.Errorf("building primary provider: %w", err)
		}
		chain = append(chain, Provider{
			Name:           cfg.Primary.Provider,
			Client:         client,
			ShouldFallback: IsUnavailable,
		})
	}

	if sc := cfg.SecondaryConfig(); sc != nil {
		client, err := NewClient(sc)
		if err != nil {
			return nil, fmt.Errorf("building secondary provider: %w", err)
		}
		chain = append(chain, Provider{
			Name:           sc.Provider,
			Client:         client,
			ShouldFallback: AlwaysFallback,
		})
	}

	if tc := cfg.TertiaryConfig(); tc != nil {
		client, err := NewClient(tc)
		if err != nil {
			return nil, fmt.Errorf("building tertiary provider: %w", err)
		}
		chain = append(chain, Provider{
			Name:           tc.Provider,
			Client:         client,
			Timeout:        time.Duration(cfg.LocalTimeoutSecs) * time.Second,
			ShouldFallback: AlwaysFallback,
		})
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no model providers configured")
	}
	return NewChain(log, chain...), nil
}
