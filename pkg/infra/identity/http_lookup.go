package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/identity"
	"github.com/NeuralTrust/AltGuard/pkg/infra/httpx"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
)

var ErrUnexpectedStatus = errors.New("unexpected identity service status")

type HTTPConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	AuthToken          string        `mapstructure:"auth_token"`
}

// HTTPLookup resolves facts from GET <base_url>/users/<id>. A 404 resolves
// to empty facts.
type HTTPLookup struct {
	cfg     HTTPConfig
	client  httpx.Doer
	breaker httpx.CircuitBreaker
	parsers fastjson.ParserPool
}

var _ identity.Lookup = (*HTTPLookup)(nil)

func NewHTTPLookup(cfg HTTPConfig, client httpx.Doer, logger *logrus.Logger) (*HTTPLookup, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity base_url is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = httpx.DefaultTimeout
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if client == nil {
		client = httpx.NewFastHTTPClient(httpx.WithTimeout(cfg.Timeout), httpx.WithUserAgent("altguard"))
	}
	return &HTTPLookup{
		cfg:     cfg,
		client:  client,
		breaker: httpx.NewCircuitBreaker("identity-lookup", cfg.BreakerTimeout, cfg.BreakerMaxFailures, logger),
	}, nil
}

func (l *HTTPLookup) Resolve(ctx context.Context, id actor.ID) (identity.Facts, error) {
	timeout := l.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return identity.Facts{}, ctx.Err()
		}
		timeout = min(timeout, remaining)
	}

	var facts identity.Facts
	err := l.breaker.Execute(func() error {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(fmt.Sprintf("%s/users/%d", l.cfg.BaseURL, id))
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set(fasthttp.HeaderAccept, "application/json")
		if l.cfg.AuthToken != "" {
			req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+l.cfg.AuthToken)
		}

		if err := l.client.DoTimeout(req, resp, timeout); err != nil {
			return fmt.Errorf("identity request failed: %w", err)
		}
		switch status := resp.StatusCode(); {
		case status == fasthttp.StatusNotFound:
			return nil
		case status < 200 || status > 299:
			return fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
		}

		parsed, err := l.parse(resp.Body())
		if err != nil {
			return err
		}
		facts = parsed
		return nil
	})
	if err != nil {
		return identity.Facts{}, err
	}
	return facts, nil
}

func (l *HTTPLookup) parse(body []byte) (identity.Facts, error) {
	p := l.parsers.Get()
	defer l.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return identity.Facts{}, fmt.Errorf("invalid identity payload: %w", err)
	}
	facts := identity.Facts{
		DisplayName:      string(v.GetStringBytes("display_name")),
		ExternalIdentity: string(v.GetStringBytes("external_identity")),
	}
	if raw := v.GetStringBytes("account_created_at"); len(raw) > 0 {
		created, err := time.Parse(time.RFC3339, string(raw))
		if err != nil {
			return identity.Facts{}, fmt.Errorf("invalid account_created_at: %w", err)
		}
		created = created.UTC()
		facts.AccountCreatedAt = &created
	}
	facts = facts.Trimmed()
	if err := facts.Validate(); err != nil {
		return identity.Facts{}, err
	}
	return facts, nil
}
