package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"schedule-backend/internal/components/assert"
	"schedule-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("schedule.internal.retrieval")

const (
	report_engine_fetch   = "engine.fetch"
	report_engine_attempt = "engine.attempt"
)

const (
	DefaultMaxAttempts  = 3
	DefaultTimeout      = time.Second * 60
	DefaultBaseDelay    = time.Second * 2
	DefaultMaxBodyBytes = 32 << 20
)

// ErrExhausted is matched by every error returned from Engine.Fetch.
var ErrExhausted = errors.New("retrieval attempts exhausted")

// ErrEmptyBody is returned by an attempt that got a 200 without a body.
var ErrEmptyBody = errors.New("empty response body")

// ErrBodyTooLarge is returned by an attempt whose body exceeds Options.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Error is the aggregated failure of every attempt made for one request.
type Error struct {
	Url      string
	Attempts int
	// Err is the error of the last attempt.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: failed after %d attempt(s): %v", e.Url, e.Attempts, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrExhausted, e.Err}
}

// StatusError is returned by an attempt that got a non-200 response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// Request describes a single resource to fetch.
type Request struct {
	Url     string
	Kind    Kind
	Referer string
	// MaxAttempts overrides Options.MaxAttempts when positive.
	MaxAttempts int
}

// Result is the body of the first successful attempt.
type Result struct {
	Body        []byte
	ContentType string
	// Url is the final url after redirects.
	Url      *url.URL
	Attempts int
}

type Options struct {
	MaxAttempts int
	// Timeout bounds every attempt individually.
	Timeout time.Duration
	// BaseDelay is multiplied by the attempt number to get the wait before the next attempt.
	BaseDelay time.Duration
	// Jitter adds a random duration in [0, Jitter) to every wait.
	Jitter            time.Duration
	RequestsPerSecond float64
	MaxBodyBytes      int64
	// CloudflareBypass wraps the transport with a browser-like TLS and header fingerprint.
	CloudflareBypass bool
	Shaping          ShapingPolicy
	// MessageOutput receives a dump of every HTTP exchange when set.
	MessageOutput telemetry.MessageOutput
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:  DefaultMaxAttempts,
		Timeout:      DefaultTimeout,
		BaseDelay:    DefaultBaseDelay,
		MaxBodyBytes: DefaultMaxBodyBytes,
		Shaping:      DefaultShapingPolicy(),
	}
}

// Engine fetches resources from an upstream that may reject or throttle
// requests. Attempts are strictly sequential.
type Engine struct {
	http  *resty.Client
	opts  Options
	tel   telemetry.API
	sleep func(ctx context.Context, d time.Duration) error
}

func NewEngine(opts Options, tel telemetry.API) *Engine {
	assert.NotNil(tel, "telemetry")
	tel = telemetry.NewScopedAPI("retrieval", tel)

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	client := resty.New()
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.RequestsPerSecond > 0 {
		limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}
	telemetry.InstrumentResty(client, tel, opts.MessageOutput)

	return &Engine{
		http:  client,
		opts:  opts,
		tel:   tel,
		sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Delay returns how long to wait after failed attempt number `attempt` (1 based).
func (e *Engine) Delay(attempt int) time.Duration {
	delay := time.Duration(attempt) * e.opts.BaseDelay
	if e.opts.Jitter > 0 {
		delay += rand.N(e.opts.Jitter)
	}
	return delay
}

// Fetch retrieves req.Url, retrying failed attempts after a delay that grows
// linearly with the attempt number. A non-200 response is a failed attempt.
func (e *Engine) Fetch(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "Engine.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", req.Url))

	maxAttempts := e.opts.MaxAttempts
	if req.MaxAttempts > 0 {
		maxAttempts = req.MaxAttempts
	}

	var lastErr error
	attempt := 0
	for attempt < maxAttempts {
		attempt++

		res, err := e.attempt(ctx, req, attempt)
		if err == nil {
			res.Attempts = attempt
			span.SetAttributes(attribute.Int("attempts", attempt))
			return res, nil
		}
		lastErr = err
		e.tel.ReportWarning(report_engine_attempt, err, req.Url, attempt, maxAttempts)

		if attempt == maxAttempts {
			break
		}
		err = e.sleep(ctx, e.Delay(attempt))
		if err != nil {
			lastErr = err
			break
		}
	}

	fetchErr := &Error{Url: req.Url, Attempts: attempt, Err: lastErr}
	span.RecordError(fetchErr)
	span.SetStatus(codes.Error, "attempts exhausted")
	e.tel.ReportBroken(report_engine_fetch, fetchErr)
	return Result{}, fetchErr
}

func (e *Engine) attempt(ctx context.Context, req Request, attempt int) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	res, err := e.http.R().
		SetContext(ctx).
		SetHeaders(e.opts.Shaping.Headers(req, attempt)).
		SetDoNotParseResponse(true).
		Get(req.Url)
	if err != nil {
		return Result{}, err
	}
	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(body, 4096))
		return Result{}, &StatusError{Code: res.StatusCode(), Status: res.Status()}
	}

	contents, err := io.ReadAll(io.LimitReader(body, e.opts.MaxBodyBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(contents)) > e.opts.MaxBodyBytes {
		return Result{}, fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, e.opts.MaxBodyBytes)
	}
	if len(contents) == 0 {
		return Result{}, ErrEmptyBody
	}

	finalUrl := res.RawResponse.Request.URL
	return Result{
		Body:        contents,
		ContentType: res.Header().Get("Content-Type"),
		Url:         finalUrl,
	}, nil
}
