package crawl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"net/url"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/fwojciec/spewder"
)

// FetchFunc is the signature for a single fetch attempt.
type FetchFunc func(ctx context.Context, url string) (*spewder.Response, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d, returning early with the context error if ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryPolicy retries transient fetch failures with exponential backoff.
// The wait before retry i (starting at 0) is BaseDelay × BackoffFactor^i.
type RetryPolicy struct {
	MaxRetries    int
	BackoffFactor float64
	BaseDelay     time.Duration

	// TransientStatuses lists 4xx codes to retry. 5xx codes always are.
	TransientStatuses []int

	// Sleep waits between attempts. Defaults to Sleep.
	Sleep SleepFunc

	Logger *slog.Logger
}

// NewRetryPolicy returns the retry policy described by cfg. The base delay
// is the configured request delay.
func NewRetryPolicy(cfg spewder.CrawlConfig) *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:        cfg.MaxRetries,
		BackoffFactor:     cfg.BackoffFactor,
		BaseDelay:         cfg.RequestDelay,
		TransientStatuses: cfg.TransientStatuses,
	}
}

// Delay returns the wait before retry i, where i is 0 for the first retry.
func (p *RetryPolicy) Delay(i int) time.Duration {
	factor := max(p.BackoffFactor, 1)
	return time.Duration(float64(p.BaseDelay) * math.Pow(factor, float64(i)))
}

// Delays returns the complete backoff schedule.
func (p *RetryPolicy) Delays() []time.Duration {
	delays := make([]time.Duration, p.MaxRetries)
	for i := range delays {
		delays[i] = p.Delay(i)
	}
	return delays
}

// Attempt is the result of fetching one URL under a RetryPolicy.
type Attempt struct {
	Response *spewder.Response
	Status   spewder.Status
	Err      error
	Attempts int
}

// Attempt calls fetch until it succeeds, fails permanently, or has been
// retried MaxRetries times. A page that runs out of retries is reported as
// a transient failure whose error is a *spewder.AttemptsError.
func (p *RetryPolicy) Attempt(ctx context.Context, url string, fetch FetchFunc) Attempt {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var a Attempt
	for {
		resp, err := fetch(ctx, url)
		a.Attempts++
		a.Response = resp
		a.Status = p.Classify(resp, err)
		if err == nil && a.Status != spewder.StatusSuccess {
			err = responseError(url, resp)
		}
		a.Err = err

		if a.Status != spewder.StatusTransientFailure {
			return a
		}
		if a.Attempts > p.MaxRetries {
			a.Err = &spewder.AttemptsError{Attempts: a.Attempts, Err: err}
			return a
		}

		delay := p.Delay(a.Attempts - 1)
		logger.Debug("retry", "url", url, "attempt", a.Attempts+1, "delay", delay, "err", err)

		if serr := sleep(ctx, delay); serr != nil {
			a.Err = &spewder.AttemptsError{Attempts: a.Attempts, Err: errors.Join(err, serr)}
			return a
		}
	}
}

// Classify maps the result of one fetch to a status. Server errors and
// network failures are transient; client errors and malformed URLs are
// permanent. Errors that cannot be classified are treated as transient.
func (p *RetryPolicy) Classify(resp *spewder.Response, err error) spewder.Status {
	var se *spewder.StatusError
	if errors.As(err, &se) {
		return p.classifyStatus(se.Code)
	}
	if err != nil {
		return classifyError(err)
	}
	if resp == nil {
		return spewder.StatusPermanentFailure
	}
	return p.classifyStatus(resp.StatusCode)
}

func responseError(url string, resp *spewder.Response) error {
	if resp == nil {
		return spewder.Errorf(spewder.EINTERNAL, "fetch of %s returned no response", url)
	}
	return &spewder.StatusError{URL: url, Code: resp.StatusCode}
}

func (p *RetryPolicy) classifyStatus(code int) spewder.Status {
	switch {
	case code >= 200 && code < 300:
		return spewder.StatusSuccess
	case code >= 500 && code < 600:
		return spewder.StatusTransientFailure
	case slices.Contains(p.TransientStatuses, code):
		return spewder.StatusTransientFailure
	default:
		return spewder.StatusPermanentFailure
	}
}

func classifyError(err error) spewder.Status {
	var appErr *spewder.Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case spewder.EINVALID, spewder.EPERMANENT:
			return spewder.StatusPermanentFailure
		default:
			return spewder.StatusTransientFailure
		}
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return spewder.StatusTransientFailure
	case errors.As(err, &netErr) && netErr.Timeout():
		return spewder.StatusTransientFailure
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return spewder.StatusTransientFailure
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && isMalformedURLError(urlErr.Err) {
		return spewder.StatusPermanentFailure
	}
	return spewder.StatusTransientFailure
}

// isMalformedURLError matches the errors net/http returns for URLs it
// refuses to request.
func isMalformedURLError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unsupported protocol scheme") ||
		strings.Contains(msg, "no Host in request URL") ||
		strings.Contains(msg, "invalid URL")
}
