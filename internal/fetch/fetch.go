package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"playlistforge/internal/model"
)

// Kind selects the stage label and default size cap for one remote input.
type Kind int

const (
	KindPlaylist Kind = iota
	KindPolicy
	KindOverrides
	KindCredentials
)

func (k Kind) stage() string {
	switch k {
	case KindPlaylist:
		return "fetch_playlist"
	case KindPolicy:
		return "fetch_policy"
	case KindOverrides:
		return "fetch_overrides"
	case KindCredentials:
		return "fetch_credentials"
	default:
		// Unknown kind is a programmer error; still return something stable.
		return "fetch"
	}
}

func (k Kind) defaultMaxBytes() int64 {
	switch k {
	case KindPlaylist:
		// Raw provider playlists run to tens of thousands of records.
		return 64 * 1024 * 1024
	case KindPolicy:
		return 2 * 1024 * 1024
	case KindOverrides, KindCredentials:
		return 1 * 1024 * 1024
	default:
		return 1 * 1024 * 1024
	}
}

type Options struct {
	Timeout      time.Duration // default 30s
	MaxBytes     int64         // default per kind
	MaxRedirects int           // default 5
}

type FetchError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects   = errors.New("too many redirects")
	errRedirectBadScheme  = errors.New("redirect target scheme is not http/https")
	errInvalidURLOrScheme = errors.New("invalid url or scheme")
)

func FetchText(ctx context.Context, kind Kind, rawURL string) (string, error) {
	return FetchTextWithOptions(ctx, kind, rawURL, Options{})
}

func FetchTextWithOptions(ctx context.Context, kind Kind, rawURL string, opt Options) (string, error) {
	stage := kind.stage()

	timeout := opt.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxRedirects := opt.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = 5
	}
	maxBytes := opt.MaxBytes
	if maxBytes == 0 {
		maxBytes = kind.defaultMaxBytes()
	}
	if maxBytes <= 0 {
		return "", &FetchError{
			Status: http.StatusBadRequest,
			AppError: model.AppError{
				Code:    "INVALID_ARGUMENT",
				Message: "response size cap must be positive",
				Stage:   stage,
				Source:  rawURL,
			},
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", &FetchError{
			Status: http.StatusBadRequest,
			AppError: model.AppError{
				Code:    "INVALID_ARGUMENT",
				Message: "only http/https URLs are allowed",
				Stage:   stage,
				Source:  rawURL,
			},
			Cause: errors.Join(errInvalidURLOrScheme, err),
		}
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: http.DefaultTransport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// via is the chain of previous requests; allow up to maxRedirects.
			if len(via) > maxRedirects {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errRedirectBadScheme
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		// Should be rare after url.Parse succeeded, but keep the error explicit.
		return "", &FetchError{
			Status: http.StatusBadRequest,
			AppError: model.AppError{
				Code:    "INVALID_ARGUMENT",
				Message: "request URL is invalid",
				Stage:   stage,
				Source:  rawURL,
			},
			Cause: err,
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		// CheckRedirect sentinel errors.
		if errors.Is(err, errTooManyRedirects) {
			return "", &FetchError{
				Status: http.StatusBadGateway,
				AppError: model.AppError{
					Code:    "FETCH_FAILED",
					Message: fmt.Sprintf("redirect limit exceeded (>%d)", maxRedirects),
					Stage:   stage,
					Source:  rawURL,
				},
				Cause: err,
			}
		}
		if errors.Is(err, errRedirectBadScheme) {
			return "", &FetchError{
				Status: http.StatusBadRequest,
				AppError: model.AppError{
					Code:    "INVALID_ARGUMENT",
					Message: "redirect target must be http/https",
					Stage:   stage,
					Source:  rawURL,
				},
				Cause: err,
			}
		}

		// Timeout detection: Go may wrap errors (e.g. *url.Error).
		var ne net.Error
		if (errors.As(err, &ne) && ne.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return "", &FetchError{
				Status: http.StatusGatewayTimeout,
				AppError: model.AppError{
					Code:    "FETCH_TIMEOUT",
					Message: "fetching remote resource timed out",
					Stage:   stage,
					Source:  rawURL,
				},
				Cause: err,
			}
		}

		return "", &FetchError{
			Status: http.StatusBadGateway,
			AppError: model.AppError{
				Code:    "FETCH_FAILED",
				Message: "fetching remote resource failed",
				Stage:   stage,
				Source:  rawURL,
			},
			Cause: err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{
			Status: http.StatusBadGateway,
			AppError: model.AppError{
				Code:    "FETCH_FAILED",
				Message: fmt.Sprintf("upstream returned non-2xx status: %d", resp.StatusCode),
				Stage:   stage,
				Source:  rawURL,
			},
		}
	}

	// Read at most maxBytes+1 to detect overflow deterministically.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return "", &FetchError{
				Status: http.StatusGatewayTimeout,
				AppError: model.AppError{
					Code:    "FETCH_TIMEOUT",
					Message: "fetching remote resource timed out",
					Stage:   stage,
					Source:  rawURL,
				},
				Cause: err,
			}
		}
		return "", &FetchError{
			Status: http.StatusBadGateway,
			AppError: model.AppError{
				Code:    "FETCH_FAILED",
				Message: "reading upstream response failed",
				Stage:   stage,
				Source:  rawURL,
			},
			Cause: err,
		}
	}
	if int64(len(body)) > maxBytes {
		return "", &FetchError{
			Status: http.StatusUnprocessableEntity,
			AppError: model.AppError{
				Code:    "TOO_LARGE",
				Message: fmt.Sprintf("remote resource too large (>%d bytes)", maxBytes),
				Stage:   stage,
				Source:  rawURL,
			},
		}
	}
	if !utf8.Valid(body) {
		return "", &FetchError{
			Status: http.StatusUnprocessableEntity,
			AppError: model.AppError{
				Code:    "FETCH_INVALID_UTF8",
				Message: "remote resource is not valid UTF-8 text",
				Stage:   stage,
				Source:  rawURL,
			},
		}
	}

	return string(body), nil
}
