package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Twilio REST client covering the two operations this
// service needs: placing an outbound call and probing the account for health.
// It intentionally avoids the provider SDK; requests are plain form-encoded
// HTTP against the documented API.

const defaultAPIBaseURL = "https://api.twilio.com"

// statusCallbackEvents is the full event set the status reconciler consumes.
var statusCallbackEvents = []string{
	"initiated", "ringing", "answered", "completed",
	"busy", "no-answer", "failed", "canceled",
}

// ProviderError is a voice-provider failure surfaced after retries are
// exhausted. Message carries the provider's own description for the courier.
type ProviderError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("twilio: %s (code %d)", e.Message, e.Code)
	}
	return "twilio: " + e.Message
}

type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client

	maxAttempts int
	retryDelay  time.Duration
	sleep       func(context.Context, time.Duration) error
}

type ClientOption func(*Client)

// WithBaseURL redirects API traffic, used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithRetry overrides the bounded retry policy.
func WithRetry(maxAttempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.retryDelay = delay
	}
}

func NewClient(accountSID, authToken string, opts ...ClientOption) *Client {
	c := &Client{
		accountSID:  accountSID,
		authToken:   authToken,
		baseURL:     defaultAPIBaseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxAttempts: 3,
		retryDelay:  time.Second,
		sleep:       sleepCtx,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateCallParams describes one outbound call placement.
type CreateCallParams struct {
	// To is the courier's phone; the customer leg is dialed later by the
	// connect-callback TwiML, only after the courier answers.
	To   string
	From string

	// ConnectURL serves the control document once the To leg answers.
	ConnectURL string

	// StatusCallbackURL receives asynchronous lifecycle events.
	StatusCallbackURL string
}

// Call is the subset of the provider's call resource we consume.
type Call struct {
	SID       string `json:"sid"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// CreateCall places an outbound call, retrying transient failures with
// linearly increasing backoff. A final failure is returned as *ProviderError.
func (c *Client) CreateCall(ctx context.Context, p CreateCallParams) (Call, error) {
	form := url.Values{}
	form.Set("To", p.To)
	form.Set("From", p.From)
	form.Set("Url", p.ConnectURL)
	form.Set("Method", http.MethodPost)
	form.Set("StatusCallback", p.StatusCallbackURL)
	form.Set("StatusCallbackMethod", http.MethodPost)
	for _, ev := range statusCallbackEvents {
		form.Add("StatusCallbackEvent", ev)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		var call Call
		err := c.postForm(ctx, endpoint, form, &call)
		if err == nil {
			return call, nil
		}
		lastErr = err

		// Client-side misuse (4xx) never succeeds on retry.
		var pe *ProviderError
		if errors.As(err, &pe) && pe.StatusCode >= 400 && pe.StatusCode < 500 {
			return Call{}, err
		}
		if attempt < c.maxAttempts {
			if serr := c.sleep(ctx, c.retryDelay*time.Duration(attempt)); serr != nil {
				return Call{}, serr
			}
		}
	}
	return Call{}, lastErr
}

// FetchAccount performs a lightweight authenticated read, used as the health
// probe for provider connectivity.
func (c *Client) FetchAccount(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json", c.baseURL, c.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &apiErr)
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return &ProviderError{StatusCode: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
