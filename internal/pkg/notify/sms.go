package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/env"
)

var ErrSMSInputRequired = apperr.Validation("Phone number and message are required")

// TwilioClient sends SMS through the Twilio Messages API. BaseURL redirects
// the API host and stays empty in production.
type TwilioClient struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string

	HTTPClient *http.Client
}

func NewTwilioClientFromEnv() *TwilioClient {
	return &TwilioClient{
		AccountSID: strings.TrimSpace(env.GetEnv("TWILIO_ACCOUNT_SID", "")),
		AuthToken:  strings.TrimSpace(env.GetEnv("TWILIO_AUTH_TOKEN", "")),
		From:       strings.TrimSpace(env.GetEnv("TWILIO_PHONE_NUMBER", "")),
		BaseURL:    strings.TrimRight(strings.TrimSpace(env.GetEnv("TWILIO_API_BASE_URL", "")), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *TwilioClient) Configured() bool {
	return c != nil && c.AccountSID != "" && c.AuthToken != ""
}

// SendSMS posts one message and returns the Twilio message sid.
func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) (string, error) {
	if strings.TrimSpace(to) == "" || strings.TrimSpace(body) == "" {
		return "", ErrSMSInputRequired
	}
	if !c.Configured() {
		return "", apperr.External("Twilio credentials not configured", nil)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.From)
	params.SetBody(body)

	msg, err := c.restClient(ctx).Api.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			return "", apperr.External(fmt.Sprintf("Twilio error: status=%d code=%d message=%s", restErr.Status, restErr.Code, restErr.Message), err)
		}
		return "", apperr.External("twilio request failed", err)
	}
	if msg == nil || msg.Sid == nil {
		return "", apperr.External("twilio returned no message sid", nil)
	}
	return *msg.Sid, nil
}

// restClient builds a Twilio client whose requests carry ctx and, when
// BaseURL is set, go to that host instead of api.twilio.com.
func (c *TwilioClient) restClient(ctx context.Context) *twilio.RestClient {
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: c.AccountSID,
		Password: c.AuthToken,
	})
	if base, ok := rc.RequestHandler.Client.(*twilioclient.Client); ok {
		base.HTTPClient = c.httpClient(ctx)
	}
	return rc
}

func (c *TwilioClient) httpClient(ctx context.Context) *http.Client {
	hc := &http.Client{Timeout: 15 * time.Second}
	if c.HTTPClient != nil {
		copied := *c.HTTPClient
		hc = &copied
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	rt := &requestRewriter{ctx: ctx, next: next}
	if c.BaseURL != "" {
		if u, err := url.Parse(c.BaseURL); err == nil && u.Host != "" {
			rt.base = u
		}
	}
	hc.Transport = rt
	return hc
}

type requestRewriter struct {
	ctx  context.Context
	base *url.URL
	next http.RoundTripper
}

func (t *requestRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if t.base != nil {
		req.URL.Scheme = t.base.Scheme
		req.URL.Host = t.base.Host
		req.Host = t.base.Host
	}
	return t.next.RoundTrip(req)
}
