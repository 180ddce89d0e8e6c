package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
)

var phonePattern = regexp.MustCompile(`^[0-9]{8,15}$`)

// TwilioSMSSender delivers one-time codes through the Twilio Messages API
type TwilioSMSSender struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	baseURL    string
}

// NewTwilioSMSSender creates a new SMS sender
func NewTwilioSMSSender(accountSID, authToken, from string) (*TwilioSMSSender, error) {
	return NewTwilioSMSSenderWithOptions(accountSID, authToken, from, "https://api.twilio.com", nil)
}

// NewTwilioSMSSenderWithOptions allows overriding the API base URL and client
func NewTwilioSMSSenderWithOptions(accountSID, authToken, from, baseURL string, httpClient *http.Client) (*TwilioSMSSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("TWILIO_SID, TWILIO_TOKEN and TWILIO_FROM must be set")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TwilioSMSSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

var _ providers.CodeSender = (*TwilioSMSSender)(nil)

// twilioMessageResponse is the subset of the Messages API response we read
type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Channel implements providers.CodeSender
func (s *TwilioSMSSender) Channel() entities.OTPChannel {
	return entities.OTPChannelSMS
}

// Supports implements providers.CodeSender
func (s *TwilioSMSSender) Supports(identifier string) bool {
	return phonePattern.MatchString(identifier)
}

// Send implements providers.CodeSender
func (s *TwilioSMSSender) Send(ctx context.Context, identifier, code string) error {
	_, err := s.SendText(ctx, "+"+strings.TrimPrefix(identifier, "+"), "Your OTP is: "+code)
	return err
}

// SendText sends a plain SMS and returns the message SID
func (s *TwilioSMSSender) SendText(ctx context.Context, to, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var msg twilioMessageResponse
	_ = json.Unmarshal(respBody, &msg)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		if msg.Message != "" {
			return "", fmt.Errorf("twilio API error (status %d, code %d): %s", resp.StatusCode, msg.Code, msg.Message)
		}
		return "", fmt.Errorf("twilio API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if msg.SID == "" {
		return "", fmt.Errorf("no message SID in response")
	}
	return msg.SID, nil
}
