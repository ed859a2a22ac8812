// Package twilio is a minimal client for the Twilio WhatsApp messaging
// API: outbound sends, TwiML webhook replies, and webhook signature
// validation.
package twilio

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api.twilio.com"

// Client sends WhatsApp messages through the Twilio REST API.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Twilio client. from is the sending WhatsApp number
// in "whatsapp:+14155238886" form.
func NewClient(accountSID, authToken, from string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendMessage delivers body to the given WhatsApp number out of band,
// independent of any inbound webhook.
func (c *Client) SendMessage(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "build twilio request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "twilio request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return errors.Errorf("twilio: status %d code %d: %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	}

	var sent struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil {
		return errors.Wrap(err, "decode twilio response")
	}
	return nil
}

// messagingResponse is the TwiML document returned from the webhook.
type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// Reply renders message as a TwiML response body.
func Reply(message string) string {
	out, err := xml.Marshal(messagingResponse{Message: message})
	if err != nil {
		// Marshal of a plain string cannot fail; keep the webhook alive
		// regardless.
		return xml.Header + "<Response></Response>"
	}
	return xml.Header + string(out)
}

// ValidateSignature checks the X-Twilio-Signature header for a webhook
// request: base64 HMAC-SHA1 over the full URL followed by the sorted
// POST parameters, keyed by the account auth token.
func ValidateSignature(authToken, requestURL string, form url.Values, signature string) bool {
	var sb strings.Builder
	sb.WriteString(requestURL)

	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// A repeated parameter contributes one key+value pair per
		// occurrence.
		for _, v := range form[k] {
			sb.WriteString(k)
			sb.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(sb.String()))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
