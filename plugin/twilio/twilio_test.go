package twilio

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var gotForm url.Values
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid": "SM42"}`))
	}))
	defer srv.Close()

	c := NewClient("AC123", "secret", "whatsapp:+14155238886")
	c.baseURL = srv.URL

	err := c.SendMessage(context.Background(), "whatsapp:+15550001111", "your order shipped")
	require.NoError(t, err)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "whatsapp:+14155238886", gotForm.Get("From"))
	assert.Equal(t, "whatsapp:+15550001111", gotForm.Get("To"))
	assert.Equal(t, "your order shipped", gotForm.Get("Body"))
}

func TestSendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": 20003, "message": "Authentication Error"}`))
	}))
	defer srv.Close()

	c := NewClient("AC123", "wrong", "whatsapp:+14155238886")
	c.baseURL = srv.URL

	err := c.SendMessage(context.Background(), "whatsapp:+15550001111", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "20003")
}

func TestReply(t *testing.T) {
	got := Reply("Hello there")
	assert.Contains(t, got, "<Response><Message>Hello there</Message></Response>")

	// XML metacharacters must be escaped, not injected.
	got = Reply(`price is < 5 & > 1 "really"`)
	assert.NotContains(t, got, `price is < 5`)
	assert.Contains(t, got, "&lt;")
	assert.Contains(t, got, "&amp;")
}

func signForm(authToken, requestURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	payload := requestURL
	for _, k := range keys {
		for _, v := range form[k] {
			payload += k + v
		}
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	const token = "token-123"
	const reqURL = "https://bot.example.com/webhook/whatsapp"
	form := url.Values{}
	form.Set("From", "whatsapp:+15550001111")
	form.Set("Body", "hello")

	sig := signForm(token, reqURL, form)
	assert.True(t, ValidateSignature(token, reqURL, form, sig))

	t.Run("wrong token", func(t *testing.T) {
		assert.False(t, ValidateSignature("other-token", reqURL, form, sig))
	})
	t.Run("tampered body", func(t *testing.T) {
		tampered := url.Values{}
		tampered.Set("From", "whatsapp:+15550001111")
		tampered.Set("Body", "transfer all funds")
		assert.False(t, ValidateSignature(token, reqURL, tampered, sig))
	})
	t.Run("garbage signature", func(t *testing.T) {
		assert.False(t, ValidateSignature(token, reqURL, form, "not-a-signature"))
	})
	t.Run("repeated parameter", func(t *testing.T) {
		repeated := url.Values{}
		repeated.Set("From", "whatsapp:+15550001111")
		repeated["MediaUrl"] = []string{"https://a.example/1.jpg", "https://a.example/2.jpg"}

		sig := signForm(token, reqURL, repeated)
		assert.True(t, ValidateSignature(token, reqURL, repeated, sig))

		// Dropping one occurrence invalidates the signature.
		truncated := url.Values{}
		truncated.Set("From", "whatsapp:+15550001111")
		truncated["MediaUrl"] = []string{"https://a.example/1.jpg"}
		assert.False(t, ValidateSignature(token, reqURL, truncated, sig))
	})
}
