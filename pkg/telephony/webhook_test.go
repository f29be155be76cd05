package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
	"testing"
)

func computeSignature(t *testing.T, fullURL string, params url.Values, authToken string) string {
	t.Helper()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	buf.WriteString(fullURL)
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteString(params.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(buf.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateWebhookSignatureAccepts(t *testing.T) {
	params := url.Values{"CallSid": {"CA123"}, "From": {"+15551234567"}}
	u := "https://example.com/incoming-call"
	sig := computeSignature(t, u, params, "secret-token")

	if !ValidateWebhookSignature(u, params, sig, "secret-token") {
		t.Error("expected a correctly computed signature to validate")
	}
}

func TestValidateWebhookSignatureRejectsTampered(t *testing.T) {
	params := url.Values{"CallSid": {"CA123"}, "From": {"+15551234567"}}
	u := "https://example.com/incoming-call"
	sig := computeSignature(t, u, params, "secret-token")

	tampered := url.Values{"CallSid": {"CA999"}, "From": {"+15551234567"}}
	if ValidateWebhookSignature(u, tampered, sig, "secret-token") {
		t.Error("expected signature validation to fail for a tampered body")
	}
}

func TestValidateWebhookSignatureRejectsEmpty(t *testing.T) {
	if ValidateWebhookSignature("https://example.com", url.Values{}, "", "secret-token") {
		t.Error("expected an empty signature to be rejected")
	}
}

func TestBuildMediaStreamTwiML(t *testing.T) {
	out, err := BuildMediaStreamTwiML("https://example.com", "CA123", "+15551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "wss://example.com/media-stream/CA123") {
		t.Errorf("expected stream url in output, got %s", out)
	}
	if !strings.Contains(out, `name="caller"`) || !strings.Contains(out, `value="+15551234567"`) {
		t.Errorf("expected caller parameter in output, got %s", out)
	}
}
