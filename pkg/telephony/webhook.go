package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"net/url"
	"sort"
	"strings"
)

// ValidateWebhookSignature validates an inbound call-webhook request against
// the carrier's request-signing scheme: HMAC-SHA1 over the full request URL
// with each form parameter's key+value appended (sorted by key), then
// base64-encoded and compared against the X-Twilio-Signature header.
//
// formParams is the parsed application/x-www-form-urlencoded request body.
func ValidateWebhookSignature(fullURL string, formParams url.Values, signature, authToken string) bool {
	if signature == "" || authToken == "" {
		return false
	}

	keys := make([]string, 0, len(formParams))
	for k := range formParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	buf.WriteString(fullURL)
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteString(formParams.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(buf.String()))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// RequireValidSignature is ValidateWebhookSignature with an error return,
// for handlers that want to short-circuit with http.StatusForbidden on a
// signature mismatch rather than branch on a bool.
func RequireValidSignature(fullURL string, formParams url.Values, signature, authToken string) error {
	if !ValidateWebhookSignature(fullURL, formParams, signature, authToken) {
		return ErrInvalidSignature
	}
	return nil
}

// twiMLResponse and its nested types model only the small subset of TwiML
// this application emits: a single <Connect><Stream> instructing the
// carrier to open a bidirectional media-stream WebSocket back to us.
type twiMLResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Connect twiMLConnect `xml:"Connect"`
}

type twiMLConnect struct {
	Stream twiMLStream `xml:"Stream"`
}

type twiMLStream struct {
	URL        string           `xml:"url,attr"`
	Parameters []twiMLParameter `xml:"Parameter"`
}

type twiMLParameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// BuildMediaStreamTwiML renders the TwiML document that connects an inbound
// call to our media-stream WebSocket at wss://<host>/media-stream/<callID>,
// carrying the caller and call id as stream parameters.
func BuildMediaStreamTwiML(baseURL, callID, caller string) (string, error) {
	wsURL := strings.Replace(baseURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.TrimRight(wsURL, "/")
	streamURL := wsURL + "/media-stream/" + callID

	resp := twiMLResponse{
		Connect: twiMLConnect{
			Stream: twiMLStream{
				URL: streamURL,
				Parameters: []twiMLParameter{
					{Name: "caller", Value: caller},
					{Name: "call_sid", Value: callID},
				},
			},
		},
	}

	out, err := xml.Marshal(resp)
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}
