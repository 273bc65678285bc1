package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// SignatureValidator recomputes the X-Twilio-Signature HMAC and compares it
// against the header the provider sent.
//
// Scheme (per the provider's webhook security contract):
//   - take the exact callback URL; for POST the query string is excluded,
//     for GET it is included
//   - append each body (POST) or query (GET) parameter as key+value,
//     sorted by key
//   - HMAC-SHA1 with the account auth token, base64-encode
//
// The request body must be parsed exactly once upstream and the parsed values
// passed in here; re-reading a consumed body yields empty params and a false
// validation failure.
type SignatureValidator struct {
	authToken string
}

func NewSignatureValidator(authToken string) SignatureValidator {
	return SignatureValidator{authToken: authToken}
}

const SignatureHeader = "X-Twilio-Signature"

// Validate checks a webhook signature. It returns false on a missing
// signature, missing auth token configuration, or mismatch; the caller must
// respond 401 and must not act on the payload.
func (v SignatureValidator) Validate(method, fullURL string, params url.Values, signature string) bool {
	if v.authToken == "" || signature == "" {
		return false
	}

	base, err := signatureBaseURL(method, fullURL)
	if err != nil {
		return false
	}

	var b strings.Builder
	b.WriteString(base)

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		// Twilio signs the first value for repeated keys.
		b.WriteString(k)
		b.WriteString(params.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(v.authToken))
	mac.Write([]byte(b.String()))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(want), []byte(signature)) == 1
}

// ValidateRequest is a convenience over Validate for an already-parsed gin or
// net/http request. r.Form must be populated (ParseForm called) before use.
// baseURL is scheme+host as the provider sees it (no trailing slash); the
// provider signed the public URL, so behind a rewriting proxy the configured
// public base must be used rather than the Host header.
func (v SignatureValidator) ValidateRequest(r *http.Request, baseURL string) bool {
	full := baseURL + r.URL.RequestURI()
	var params url.Values
	if r.Method == http.MethodPost {
		params = r.PostForm
	} else {
		params = r.URL.Query()
	}
	return v.Validate(r.Method, full, params, r.Header.Get(SignatureHeader))
}

func signatureBaseURL(method, fullURL string) (string, error) {
	u, err := url.Parse(fullURL)
	if err != nil {
		return "", err
	}
	if method == http.MethodPost {
		return u.Scheme + "://" + u.Host + u.Path, nil
	}
	return fullURL, nil
}
