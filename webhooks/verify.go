package webhooks

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-autohub/core"
)

// SharedSecretVerifier checks the provider's shared-secret header. A blank
// configured secret disables the check entirely.
type SharedSecretVerifier struct {
	Secret string
	Header string
}

// HeaderWebhookSecret is the header carrying the configured shared secret.
const HeaderWebhookSecret = "X-Webhook-Secret"

func NewSharedSecretVerifier(secret string) *SharedSecretVerifier {
	return &SharedSecretVerifier{
		Secret: strings.TrimSpace(secret),
		Header: HeaderWebhookSecret,
	}
}

// Verify returns an unauthorized error when the configured secret does not
// match the presented header value. Comparison is constant time.
func (v *SharedSecretVerifier) Verify(headers map[string]string) error {
	if v == nil || v.Secret == "" {
		return nil
	}
	header := v.Header
	if strings.TrimSpace(header) == "" {
		header = HeaderWebhookSecret
	}
	presented := strings.TrimSpace(headerValue(headers, header))
	if subtle.ConstantTimeCompare([]byte(presented), []byte(v.Secret)) != 1 {
		return goerrors.New("webhook secret missing or invalid", goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(core.ErrorCodeUnauthorized)
	}
	return nil
}

// IPAllowlist restricts webhook callers to configured CIDR ranges. An empty
// allowlist admits everyone.
type IPAllowlist struct {
	networks []*net.IPNet
}

// ParseAllowlist builds an allowlist from CIDR strings. Bare addresses are
// accepted and treated as single-host ranges.
func ParseAllowlist(cidrs []string) (*IPAllowlist, error) {
	allowlist := &IPAllowlist{}
	for _, raw := range cidrs {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				if ip.To4() != nil {
					entry += "/32"
				} else {
					entry += "/128"
				}
			}
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "webhooks: invalid allowlist entry").
				WithTextCode(core.ErrorCodeValidation).
				WithMetadata(map[string]any{"entry": raw})
		}
		allowlist.networks = append(allowlist.networks, network)
	}
	return allowlist, nil
}

// Empty reports whether no ranges are configured.
func (a *IPAllowlist) Empty() bool {
	return a == nil || len(a.networks) == 0
}

// Verify returns a forbidden error when the caller's address falls outside
// every configured range.
func (a *IPAllowlist) Verify(clientIP string) error {
	if a.Empty() {
		return nil
	}
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip != nil {
		for _, network := range a.networks {
			if network.Contains(ip) {
				return nil
			}
		}
	}
	return goerrors.New("caller address not in allowlist", goerrors.CategoryAuthz).
		WithCode(http.StatusForbidden).
		WithTextCode(core.ErrorCodeForbidden).
		WithMetadata(map[string]any{"client_ip": strings.TrimSpace(clientIP)})
}

// ClientIP resolves the caller's address, preferring proxy headers over the
// socket peer: the first X-Forwarded-For hop, then X-Real-IP, then the
// remote address with any port stripped.
func ClientIP(headers map[string]string, remoteAddr string) string {
	if forwarded := headerValue(headers, "X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(headerValue(headers, "X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(remoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(remoteAddr)
}

func headerValue(headers map[string]string, name string) string {
	if len(headers) == 0 {
		return ""
	}
	if value, ok := headers[name]; ok {
		return value
	}
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}
