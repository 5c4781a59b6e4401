package auth

import "strings"

// Cookie names read from the configured cookie header.
const (
	SessionCookie       = "__Secure-C_SES"
	OriginSessionCookie = "__Host-C_OSES"
)

// Credential is the long-lived secret bundle for one upstream identity.
// It is immutable once built by NewCredential.
type Credential struct {
	// ConfigID is the widget configuration identifier sent with every call.
	ConfigID string

	// ProjectID scopes generated-file downloads.
	ProjectID string

	// Csesidx is the session index; it becomes the assertion subject.
	Csesidx string

	// Session is the __Secure-C_SES cookie value.
	Session string

	// OriginSession is the optional __Host-C_OSES cookie value.
	OriginSession string
}

// NewCredential validates the raw account fields and returns a Credential.
// Every field is required and the cookie header must carry __Secure-C_SES.
// Errors are *ConfigurationError values naming the offending field.
func NewCredential(account, configID, projectID, csesidx, cookies string) (*Credential, error) {
	required := []struct {
		field string
		value string
	}{
		{"config_id", configID},
		{"project_id", projectID},
		{"csesidx", csesidx},
		{"cookies", cookies},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, &ConfigurationError{Account: account, Field: r.field, Message: "field is required"}
		}
	}

	parsed := ParseCookies(cookies)
	ses := parsed[SessionCookie]
	if ses == "" {
		return nil, &ConfigurationError{
			Account: account,
			Field:   "cookies",
			Message: "missing " + SessionCookie,
		}
	}

	return &Credential{
		ConfigID:      strings.TrimSpace(configID),
		ProjectID:     strings.TrimSpace(projectID),
		Csesidx:       strings.TrimSpace(csesidx),
		Session:       ses,
		OriginSession: parsed[OriginSessionCookie],
	}, nil
}

// ParseCookies splits a "name=value; name2=value2" header into a map.
// Segments without '=' are ignored. Values may themselves contain '='.
func ParseCookies(raw string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		cookies[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return cookies
}

// CookieHeader renders the cookies the token bootstrap endpoint expects.
func (c *Credential) CookieHeader() string {
	header := SessionCookie + "=" + c.Session
	if c.OriginSession != "" {
		header += "; " + OriginSessionCookie + "=" + c.OriginSession
	}
	return header
}
