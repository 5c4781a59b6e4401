package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
)

// Assertion claim constants.
const (
	AssertionIssuer   = "https://business.gemini.google"
	AssertionAudience = "https://biz-discoveryengine.googleapis.com"

	// AssertionLifetime is the validity window written into the claims.
	AssertionLifetime = 300 * time.Second

	// TokenLifetime is how long a minted assertion is reused locally.
	// It stays 30s inside AssertionLifetime.
	TokenLifetime = 270 * time.Second
)

// Field order matters: the JSON is signed as emitted.
type assertionHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
	Kid string `json:"kid"`
}

type assertionClaims struct {
	Iss string `json:"iss"`
	Aud string `json:"aud"`
	Sub string `json:"sub"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
	Nbf int64  `json:"nbf"`
}

// MintAssertion builds the HS256 bearer assertion for csesidx, signed with
// key and tagged with keyID, issued at now.
func MintAssertion(key []byte, keyID, csesidx string, now time.Time) (string, error) {
	iat := now.Unix()

	header, err := compactJSON(assertionHeader{Alg: "HS256", Typ: "JWT", Kid: keyID})
	if err != nil {
		return "", fmt.Errorf("failed to encode assertion header: %w", err)
	}
	claims, err := compactJSON(assertionClaims{
		Iss: AssertionIssuer,
		Aud: AssertionAudience,
		Sub: "csesidx/" + csesidx,
		Iat: iat,
		Exp: iat + int64(AssertionLifetime/time.Second),
		Nbf: iat,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode assertion claims: %w", err)
	}

	message := encodeSegment(header) + "." + encodeSegment(claims)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return message + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// compactJSON marshals v without HTML escaping or a trailing newline.
// Non-ASCII characters are written as \uXXXX escapes, so the output is
// pure ASCII before it is widened.
func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return escapeNonASCII(strings.TrimSuffix(buf.String(), "\n")), nil
}

// escapeNonASCII replaces every rune above 0x7F with lower-case \uXXXX
// escapes, using a surrogate pair outside the Basic Multilingual Plane.
// Marshalled JSON only carries such runes inside strings.
func escapeNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= 0x7F {
			b.WriteRune(r)
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&b, "\\u%04x", u)
		}
	}
	return b.String()
}

// encodeSegment widens s and returns it as unpadded base64url.
func encodeSegment(s string) string {
	return base64.RawURLEncoding.EncodeToString(widen(s))
}

// widen converts s to bytes one UTF-16 code unit at a time. Units up to 255
// become a single byte; larger units become two bytes, low byte first.
// This is not UTF-8 and the upstream verifies against exactly these bytes.
func widen(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units))
	for _, u := range units {
		if u > 0xFF {
			out = append(out, byte(u&0xFF), byte(u>>8))
			continue
		}
		out = append(out, byte(u))
	}
	return out
}

// decodeSigningKey decodes a base64url key, tolerating missing or extra
// padding and standard-alphabet characters.
func decodeSigningKey(raw string) ([]byte, error) {
	key := strings.TrimRight(strings.TrimSpace(raw), "=")
	key = strings.NewReplacer("+", "-", "/", "_").Replace(key)
	return base64.RawURLEncoding.DecodeString(key)
}
