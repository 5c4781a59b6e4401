package session

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

// EmptyFingerprint identifies a request with no messages.
const EmptyFingerprint = "empty"

// fingerprintKey is digested as JSON; fields are in sorted key order.
type fingerprintKey struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// Fingerprint digests the first message of a conversation. Only its role
// and text reach the digest, so image payloads never change the result.
func Fingerprint(role, text string) string {
	data, err := json.Marshal(fingerprintKey{Content: text, Role: role})
	if err != nil {
		// Marshalling two strings cannot fail.
		panic(err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
