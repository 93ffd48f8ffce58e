// Package integrity implements the canonical digest contract for
// offline-captured attendance events. Clients hash a fixed field set
// at capture time; the server recomputes the digest on sync and
// rejects records whose bytes no longer match.
package integrity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf16"
)

// CanonicalDigest serializes the field set as a JSON object with keys
// sorted lexicographically and hashes it with SHA-256. The byte form
// uses ", " and ": " separators to stay compatible with digests
// already issued by deployed clients. Returns 64 lowercase hex
// characters.
func CanonicalDigest(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.Write(encodeJSONString(k))
		buf.WriteString(": ")
		buf.Write(encodeJSONString(fields[k]))
	}
	buf.WriteByte('}')

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// VerifyDigest recomputes the canonical digest and compares it for
// exact equality with the expected value.
func VerifyDigest(fields map[string]string, expected string) bool {
	return CanonicalDigest(fields) == expected
}

// OfflineDigestFields builds the exact field set hashed by clients
// for offline records. Adding or removing a field here breaks
// compatibility with hashes generated before the change.
func OfflineDigestFields(employeeID, date, shiftID, clientTimestamp, latitude, longitude string) map[string]string {
	return map[string]string{
		"employee_id":      employeeID,
		"date":             date,
		"shift_id":         shiftID,
		"client_timestamp": clientTimestamp,
		"latitude":         latitude,
		"longitude":        longitude,
	}
}

// FormatCoordinate renders a coordinate the way clients stringify it
// before hashing: a plain decimal with no trailing zeros beyond what
// the value carries.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// encodeJSONString renders a string the way the client-side JSON
// serializer does: no HTML escaping, and everything outside printable
// ASCII (0x20-0x7E) escaped as \uXXXX, with surrogate pairs above the
// BMP.
func encodeJSONString(s string) []byte {
	var buf bytes.Buffer
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				buf.WriteRune(r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(&buf, `\u%04x\u%04x`, hi, lo)
			default:
				fmt.Fprintf(&buf, `\u%04x`, r)
			}
		}
	}
	buf.WriteByte('"')
	return buf.Bytes()
}
