// pkg/phone/phone.go
package phone

import "strings"

const countryCode = "254"

var separators = strings.NewReplacer(" ", "", "-", "", "+", "")

// Normalize converts a Kenyan phone number to international format
// (digit-only, 254 prefix). Separators (spaces, hyphens, plus) are
// stripped first. No length or digit validation happens here.
func Normalize(raw string) string {
	cleaned := separators.Replace(raw)

	switch {
	case strings.HasPrefix(cleaned, "07"):
		// 0712345678 -> 254712345678
		return countryCode + cleaned[1:]
	case strings.HasPrefix(cleaned, "7"):
		// 712345678 -> 254712345678
		return countryCode + cleaned
	case strings.HasPrefix(cleaned, countryCode):
		return cleaned
	default:
		return countryCode + cleaned
	}
}
