package normalizer

import (
	"regexp"
	"strings"
)

const (
	minMerchantLength = 4
	maxMerchantLength = 50
)

var (
	// "purchase at starbucks riyadh on 12/01" -> "starbucks riyadh"
	merchantAfterMarker = regexp.MustCompile(`(?:\bat\b|في|@)\s*([a-z0-9\s]+?)(?:\s+on|\s+في|\s+#|$)`)
	// "starbucks 0042 riyadh" -> "starbucks 0042 riyadh"
	merchantLeading = regexp.MustCompile(`^([a-z0-9\s]{5,30})`)
	// Terminal and reference numbers appended by card processors.
	merchantRefSuffix = regexp.MustCompile(`\s+\d{4,}$`)
)

// MerchantToken extracts a short merchant identifier from a transaction
// description. The second result is false when nothing usable was found.
func MerchantToken(description string) (string, bool) {
	desc := strings.ToLower(Cell(description))
	if desc == "" {
		return "", false
	}

	var token string
	if m := merchantAfterMarker.FindStringSubmatch(desc); m != nil {
		token = m[1]
	} else if m := merchantLeading.FindStringSubmatch(desc); m != nil {
		token = m[1]
	} else {
		return "", false
	}

	token = strings.TrimSpace(token)
	token = merchantRefSuffix.ReplaceAllString(token, "")
	token = CollapseSpaces(token)
	if len(token) > maxMerchantLength {
		token = strings.TrimSpace(token[:maxMerchantLength])
	}
	if len(token) < minMerchantLength {
		return "", false
	}
	return token, true
}
