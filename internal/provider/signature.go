package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSignatureTolerance bounds how old a webhook timestamp may be before
// the delivery is treated as a replay.
const DefaultSignatureTolerance = 5 * time.Minute

// VerifyWebhookSignature authenticates a processor webhook delivery. The
// header carries `t=<unix>,v1=<hex hmac>` and the signed payload is
// `<timestamp>.<body>` under HMAC-SHA256 with the shared endpoint secret.
// Verification is a hard precondition of the reconciler: unsigned events
// never reach financial state.
func VerifyWebhookSignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("webhook secret is required")
	}
	if strings.TrimSpace(header) == "" {
		return fmt.Errorf("signature header is missing")
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		eventTime := time.Unix(timestamp, 0)
		if now.Sub(eventTime) > tolerance || eventTime.Sub(now) > tolerance {
			return fmt.Errorf("signature timestamp outside tolerance")
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, signature := range signatures {
		decoded, decodeErr := hex.DecodeString(signature)
		if decodeErr != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}

	return fmt.Errorf("no matching signature found")
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64 = -1
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("invalid signature timestamp: %w", err)
			}
			timestamp = parsed
		case "v1":
			signatures = append(signatures, value)
		}
	}

	if timestamp < 0 {
		return 0, nil, fmt.Errorf("signature header has no timestamp")
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("signature header has no v1 signature")
	}

	return timestamp, signatures, nil
}
