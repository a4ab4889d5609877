package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func webhookHMAC(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func signWebhookPayload(payload []byte, secret string, at time.Time) string {
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), webhookHMAC(payload, secret, at))
}

func TestVerifyWebhookSignature(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{
			name:   "valid signature",
			header: signWebhookPayload(payload, secret, now),
		},
		{
			name:   "valid among multiple v1 candidates",
			header: fmt.Sprintf("t=%d,v1=deadbeef,v1=%s", now.Unix(), webhookHMAC(payload, secret, now)),
		},
		{
			name:    "wrong secret",
			header:  signWebhookPayload(payload, "whsec_other", now),
			wantErr: true,
		},
		{
			name:    "timestamp too old",
			header:  signWebhookPayload(payload, secret, now.Add(-DefaultSignatureTolerance-time.Second)),
			wantErr: true,
		},
		{
			name:    "timestamp in the future",
			header:  signWebhookPayload(payload, secret, now.Add(DefaultSignatureTolerance+time.Second)),
			wantErr: true,
		},
		{
			name:    "missing header",
			header:  "",
			wantErr: true,
		},
		{
			name:    "no timestamp",
			header:  "v1=deadbeef",
			wantErr: true,
		},
		{
			name:    "no v1 signature",
			header:  fmt.Sprintf("t=%d", now.Unix()),
			wantErr: true,
		},
		{
			name:    "garbage timestamp",
			header:  "t=notanumber,v1=deadbeef",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := VerifyWebhookSignature(payload, tc.header, secret, DefaultSignatureTolerance, now)
			if tc.wantErr && err == nil {
				t.Fatal("expected verification failure")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("VerifyWebhookSignature() unexpected error: %v", err)
			}
		})
	}
}

func TestVerifyWebhookSignatureRejectsTamperedPayload(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	now := time.Now()
	header := signWebhookPayload([]byte(`{"id":"evt_1"}`), secret, now)

	if err := VerifyWebhookSignature([]byte(`{"id":"evt_evil"}`), header, secret, DefaultSignatureTolerance, now); err == nil {
		t.Fatal("expected verification failure for tampered payload")
	}
}

func TestVerifyWebhookSignatureZeroToleranceSkipsAgeCheck(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	old := time.Now().Add(-24 * time.Hour)
	header := signWebhookPayload(payload, secret, old)

	if err := VerifyWebhookSignature(payload, header, secret, 0, time.Now()); err != nil {
		t.Fatalf("VerifyWebhookSignature() unexpected error: %v", err)
	}
}
