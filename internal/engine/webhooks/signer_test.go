package webhooks

import "testing"

func TestSignAndVerify(t *testing.T) {
	payload := []byte(`{"event":"device.paired","data":{"device_id":"dev_1"}}`)

	sig := Sign("whsec_test", payload)
	if sig == "" {
		t.Fatal("Expected a signature")
	}

	if !Verify("whsec_test", payload, sig) {
		t.Error("Expected signature to verify with the correct secret")
	}
	if Verify("whsec_other", payload, sig) {
		t.Error("Expected verification to fail with the wrong secret")
	}
	if Verify("whsec_test", []byte("tampered"), sig) {
		t.Error("Expected verification to fail for a tampered payload")
	}
	if Verify("whsec_test", payload, "not-hex") {
		t.Error("Expected verification to fail for a malformed signature")
	}
}
