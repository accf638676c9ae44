package validator

import "testing"

func TestMakeAndValidateLicenseKey(t *testing.T) {
	key, err := MakeLicenseKey("7Q3MF9ZK2PX4WN")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := ValidateLicenseKey(key); err != nil {
		t.Errorf("Expected generated key to validate, got %v", err)
	}
}

func TestValidateLicenseKey_Invalid(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"wrong prefix", "ACME-7Q3MF-9ZK2P-X4WNE"},
		{"missing group", "TILL-7Q3MF-9ZK2P"},
		{"short group", "TILL-7Q3M-9ZK2P-X4WNE"},
		{"lowercase", "TILL-7q3mf-9zk2p-x4wne"},
		{"bad checksum", "TILL-7Q3MF-9ZK2P-X4WNA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateLicenseKey(tc.key); err == nil {
				t.Errorf("Expected error for key %q, got nil", tc.key)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("owner@bistro.example"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	for _, bad := range []string{"", "not-an-email", "two@@example.com", "@example.com"} {
		if err := ValidateEmail(bad); err == nil {
			t.Errorf("Expected error for %q, got nil", bad)
		}
	}
}
