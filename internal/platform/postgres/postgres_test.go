package postgres

import "testing"

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	invalid := cfg
	invalid.MaxIdleConns = invalid.MaxOpenConns + 1
	if err := invalid.Validate(); err == nil {
		t.Fatalf("Validate() expected error when idle conns exceed open conns")
	}

	invalid = cfg
	invalid.URL = ""
	if err := invalid.Validate(); err == nil {
		t.Fatalf("Validate() expected error for empty url")
	}
}
