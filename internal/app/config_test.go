package app

import "testing"

func TestGetRequiredEnvPresent(t *testing.T) {
	t.Setenv("CVMATCH_TEST_REQUIRED", "value")
	if got := GetRequiredEnv("CVMATCH_TEST_REQUIRED"); got != "value" {
		t.Errorf("GetRequiredEnv = %q, want value", got)
	}
}

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("CVMATCH_TEST_SET", "explicit")
	if got := GetEnvWithDefault("CVMATCH_TEST_SET", "fallback"); got != "explicit" {
		t.Errorf("GetEnvWithDefault = %q, want explicit", got)
	}
	if got := GetEnvWithDefault("CVMATCH_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnvWithDefault = %q, want fallback", got)
	}
}
