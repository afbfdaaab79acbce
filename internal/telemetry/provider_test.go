package telemetry_test

import (
	"context"
	"testing"

	"github.com/koscakluka/ema-narrator/internal/telemetry"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv(telemetry.EndpointEnv, "")
	t.Setenv(telemetry.EnabledEnv, "")

	shutdown, err := telemetry.Setup(context.Background(), "narrator-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupNoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv(telemetry.EndpointEnv, "http://localhost:4318")
	t.Setenv(telemetry.EnabledEnv, "FALSE")

	shutdown, err := telemetry.Setup(context.Background(), "narrator-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	t.Setenv(telemetry.EndpointEnv, "http://192.0.2.1:4318")
	t.Setenv(telemetry.EnabledEnv, "")

	shutdown, err := telemetry.Setup(context.Background(), "narrator-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
