package observability

import (
	"context"
	"testing"
	"time"

	"github.com/danmuck/worldsync/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)

	RegisterMetrics()
	RegisterMetrics()

	RecordOp("AddEntity", OutcomeApplied)
	RecordComponentUpdate("observability_test")
	RecordCommandRequest("observability_test")
	RecordCommandResponse("observability_test")
	RecordCommandResult("observability_test", "SUCCESS")
	SetCommandsInFlight("observability_test", 3)
	RecordPhase("reader", 2*time.Millisecond)
	RecordFrame()

	if got := testutil.ToFloat64(updatesSent.WithLabelValues("observability_test")); got != 1 {
		t.Fatalf("updates sent: got %v want 1", got)
	}
	if got := testutil.ToFloat64(commandsInFlight.WithLabelValues("observability_test")); got != 3 {
		t.Fatalf("in flight: got %v want 3", got)
	}
}

func TestSetupTracingWithoutEndpointIsNoop(t *testing.T) {
	testlog.Start(t)

	shutdown, err := SetupTracing(context.Background(), "worldsync-test", "")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if Tracer() == nil {
		t.Fatalf("expected tracer")
	}
}
