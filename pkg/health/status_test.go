package health

import (
	"testing"
	"time"
)

func TestStatusIsStale(t *testing.T) {
	fresh := &Status{LastProbe: time.Now()}
	if fresh.IsStale(time.Minute) {
		t.Error("fresh state should not be stale")
	}

	old := &Status{LastProbe: time.Now().Add(-2 * time.Minute)}
	if !old.IsStale(time.Minute) {
		t.Error("state older than maxAge should be stale")
	}
}

func TestStatusIsDegraded(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{
			name:   "healthy fast probe is not degraded",
			status: Status{Healthy: true, Latency: 100 * time.Millisecond},
			want:   false,
		},
		{
			name:   "one failure is degraded",
			status: Status{Healthy: false, ConsecutiveFailures: 1},
			want:   true,
		},
		{
			name:   "slow but successful probe is degraded",
			status: Status{Healthy: true, Latency: 3 * time.Second},
			want:   true,
		},
		{
			name:   "unhealthy state is not merely degraded",
			status: Status{Healthy: false, ConsecutiveFailures: 3},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsDegraded(); got != tt.want {
				t.Errorf("IsDegraded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusIsUnhealthy(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		want     bool
	}{
		{"no failures", 0, false},
		{"below threshold", 2, false},
		{"at threshold", 3, true},
		{"above threshold", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Status{ConsecutiveFailures: tt.failures}
			if got := s.IsUnhealthy(); got != tt.want {
				t.Errorf("IsUnhealthy() with %d failures = %v, want %v", tt.failures, got, tt.want)
			}
		})
	}
}
