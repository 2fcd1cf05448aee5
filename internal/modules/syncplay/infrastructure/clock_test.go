package infrastructure

import (
	"testing"
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

var localEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// exchange simulates one time sync round trip against a server whose clock
// runs offset ahead, with the given one-way delay and server processing time.
func exchange(offset, delay, processing time.Duration) (sent, serverReceived, serverSent, received time.Time) {
	sent = localEpoch
	serverReceived = sent.Add(delay).Add(offset)
	serverSent = serverReceived.Add(processing)
	received = sent.Add(2*delay + processing)
	return sent, serverReceived, serverSent, received
}

func TestOffsetClock_Observe(t *testing.T) {
	clock := NewOffsetClock()

	if got := clock.LocalToGroup(localEpoch); !got.Equal(localEpoch) {
		t.Fatalf("expected zero offset before any measurement, got %v", got.Sub(localEpoch))
	}

	clock.Observe(exchange(500*time.Millisecond, 10*time.Millisecond, 5*time.Millisecond))

	offset, rtt := clock.Offset()
	if offset != 500*time.Millisecond {
		t.Errorf("expected offset 500ms, got %v", offset)
	}
	if rtt != 20*time.Millisecond {
		t.Errorf("expected rtt 20ms, got %v", rtt)
	}

	if got := clock.LocalToGroup(localEpoch); !got.Equal(localEpoch.Add(500 * time.Millisecond)) {
		t.Errorf("expected group time 500ms ahead, got %v", got.Sub(localEpoch))
	}
	if got := clock.GroupToLocal(localEpoch.Add(500 * time.Millisecond)); !got.Equal(localEpoch) {
		t.Errorf("expected round trip to local time, got %v", got.Sub(localEpoch))
	}
}

func TestOffsetClock_DiscardsSlowMeasurements(t *testing.T) {
	tests := []struct {
		name       string
		offset     time.Duration
		delay      time.Duration
		wantOffset time.Duration
	}{
		{
			name:       "round trip more than twice as slow",
			offset:     900 * time.Millisecond,
			delay:      50 * time.Millisecond,
			wantOffset: 500 * time.Millisecond,
		},
		{
			name:       "comparable round trip",
			offset:     450 * time.Millisecond,
			delay:      15 * time.Millisecond,
			wantOffset: 450 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewOffsetClock()
			clock.Observe(exchange(500*time.Millisecond, 10*time.Millisecond, 0))

			clock.Observe(exchange(tt.offset, tt.delay, 0))

			if offset, _ := clock.Offset(); offset != tt.wantOffset {
				t.Errorf("expected offset %v, got %v", tt.wantOffset, offset)
			}
		})
	}
}

func TestLinearEstimator_EstimatePositionNow(t *testing.T) {
	clock := NewOffsetClock()
	clock.Observe(exchange(2*time.Second, 0, 0))

	estimator := NewLinearEstimator(clock)
	estimator.now = func() time.Time { return localEpoch }
	groupNow := localEpoch.Add(2 * time.Second)

	lastKnown := domain.Ticks(30 * domain.TicksPerSecond)

	tests := []struct {
		name string
		asOf time.Time
		want domain.Ticks
	}{
		{
			name: "advances by elapsed group time",
			asOf: groupNow.Add(-1500 * time.Millisecond),
			want: lastKnown + domain.TicksFromDuration(1500*time.Millisecond),
		},
		{
			name: "position asserted for the future",
			asOf: groupNow.Add(time.Second),
			want: lastKnown,
		},
		{
			name: "unknown anchor time",
			want: lastKnown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimator.EstimatePositionNow(lastKnown, tt.asOf); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
