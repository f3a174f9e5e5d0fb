package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRules = Rules{
	MasterPIN:   "0000",
	ClaimWindow: 15 * time.Minute,
	ExtendStep:  15 * time.Minute,
}

func testNow() time.Time {
	return time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
}

func busyRecord(now time.Time, remaining time.Duration, queue ...Waiter) Record {
	return Record{
		Machine: "Washing Machine 1",
		Occupant: &Session{
			HolderName: "Alice",
			PIN:        "1234",
			StartAt:    now.Add(remaining - 45*time.Minute),
			EndAt:      now.Add(remaining),
		},
		Queue: queue,
	}
}

func waiter(name, pin string) Waiter {
	return Waiter{ID: name, Name: name, PIN: pin, JoinedAt: testNow()}
}

func TestDeriveStatus(t *testing.T) {
	now := testNow()
	freeAt := now.Add(-10 * time.Minute)
	expiredAt := now.Add(-16 * time.Minute)

	testCases := []struct {
		name string
		rec  Record
		want Status
	}{
		{
			name: "empty record is available with no claim window",
			rec:  Record{Machine: "Dryer 1"},
			want: Status{Machine: "Dryer 1", Phase: PhaseAvailable},
		},
		{
			name: "running session is busy with remaining minutes",
			rec:  busyRecord(now, 45*time.Minute),
			want: Status{
				Machine:          "Washing Machine 1",
				Phase:            PhaseBusy,
				Holder:           "Alice",
				RemainingMinutes: 45,
			},
		},
		{
			name: "expired session with no queue is available",
			rec:  busyRecord(now, -time.Minute),
			want: Status{Machine: "Washing Machine 1", Phase: PhaseAvailable},
		},
		{
			name: "queue with open claim window",
			rec: Record{
				Machine:    "Washing Machine 1",
				Queue:      []Waiter{waiter("Bob", "1111")},
				LastFreeAt: &freeAt,
			},
			want: Status{
				Machine:               "Washing Machine 1",
				Phase:                 PhaseClaimWindowOpen,
				NextUp:                "Bob",
				ClaimRemainingMinutes: 5,
				QueueLength:           1,
			},
		},
		{
			name: "queue with lapsed claim window",
			rec: Record{
				Machine:    "Washing Machine 1",
				Queue:      []Waiter{waiter("Bob", "1111"), waiter("Carol", "2222")},
				LastFreeAt: &expiredAt,
			},
			want: Status{
				Machine:     "Washing Machine 1",
				Phase:       PhaseClaimExpired,
				NextUp:      "Bob",
				QueueLength: 2,
			},
		},
		{
			name: "expired occupant anchors the window when last_free_at is unset",
			rec:  busyRecord(now, -10*time.Minute, waiter("Bob", "1111")),
			want: Status{
				Machine:               "Washing Machine 1",
				Phase:                 PhaseClaimWindowOpen,
				NextUp:                "Bob",
				ClaimRemainingMinutes: 5,
				QueueLength:           1,
			},
		},
		{
			name: "queue without any free anchor is plain available",
			rec: Record{
				Machine: "Washing Machine 1",
				Queue:   []Waiter{waiter("Bob", "1111")},
			},
			want: Status{
				Machine:     "Washing Machine 1",
				Phase:       PhaseAvailable,
				QueueLength: 1,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := testRules.DeriveStatus(tc.rec, now)

			assert.Equal(t, tc.want.Machine, got.Machine)
			assert.Equal(t, tc.want.Phase, got.Phase)
			assert.Equal(t, tc.want.Holder, got.Holder)
			assert.Equal(t, tc.want.RemainingMinutes, got.RemainingMinutes)
			assert.Equal(t, tc.want.NextUp, got.NextUp)
			assert.Equal(t, tc.want.ClaimRemainingMinutes, got.ClaimRemainingMinutes)
			assert.Equal(t, tc.want.QueueLength, got.QueueLength)
		})
	}
}

func TestDeriveStatusIsIdempotent(t *testing.T) {
	now := testNow()
	rec := busyRecord(now, -5*time.Minute, waiter("Bob", "1111"))

	first := testRules.DeriveStatus(rec, now)
	second := testRules.DeriveStatus(rec, now)
	assert.Equal(t, first, second)
}

func TestReconcile(t *testing.T) {
	now := testNow()

	t.Run("running session is untouched", func(t *testing.T) {
		rec := busyRecord(now, 30*time.Minute)
		out, ev, changed := testRules.Reconcile(rec, now)
		assert.False(t, changed)
		assert.Nil(t, ev)
		assert.Equal(t, rec, out)
	})

	t.Run("expired session is cleared with a one-shot event", func(t *testing.T) {
		rec := busyRecord(now, -5*time.Minute, waiter("Bob", "1111"))
		endAt := rec.Occupant.EndAt

		out, ev, changed := testRules.Reconcile(rec, now)
		assert.True(t, changed)
		assert.Nil(t, out.Occupant)
		require.NotNil(t, out.LastFreeAt)
		assert.True(t, out.LastFreeAt.Equal(endAt), "last_free_at should anchor to the session end")

		require.NotNil(t, ev)
		assert.Equal(t, EventCycleFinished, ev.Kind)
		assert.Contains(t, ev.Body, "Alice")
		assert.Contains(t, ev.Body, "Bob")
	})

	t.Run("already-alerted session is cleared silently", func(t *testing.T) {
		rec := busyRecord(now, -5*time.Minute)
		rec.Occupant.TimeoutAlertSent = true

		out, ev, changed := testRules.Reconcile(rec, now)
		assert.True(t, changed)
		assert.Nil(t, out.Occupant)
		assert.Nil(t, ev, "notification must not fire twice for one expiry")
	})

	t.Run("does not mutate the input snapshot", func(t *testing.T) {
		rec := busyRecord(now, -5*time.Minute)
		_, _, _ = testRules.Reconcile(rec, now)
		assert.NotNil(t, rec.Occupant)
	})
}
