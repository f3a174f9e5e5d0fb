package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart(t *testing.T) {
	now := testNow()

	t.Run("valid start on a free machine", func(t *testing.T) {
		rec := Record{Machine: "Washing Machine 1"}
		in := StartInput{Name: "Alice", PIN: "1234", DurationMinutes: 45, Comment: "Heavy load"}

		out, ev, err := testRules.Start(rec, in, now)
		require.NoError(t, err)
		require.NotNil(t, out.Occupant)
		assert.Equal(t, "Alice", out.Occupant.HolderName)
		assert.Equal(t, "1234", out.Occupant.PIN)
		assert.Equal(t, now, out.Occupant.StartAt)
		assert.Equal(t, 45*time.Minute, out.Occupant.EndAt.Sub(out.Occupant.StartAt))
		assert.False(t, out.Occupant.TimeoutAlertSent)
		assert.Nil(t, out.LastFreeAt)

		require.NotNil(t, ev)
		assert.Equal(t, EventStarted, ev.Kind)
		assert.Contains(t, ev.Body, "Alice")
	})

	t.Run("duration bounds are inclusive", func(t *testing.T) {
		for _, minutes := range []int{15, 120} {
			rec := Record{Machine: "Washing Machine 1"}
			out, _, err := testRules.Start(rec, StartInput{Name: "Alice", PIN: "1234", DurationMinutes: minutes}, now)
			require.NoError(t, err)
			assert.Equal(t, time.Duration(minutes)*time.Minute, out.Occupant.EndAt.Sub(out.Occupant.StartAt))
		}
	})

	t.Run("invalid inputs are rejected without mutation", func(t *testing.T) {
		testCases := []struct {
			name string
			in   StartInput
		}{
			{"missing name", StartInput{PIN: "1234", DurationMinutes: 45}},
			{"whitespace name", StartInput{Name: "   ", PIN: "1234", DurationMinutes: 45}},
			{"short pin", StartInput{Name: "Alice", PIN: "123", DurationMinutes: 45}},
			{"alphabetic pin", StartInput{Name: "Alice", PIN: "abcd", DurationMinutes: 45}},
			{"duration too short", StartInput{Name: "Alice", PIN: "1234", DurationMinutes: 14}},
			{"duration too long", StartInput{Name: "Alice", PIN: "1234", DurationMinutes: 121}},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				rec := Record{Machine: "Washing Machine 1"}
				out, ev, err := testRules.Start(rec, tc.in, now)
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Nil(t, out.Occupant)
				assert.Nil(t, ev)
			})
		}
	})

	t.Run("busy machine rejects a second start", func(t *testing.T) {
		rec := busyRecord(now, 30*time.Minute)
		_, _, err := testRules.Start(rec, StartInput{Name: "Dave", PIN: "9999", DurationMinutes: 30}, now)
		assert.ErrorIs(t, err, ErrMachineBusy)
	})

	t.Run("queue head claims under a case-insensitive name match", func(t *testing.T) {
		rec := Record{
			Machine: "Washing Machine 1",
			Queue:   []Waiter{waiter("Bob", "1111"), waiter("Carol", "2222")},
		}

		out, _, err := testRules.Start(rec, StartInput{Name: "  bob ", PIN: "4321", DurationMinutes: 30}, now)
		require.NoError(t, err)
		require.NotNil(t, out.Occupant)
		assert.Equal(t, "bob", out.Occupant.HolderName)
		require.Len(t, out.Queue, 1)
		assert.Equal(t, "Carol", out.Queue[0].Name)
	})

	t.Run("non-head start is rejected with no state change", func(t *testing.T) {
		rec := Record{
			Machine: "Washing Machine 1",
			Queue:   []Waiter{waiter("Bob", "1111")},
		}

		out, ev, err := testRules.Start(rec, StartInput{Name: "Dave", PIN: "4321", DurationMinutes: 30}, now)
		assert.ErrorIs(t, err, ErrNotYourTurn)
		assert.Nil(t, out.Occupant)
		assert.Len(t, out.Queue, 1)
		assert.Nil(t, ev)
	})
}

func TestExtend(t *testing.T) {
	now := testNow()

	t.Run("own pin pushes the end time forward and re-arms the alert", func(t *testing.T) {
		rec := busyRecord(now, 10*time.Minute)
		rec.Occupant.TimeoutAlertSent = true
		originalEnd := rec.Occupant.EndAt

		out, ev, err := testRules.Extend(rec, "1234", now)
		require.NoError(t, err)
		assert.Equal(t, originalEnd.Add(15*time.Minute), out.Occupant.EndAt)
		assert.False(t, out.Occupant.TimeoutAlertSent)

		require.NotNil(t, ev)
		assert.Equal(t, EventExtended, ev.Kind)
	})

	t.Run("master pin bypasses the holder pin", func(t *testing.T) {
		rec := busyRecord(now, 10*time.Minute)
		_, _, err := testRules.Extend(rec, "0000", now)
		assert.NoError(t, err)
	})

	t.Run("wrong pin is rejected without mutation", func(t *testing.T) {
		rec := busyRecord(now, 10*time.Minute)
		originalEnd := rec.Occupant.EndAt

		out, ev, err := testRules.Extend(rec, "9999", now)
		assert.ErrorIs(t, err, ErrWrongCredential)
		assert.Equal(t, originalEnd, out.Occupant.EndAt)
		assert.Nil(t, ev)
	})

	t.Run("no occupant means nothing to extend", func(t *testing.T) {
		_, _, err := testRules.Extend(Record{Machine: "Dryer 1"}, "0000", now)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestFinish(t *testing.T) {
	now := testNow()

	t.Run("wrong pin rejected, master pin accepted", func(t *testing.T) {
		rec := busyRecord(now, 30*time.Minute, waiter("Bob", "1111"))

		out, ev, err := testRules.Finish(rec, "9999", now)
		assert.ErrorIs(t, err, ErrWrongCredential)
		assert.NotNil(t, out.Occupant, "occupant must survive a rejected finish")
		assert.Nil(t, ev)

		out, ev, err = testRules.Finish(rec, "0000", now)
		require.NoError(t, err)
		assert.Nil(t, out.Occupant)
		require.NotNil(t, out.LastFreeAt)
		assert.True(t, out.LastFreeAt.Equal(now), "early finish anchors the window at now, not the planned end")

		require.NotNil(t, ev)
		assert.Equal(t, EventFinishedEarly, ev.Kind)
		assert.Contains(t, ev.Body, "Bob")
	})

	t.Run("holder pin accepted", func(t *testing.T) {
		rec := busyRecord(now, 30*time.Minute)
		out, _, err := testRules.Finish(rec, "1234", now)
		require.NoError(t, err)
		assert.Nil(t, out.Occupant)
	})
}

func TestValidateJoin(t *testing.T) {
	now := testNow()

	t.Run("valid join builds a tail entry", func(t *testing.T) {
		w, err := testRules.ValidateJoin(JoinInput{Name: " Bob ", PIN: "1111"}, now)
		require.NoError(t, err)
		assert.Equal(t, "Bob", w.Name)
		assert.Equal(t, now, w.JoinedAt)
	})

	t.Run("urgent without a reason is rejected", func(t *testing.T) {
		_, err := testRules.ValidateJoin(JoinInput{Name: "Bob", PIN: "1111", Urgent: true}, now)
		assert.ErrorIs(t, err, ErrInvalidInput)

		w, err := testRules.ValidateJoin(JoinInput{Name: "Bob", PIN: "1111", Urgent: true, UrgentReason: "night shift"}, now)
		require.NoError(t, err)
		assert.True(t, w.Urgent)
	})

	t.Run("malformed pin is rejected", func(t *testing.T) {
		_, err := testRules.ValidateJoin(JoinInput{Name: "Bob", PIN: "11x1"}, now)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestSwap(t *testing.T) {
	rec := Record{
		Machine: "Washing Machine 1",
		Queue:   []Waiter{waiter("Bob", "1111"), waiter("Carol", "2222"), waiter("Dave", "3333")},
	}

	t.Run("swap is its own inverse", func(t *testing.T) {
		once, err := testRules.Swap(rec, 0, "1111")
		require.NoError(t, err)
		assert.Equal(t, []string{"Carol", "Bob", "Dave"}, queueNames(once))

		// Bob is now at index 1; his PIN authorises passing again... but
		// the inverse swap is driven by Carol letting Bob back ahead.
		twice, err := testRules.Swap(once, 0, "2222")
		require.NoError(t, err)
		assert.Equal(t, queueNames(rec), queueNames(twice))
	})

	t.Run("requires the pin of the waiter letting the next one pass", func(t *testing.T) {
		_, err := testRules.Swap(rec, 0, "2222")
		assert.ErrorIs(t, err, ErrWrongCredential)

		_, err = testRules.Swap(rec, 0, "0000")
		assert.NoError(t, err, "master pin must satisfy the check")
	})

	t.Run("no swap at the tail", func(t *testing.T) {
		_, err := testRules.Swap(rec, 2, "3333")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestLeave(t *testing.T) {
	rec := Record{
		Machine: "Washing Machine 1",
		Queue:   []Waiter{waiter("Bob", "1111"), waiter("Carol", "2222")},
	}

	t.Run("own pin removes the entry", func(t *testing.T) {
		out, err := testRules.Leave(rec, 1, "2222")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bob"}, queueNames(out))
	})

	t.Run("wrong pin is rejected", func(t *testing.T) {
		_, err := testRules.Leave(rec, 1, "1111")
		assert.ErrorIs(t, err, ErrWrongCredential)
	})

	t.Run("out of range index", func(t *testing.T) {
		_, err := testRules.Leave(rec, 2, "0000")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestSkip(t *testing.T) {
	now := testNow()
	expired := now.Add(-16 * time.Minute)
	open := now.Add(-10 * time.Minute)

	t.Run("expired head is skipped and the window re-armed", func(t *testing.T) {
		rec := Record{
			Machine:    "Washing Machine 1",
			Queue:      []Waiter{waiter("Bob", "1111"), waiter("Carol", "2222")},
			LastFreeAt: &expired,
		}

		out, ev, err := testRules.Skip(rec, now)
		require.NoError(t, err)
		assert.Equal(t, []string{"Carol"}, queueNames(out))
		require.NotNil(t, out.LastFreeAt)
		assert.True(t, out.LastFreeAt.Equal(now), "skip restarts the claim window for the new head")

		require.NotNil(t, ev)
		assert.Equal(t, EventSkipped, ev.Kind)
		assert.Contains(t, ev.Body, "Bob")
		assert.Contains(t, ev.Body, "Carol")

		st := testRules.DeriveStatus(out, now)
		assert.Equal(t, PhaseClaimWindowOpen, st.Phase)
		assert.Equal(t, "Carol", st.NextUp)
	})

	t.Run("open window cannot be skipped", func(t *testing.T) {
		rec := Record{
			Machine:    "Washing Machine 1",
			Queue:      []Waiter{waiter("Bob", "1111"), waiter("Carol", "2222")},
			LastFreeAt: &open,
		}
		_, _, err := testRules.Skip(rec, now)
		assert.ErrorIs(t, err, ErrSkipNotAllowed)
	})

	t.Run("lone waiter cannot be skipped", func(t *testing.T) {
		rec := Record{
			Machine:    "Washing Machine 1",
			Queue:      []Waiter{waiter("Bob", "1111")},
			LastFreeAt: &expired,
		}
		_, _, err := testRules.Skip(rec, now)
		assert.ErrorIs(t, err, ErrSkipNotAllowed)
	})
}

func queueNames(rec Record) []string {
	names := make([]string, len(rec.Queue))
	for i, w := range rec.Queue {
		names[i] = w.Name
	}
	return names
}
