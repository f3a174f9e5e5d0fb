// Package reservation wires the pure engine to the store and the
// notification dispatcher: every operation is one snapshot read, one engine
// decision, and one compare-and-update write. Events are dispatched only
// after the write sticks, so a lost optimistic race never notifies.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"laundry-reservation-backend/config"
	"laundry-reservation-backend/internal/clock"
	"laundry-reservation-backend/internal/engine"
	"laundry-reservation-backend/internal/notify"
	"laundry-reservation-backend/internal/store"
)

// ErrUnknownMachine is returned for machine names not present in the
// configuration.
var ErrUnknownMachine = errors.New("unknown machine")

// Service coordinates reservation state for the configured machines.
type Service struct {
	rules      engine.Rules
	machines   []string
	interval   time.Duration
	store      store.Store
	clock      clock.Clock
	dispatcher notify.Dispatcher
}

// NewService creates the reservation service.
func NewService(cfg *config.Config, st store.Store, clk clock.Clock, dispatcher notify.Dispatcher) *Service {
	return &Service{
		rules: engine.Rules{
			MasterPIN:   cfg.Reservation.MasterPIN,
			ClaimWindow: cfg.Reservation.ClaimWindow,
			ExtendStep:  cfg.Reservation.ExtendStep,
		},
		machines:   cfg.Machines,
		interval:   cfg.Reservation.PollInterval,
		store:      st,
		clock:      clk,
		dispatcher: dispatcher,
	}
}

// Machines returns the configured machine names in display order.
func (s *Service) Machines() []string {
	return s.machines
}

// Known reports whether the machine name is configured.
func (s *Service) Known(machine string) bool {
	for _, m := range s.machines {
		if m == machine {
			return true
		}
	}
	return false
}

// MachineStatus is the reconciled view of one machine.
type MachineStatus struct {
	Record engine.Record
	Status engine.Status
}

// Status returns the machine's reconciled record and derived status. Expiry
// cleanup detected here is persisted via compare-and-update; when another
// reader wins that race, the fresh record is used instead.
func (s *Service) Status(ctx context.Context, machine string) (MachineStatus, error) {
	if !s.Known(machine) {
		return MachineStatus{}, fmt.Errorf("%w: %q", ErrUnknownMachine, machine)
	}

	now := s.clock.Now()
	rec, err := s.store.Get(ctx, machine)
	if err != nil {
		return MachineStatus{}, err
	}

	recon, ev, changed := s.rules.Reconcile(rec, now)
	if changed {
		switch err := s.store.Save(ctx, recon); {
		case err == nil:
			s.dispatch(ev)
		case errors.Is(err, store.ErrConflict):
			// Another reader performed the cleanup (and owns the
			// notification). Re-read their result.
			rec, err = s.store.Get(ctx, machine)
			if err != nil {
				return MachineStatus{}, err
			}
			recon, _, _ = s.rules.Reconcile(rec, now)
		default:
			return MachineStatus{}, err
		}
	}

	return MachineStatus{
		Record: recon,
		Status: s.rules.DeriveStatus(recon, now),
	}, nil
}

// StatusAll returns the reconciled status of every configured machine.
func (s *Service) StatusAll(ctx context.Context) ([]MachineStatus, error) {
	out := make([]MachineStatus, 0, len(s.machines))
	for _, m := range s.machines {
		st, err := s.Status(ctx, m)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Start claims the machine for the submitted holder.
func (s *Service) Start(ctx context.Context, machine string, in engine.StartInput) error {
	return s.mutate(ctx, machine, func(rec engine.Record, now time.Time) (engine.Record, *engine.Event, error) {
		return s.rules.Start(rec, in, now)
	})
}

// Extend adds the configured step to the occupant's session.
func (s *Service) Extend(ctx context.Context, machine, pin string) error {
	return s.mutate(ctx, machine, func(rec engine.Record, now time.Time) (engine.Record, *engine.Event, error) {
		return s.rules.Extend(rec, pin, now)
	})
}

// Finish ends the occupant's session early.
func (s *Service) Finish(ctx context.Context, machine, pin string) error {
	return s.mutate(ctx, machine, func(rec engine.Record, now time.Time) (engine.Record, *engine.Event, error) {
		return s.rules.Finish(rec, pin, now)
	})
}

// Join appends a waiter to the machine's queue via the store's atomic append
// so concurrent joins never overwrite each other.
func (s *Service) Join(ctx context.Context, machine string, in engine.JoinInput) error {
	if !s.Known(machine) {
		return fmt.Errorf("%w: %q", ErrUnknownMachine, machine)
	}

	w, err := s.rules.ValidateJoin(in, s.clock.Now())
	if err != nil {
		return err
	}

	stored, err := s.store.AppendWaiter(ctx, machine, w)
	if err != nil {
		return err
	}
	s.dispatch(s.rules.JoinEvent(machine, stored))
	return nil
}

// Swap exchanges the waiters at index and index+1.
func (s *Service) Swap(ctx context.Context, machine string, index int, pin string) error {
	return s.mutate(ctx, machine, func(rec engine.Record, now time.Time) (engine.Record, *engine.Event, error) {
		out, err := s.rules.Swap(rec, index, pin)
		return out, nil, err
	})
}

// Leave removes the waiter at index.
func (s *Service) Leave(ctx context.Context, machine string, index int, pin string) error {
	return s.mutate(ctx, machine, func(rec engine.Record, now time.Time) (engine.Record, *engine.Event, error) {
		out, err := s.rules.Leave(rec, index, pin)
		return out, nil, err
	})
}

// Skip drops a queue head whose claim window has lapsed.
func (s *Service) Skip(ctx context.Context, machine string) error {
	return s.mutate(ctx, machine, func(rec engine.Record, now time.Time) (engine.Record, *engine.Event, error) {
		return s.rules.Skip(rec, now)
	})
}

// mutate runs one read-decide-write round: snapshot, lazy-expiry reconcile,
// the operation itself, then a single compare-and-update covering both. A
// stale snapshot surfaces as store.ErrConflict for the caller to retry with
// fresh data.
func (s *Service) mutate(ctx context.Context, machine string, op func(engine.Record, time.Time) (engine.Record, *engine.Event, error)) error {
	if !s.Known(machine) {
		return fmt.Errorf("%w: %q", ErrUnknownMachine, machine)
	}

	now := s.clock.Now()
	rec, err := s.store.Get(ctx, machine)
	if err != nil {
		return err
	}

	recon, reconEv, _ := s.rules.Reconcile(rec, now)
	out, ev, err := op(recon, now)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, out); err != nil {
		return err
	}

	s.dispatch(reconEv)
	s.dispatch(ev)
	return nil
}

func (s *Service) dispatch(ev *engine.Event) {
	if ev == nil || s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(*ev)
}

// Run drives the periodic tick that detects session expiry even when nobody
// is looking at the board.
func (s *Service) Run(ctx context.Context) {
	log.Println("Starting reservation poll loop...")

	s.TickOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reservation poll loop shutting down.")
			return
		case <-timer.C:
			s.TickOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// TickOnce reconciles every machine once. Conflicts are left for the next
// tick; some other actor already moved the record forward.
func (s *Service) TickOnce(ctx context.Context) {
	for _, machine := range s.machines {
		if _, err := s.Status(ctx, machine); err != nil {
			log.Printf("tick: failed to reconcile %s: %v", machine, err)
		}
	}
}
