package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parking-billing/internal/billing"
	"parking-billing/internal/logging"
	"parking-billing/internal/parking"
	"parking-billing/internal/telemetry"
)

// Choice is a menu entry.
type Choice int

const (
	ShowAvailable Choice = iota + 1
	Reserve
	FreeAndBill
	BillOnly
	AdminView
	Exit
)

const menu = "\n1. View Available Slots\n2. Reserve a Slot\n3. Free a Slot\n4. Generate Bill\n5. Admin Panel\n6. Exit\nEnter your choice: "

// Shell drives the interactive parking menu. All dispatch happens on the
// goroutine calling Run.
type Shell struct {
	lot     *parking.InstrumentedParkingLot
	billing *billing.Billing
	in      *Input
	out     io.Writer
	tracer  trace.Tracer

	ok   func(a ...interface{}) string
	fail func(a ...interface{}) string
}

func New(lot *parking.InstrumentedParkingLot, b *billing.Billing, in *Input, out io.Writer, tp *telemetry.Provider) *Shell {
	return &Shell{
		lot:     lot,
		billing: b,
		in:      in,
		out:     out,
		tracer:  tp.Tracer(),
		ok:      color.New(color.FgGreen).SprintFunc(),
		fail:    color.New(color.FgRed).SprintFunc(),
	}
}

// Run loops until Exit is chosen, input ends, or ctx is cancelled. End of
// input is a clean exit.
func (s *Shell) Run(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")
	defer span.AddEvent("shell_ended")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		word, err := s.in.Word(menu)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			span.RecordError(err)
			return err
		}

		choice, convErr := strconv.Atoi(word)
		if convErr != nil {
			choice = 0
		}

		cmdCtx, cmdSpan := s.tracer.Start(ctx, "shell.process_choice",
			trace.WithAttributes(attribute.String("choice.input", word)))
		done, err := s.dispatch(cmdCtx, Choice(choice))
		cmdSpan.End()

		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		if done {
			return nil
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, choice Choice) (bool, error) {
	switch choice {
	case ShowAvailable:
		s.handleShowAvailable(ctx)
	case Reserve:
		return false, s.handleReserve(ctx)
	case FreeAndBill:
		return false, s.handleFreeAndBill(ctx)
	case BillOnly:
		return false, s.handleBillOnly(ctx)
	case AdminView:
		s.handleAdminView(ctx)
	case Exit:
		fmt.Fprintln(s.out, "Exiting...")
		return true, nil
	default:
		fmt.Fprintln(s.out, s.fail("Invalid choice, try again."))
	}
	return false, nil
}

func (s *Shell) handleShowAvailable(ctx context.Context) {
	ids := s.lot.AvailableSlotIDs(ctx)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	fmt.Fprintf(s.out, "Available Slots: %s\n", strings.Join(parts, " "))
}

func (s *Shell) handleReserve(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "shell.reserve")
	defer span.End()

	if len(s.lot.AvailableSlotIDs(ctx)) == 0 {
		span.AddEvent("no_capacity")
		fmt.Fprintln(s.out, s.fail("No available slots."))
		return nil
	}

	vehicleID, err := s.in.Word("Enter Vehicle Number: ")
	if err != nil {
		return err
	}

	slotID, err := s.lot.Reserve(ctx, vehicleID)
	if err != nil {
		s.report(ctx, err)
		return nil
	}

	fmt.Fprintln(s.out, s.ok(fmt.Sprintf("Slot %d reserved for vehicle %s.", slotID, vehicleID)))
	return nil
}

func (s *Shell) handleFreeAndBill(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "shell.free_and_bill")
	defer span.End()

	slotID, ok, err := s.occupiedSlot(ctx, "Enter Slot ID to free: ", "Slot %d is already free.")
	if err != nil || !ok {
		return err
	}

	s.bill(ctx, slotID)

	if err := s.lot.Free(ctx, slotID); err != nil {
		s.report(ctx, err)
		return nil
	}
	fmt.Fprintln(s.out, s.ok(fmt.Sprintf("Slot %d is now free.", slotID)))
	return nil
}

func (s *Shell) handleBillOnly(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "shell.bill_only")
	defer span.End()

	slotID, ok, err := s.occupiedSlot(ctx, "Enter Slot ID to generate bill for: ", "Slot %d is free and has no active bill.")
	if err != nil || !ok {
		return err
	}

	s.bill(ctx, slotID)
	return nil
}

func (s *Shell) handleAdminView(ctx context.Context) {
	stats := s.lot.Stats(ctx)
	fmt.Fprintf(s.out, "Total Slots: %d | Occupied: %d | Available: %d\n", stats.Total, stats.Occupied, stats.Available)
}

// occupiedSlot prompts for a slot id and reports why it cannot be billed.
// ok is false when the caller should stop without an error.
func (s *Shell) occupiedSlot(ctx context.Context, prompt, freeMsg string) (int, bool, error) {
	slotID, err := s.in.Int(prompt)
	if errors.Is(err, ErrNotANumber) {
		fmt.Fprintln(s.out, s.fail("Invalid slot ID."))
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	slot, err := s.lot.Slot(slotID)
	if err != nil {
		s.report(ctx, err)
		return 0, false, nil
	}
	if !slot.Occupied {
		fmt.Fprintln(s.out, s.fail(fmt.Sprintf(freeMsg, slotID)))
		return 0, false, nil
	}
	return slotID, true, nil
}

func (s *Shell) bill(ctx context.Context, slotID int) {
	if _, err := s.billing.GenerateBill(ctx, slotID, s.lot); err != nil {
		s.report(ctx, err)
	}
}

// report turns a domain error into a user-facing message.
func (s *Shell) report(ctx context.Context, err error) {
	var msg string
	switch {
	case errors.Is(err, parking.ErrOutOfRange):
		msg = fmt.Sprintf("Invalid slot ID. Valid range is 1-%d.", s.lot.Capacity())
	case errors.Is(err, parking.ErrNoCapacity):
		msg = "No available slots."
	case errors.Is(err, parking.ErrSlotAlreadyFree):
		msg = "Slot is already free."
	case errors.Is(err, billing.ErrNoActiveEntry):
		msg = "No entry record found for this slot."
	case errors.Is(err, billing.ErrLogWrite):
		msg = fmt.Sprintf("Error writing bill record: %v", err)
	default:
		msg = fmt.Sprintf("Error: %v", err)
	}

	logging.Warn(ctx).Err(err).Msg("menu action failed")
	fmt.Fprintln(s.out, s.fail(msg))
}
