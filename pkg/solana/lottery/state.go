package lottery

import (
	"fmt"
	"time"
)

// LotteryState is the lifecycle stage of a lottery. Values only move forward:
// Created, then Started, then Ended. A lottery may also end straight from
// Created.
type LotteryState uint8

const (
	LotteryStateCreated LotteryState = iota
	LotteryStateStarted
	LotteryStateEnded
)

// Valid reports whether s is a state this client knows about. Accounts
// written by a newer program may carry other values.
func (s LotteryState) Valid() bool {
	return s <= LotteryStateEnded
}

func (s LotteryState) String() string {
	switch s {
	case LotteryStateCreated:
		return "created"
	case LotteryStateStarted:
		return "started"
	case LotteryStateEnded:
		return "ended"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// Precedes reports whether next is a legal observation after s. Repeated
// observations of the same state are allowed and intermediate states may be
// missed between polls.
func (s LotteryState) Precedes(next LotteryState) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return s <= next
}

// TicketState is the settlement stage of a ticket: Bought, then Won or
// NotWon, then Claimed. Claimed is terminal.
type TicketState uint8

const (
	TicketStateBought TicketState = iota
	TicketStateWon
	TicketStateNotWon
	TicketStateClaimed
)

func (s TicketState) Valid() bool {
	return s <= TicketStateClaimed
}

func (s TicketState) String() string {
	switch s {
	case TicketStateBought:
		return "bought"
	case TicketStateWon:
		return "won"
	case TicketStateNotWon:
		return "not_won"
	case TicketStateClaimed:
		return "claimed"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

func (s TicketState) rank() int {
	switch s {
	case TicketStateBought:
		return 0
	case TicketStateWon, TicketStateNotWon:
		return 1
	}
	return 2
}

// Precedes reports whether next is a legal observation after s. A ticket
// never switches between Won and NotWon.
func (s TicketState) Precedes(next TicketState) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s.rank() == 1 && next.rank() == 1 {
		return s == next
	}
	return s.rank() <= next.rank()
}

// Countdown is the time left until a lottery's deadline.
type Countdown struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

func newCountdown(remaining time.Duration) Countdown {
	if remaining <= 0 {
		return Countdown{}
	}

	total := int64(remaining / time.Second)
	return Countdown{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

// Done reports whether the deadline has been reached.
func (c Countdown) Done() bool {
	return c == Countdown{}
}

func (c Countdown) String() string {
	if c.Days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", c.Days, c.Hours, c.Minutes, c.Seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}
