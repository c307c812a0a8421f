package engine

import (
	"errors"
	"fmt"
)

// Validation errors are rejected synchronously to the caller and never
// mutate state. Timer-driven turn closes are not errors.
var (
	ErrOutOfTurn         = errors.New("team is not on the clock")
	ErrPlayerUnavailable = errors.New("player already drafted")
	ErrInvalidBid        = errors.New("invalid bid")
	ErrInvalidPhase      = errors.New("invalid phase transition")
	ErrQueueExhausted    = errors.New("queue exhausted")
	ErrNoNomination      = errors.New("no open nomination")
	ErrNominationOpen    = errors.New("nomination already open")
	ErrDraftComplete     = errors.New("draft already complete")
	ErrNoPlayersLeft     = errors.New("no undrafted players remain")
)

// ErrInvalidBid refinements. All satisfy errors.Is(err, ErrInvalidBid).
var (
	ErrBidTooLow       = fmt.Errorf("%w: not above current high bid", ErrInvalidBid)
	ErrBidOverBudget   = fmt.Errorf("%w: exceeds reserve-adjusted budget", ErrInvalidBid)
	ErrBidWindowClosed = fmt.Errorf("%w: bid window closed", ErrInvalidBid)
)
