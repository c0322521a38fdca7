package model

import (
	"encoding/json"
	"fmt"
)

// Action defines the kind of decision an agent takes for one hour.
type Action int

const (
	ActionChargeBattery Action = iota
	ActionRequestEnergy
	ActionShareEnergy
	ActionSellToGrid
)

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionChargeBattery:
		return "charge_battery"
	case ActionRequestEnergy:
		return "request_energy"
	case ActionShareEnergy:
		return "share_energy"
	case ActionSellToGrid:
		return "sell_to_grid"
	default:
		return "unknown"
	}
}

// MarshalText encodes the action by name so JSON payloads stay readable.
func (a Action) MarshalText() ([]byte, error) {
	s := a.String()
	if s == "unknown" {
		return nil, fmt.Errorf("unknown action %d", int(a))
	}
	return []byte(s), nil
}

// UnmarshalText parses an action name.
func (a *Action) UnmarshalText(b []byte) error {
	switch string(b) {
	case "charge_battery":
		*a = ActionChargeBattery
	case "request_energy":
		*a = ActionRequestEnergy
	case "share_energy":
		*a = ActionShareEnergy
	case "sell_to_grid":
		*a = ActionSellToGrid
	default:
		return fmt.Errorf("unknown action %q", string(b))
	}
	return nil
}

// Decision is the single outcome of an agent for one hour.
// Target is only meaningful for ActionShareEnergy.
type Decision struct {
	Action Action
	Amount float64
	Target int
}

type decisionJSON struct {
	Action Action  `json:"action"`
	Amount float64 `json:"amount"`
	Target *int    `json:"target,omitempty"`
}

// MarshalJSON writes the target for shares only, including agent 0.
func (d Decision) MarshalJSON() ([]byte, error) {
	w := decisionJSON{Action: d.Action, Amount: d.Amount}
	if d.Action == ActionShareEnergy {
		w.Target = &d.Target
	}
	return json.Marshal(w)
}

// UnmarshalJSON requires a target on share decisions.
func (d *Decision) UnmarshalJSON(b []byte) error {
	var w decisionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Action == ActionShareEnergy && w.Target == nil {
		return fmt.Errorf("share_energy decision without target: %w", ErrInvalidArgument)
	}
	*d = Decision{Action: w.Action, Amount: w.Amount}
	if w.Action == ActionShareEnergy {
		d.Target = *w.Target
	}
	return nil
}

// Charge returns a charge_battery decision.
func Charge(amount float64) Decision {
	return Decision{Action: ActionChargeBattery, Amount: amount}
}

// Request returns a request_energy decision.
func Request(amount float64) Decision {
	return Decision{Action: ActionRequestEnergy, Amount: amount}
}

// Share returns a share_energy decision towards target.
func Share(target int, amount float64) Decision {
	return Decision{Action: ActionShareEnergy, Target: target, Amount: amount}
}

// Sell returns a sell_to_grid decision.
func Sell(amount float64) Decision {
	return Decision{Action: ActionSellToGrid, Amount: amount}
}

func (d Decision) String() string {
	if d.Action == ActionShareEnergy {
		return fmt.Sprintf("%s{target:%d amount:%.3f}", d.Action, d.Target, d.Amount)
	}
	return fmt.Sprintf("%s{amount:%.3f}", d.Action, d.Amount)
}
