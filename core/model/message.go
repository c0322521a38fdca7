package model

// Message is the status an agent broadcasts to the swarm once per hour.
type Message struct {
	SenderID        int     `json:"from"`
	BatteryFraction float64 `json:"battery"` // battery level / capacity, in [0,1]
	Excess          float64 `json:"excess"`
	Needs           float64 `json:"needs"`
	Hour            int     `json:"hour"`
}

// AgentSnapshot is a read-only copy of an agent's state.
type AgentSnapshot struct {
	ID                int       `json:"id"`
	BatteryLevel      float64   `json:"battery_level"`
	BatteryCapacity   float64   `json:"battery_capacity"`
	Production        float64   `json:"production"`
	Consumption       float64   `json:"consumption"`
	NeighborIDs       []int     `json:"neighbors"`
	ProductionFactor  float64   `json:"production_factor"`
	ConsumptionFactor float64   `json:"consumption_factor"`
	Failed            bool      `json:"failed"`
	LastDecision      *Decision `json:"last_decision,omitempty"`
}

// Status returns "surplus" when the agent produces more than it consumes and
// "deficit" otherwise.
func (s AgentSnapshot) Status() string {
	if s.Production > s.Consumption {
		return "surplus"
	}
	return "deficit"
}
