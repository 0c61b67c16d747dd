package model

// Interval is one discretized slot of the planning horizon with its energy price.
type Interval struct {
	Index      int `json:"Index"`
	Start      int `json:"Start"`
	End        int `json:"End"`
	EnergyCost int `json:"EnergyCost"`
}

// Length returns End-Start.
func (i Interval) Length() int { return i.End - i.Start }
