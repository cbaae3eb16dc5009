package market

import "time"

// Tick represents a normalized trade tick.
type Tick struct {
	Ts    time.Time
	Price float64
	Size  float64
}
