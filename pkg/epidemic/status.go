package epidemic

// Status is the health state of a citizen.
// Transitions only go forward: Healthy -> Infected -> Recovered.
type Status int8

const (
	Healthy Status = iota
	Infected
	Recovered
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "Healthy"
	case Infected:
		return "Infected"
	case Recovered:
		return "Recovered"
	default:
		return "Unknown"
	}
}

// Counts tallies a population by status.
type Counts struct {
	Healthy   int `json:"healthy"`
	Infected  int `json:"infected"`
	Recovered int `json:"recovered"`
}

// Total returns the population size the counts were taken from.
func (c Counts) Total() int {
	return c.Healthy + c.Infected + c.Recovered
}

func (c *Counts) add(s Status) {
	switch s {
	case Healthy:
		c.Healthy++
	case Infected:
		c.Infected++
	case Recovered:
		c.Recovered++
	}
}

// CountStatuses tallies a status vector.
func CountStatuses(statuses []Status) Counts {
	var c Counts
	for _, s := range statuses {
		c.add(s)
	}
	return c
}
