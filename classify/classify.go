package classify

import "fmt"

// Band is one named interval. A value belongs to the first band whose Below
// threshold it does not reach; the lower bound is the previous band's Below.
type Band struct {
	Name  string  `yaml:"name" json:"name"`
	Below float64 `yaml:"below" json:"below"`
}

// Bands buckets an acoustic frequency or level into a named band. Values at or
// above the last threshold fall into Above.
type Bands struct {
	Unit  string `yaml:"unit" json:"unit"`
	Bands []Band `yaml:"bands" json:"bands"`
	Above string `yaml:"above" json:"above"`
}

// Classify is total: every x maps to exactly one band name.
func (b Bands) Classify(x float64) string {
	for _, band := range b.Bands {
		if x < band.Below {
			return band.Name
		}
	}
	return b.Above
}

func (b Bands) Validate() error {
	if b.Above == "" {
		return fmt.Errorf("classifier needs a terminal band name")
	}
	for i, band := range b.Bands {
		if band.Name == "" {
			return fmt.Errorf("band %d has no name", i)
		}
		if i > 0 && band.Below <= b.Bands[i-1].Below {
			return fmt.Errorf("band %q threshold %v not above %v", band.Name, band.Below, b.Bands[i-1].Below)
		}
	}
	return nil
}
