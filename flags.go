// Package jetres holds the plotting and command-line helpers shared by the
// residual commands.
package jetres

import (
	"fmt"
	"strconv"
	"strings"
)

// FloatList is a flag.Value collecting floats. Values may be given as a
// comma separated list or by repeating the flag. The first Set replaces
// any default.
type FloatList struct {
	Values []float64
	set    bool
}

func (f *FloatList) Set(s string) error {
	if !f.set {
		f.set = true
		f.Values = nil
	}
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
		f.Values = append(f.Values, v)
	}
	return nil
}

func (f *FloatList) String() string {
	if f == nil {
		return "[]"
	}
	return fmt.Sprint(f.Values)
}

// IsSet reports whether the flag appeared on the command line.
func (f *FloatList) IsSet() bool { return f.set }

// Pair returns the two collected values as an ordered interval.
func (f *FloatList) Pair() ([2]float64, error) {
	if len(f.Values) != 2 {
		return [2]float64{}, fmt.Errorf("expected 2 values, got %d", len(f.Values))
	}
	if !(f.Values[1] > f.Values[0]) {
		return [2]float64{}, fmt.Errorf("interval %v is empty", f.Values)
	}
	return [2]float64{f.Values[0], f.Values[1]}, nil
}
