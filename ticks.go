package jetres

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks labels round values with as many digits as the axis span
// requires, so that narrow residual windows keep distinct labels.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	n := t.NSuggestedTicks
	if n < 2 {
		n = 4
	}
	if !(max > min) {
		return nil
	}

	mult, major := majorStep(max-min, n)
	tol := major * 1e-9
	start := math.Floor(min/major+1e-9) * major
	end := start
	var ticks []plot.Tick
	for i := 0; ; i++ {
		v := start + float64(i)*major
		if v > max+tol {
			break
		}
		end = v
		if v < min-tol {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v})
	}
	digits := int(math.Ceil(math.Log10(math.Abs(end)+major)) - math.Floor(math.Log10(major)))
	for i := range ticks {
		v := round(ticks[i].Value, digits)
		ticks[i] = plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'g', -1, 64)}
	}

	minor := minorStep(mult, major)
	first := math.Floor(min/minor+1e-9) * minor
	for i := 0; ; i++ {
		v := first + float64(i)*minor
		if v > max+tol {
			break
		}
		if v < min-tol || hasTick(ticks, v, minor/1e3) {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v})
	}
	return ticks
}

// majorStep picks a step of mult times a power of ten giving at most n
// labelled ticks across span.
func majorStep(span float64, n int) (int, float64) {
	tens := math.Pow10(int(math.Floor(math.Log10(span))))
	for span/tens < float64(n-1) {
		tens /= 10
	}
	mult := int(span / tens / float64(n-1))
	switch mult {
	case 7:
		mult = 6
	case 9:
		mult = 8
	}
	if mult < 1 {
		mult = 1
	}
	return mult, float64(mult) * tens
}

func minorStep(mult int, major float64) float64 {
	switch mult {
	case 3, 6:
		return major / 3
	case 5:
		return major / 5
	}
	return major / 2
}

func hasTick(ticks []plot.Tick, v, tol float64) bool {
	for _, t := range ticks {
		if math.Abs(t.Value-v) < tol {
			return true
		}
	}
	return false
}

func round(x float64, digits int) float64 {
	if x == 0 {
		// no negative zero
		return 0
	}
	if digits >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(digits)
	scaled := x * pow
	if math.IsInf(scaled, 0) {
		return x
	}
	if x < 0 {
		scaled = math.Ceil(scaled - 0.5)
	} else {
		scaled = math.Floor(scaled + 0.5)
	}
	if scaled == 0 {
		return 0
	}
	return scaled / pow
}
