package projection

import "math"

func plateCarree(lam, phi float64) (float64, float64) {
	return lam, phi
}

func mercator(lam, phi float64) (float64, float64) {
	return lam, math.Log(math.Tan(math.Pi/4 + phi/2))
}

// robinsonTable holds the Robinson X (parallel length) and Y (parallel
// distance from equator) coefficients at 5° latitude steps.
var robinsonTable = [19][2]float64{
	{1.0000, 0.0000},
	{0.9986, 0.0620},
	{0.9954, 0.1240},
	{0.9900, 0.1860},
	{0.9822, 0.2480},
	{0.9730, 0.3100},
	{0.9600, 0.3720},
	{0.9427, 0.4340},
	{0.9216, 0.4958},
	{0.8962, 0.5571},
	{0.8679, 0.6176},
	{0.8350, 0.6769},
	{0.7986, 0.7346},
	{0.7597, 0.7903},
	{0.7186, 0.8435},
	{0.6732, 0.8936},
	{0.6213, 0.9394},
	{0.5722, 0.9761},
	{0.5322, 1.0000},
}

func robinson(lam, phi float64) (float64, float64) {
	deg := math.Abs(phi) * 180 / math.Pi
	pos := deg / 5
	i := int(math.Floor(pos))
	var xc, yc float64
	if i >= len(robinsonTable)-1 {
		xc, yc = robinsonTable[len(robinsonTable)-1][0], robinsonTable[len(robinsonTable)-1][1]
	} else {
		f := pos - float64(i)
		xc = robinsonTable[i][0] + f*(robinsonTable[i+1][0]-robinsonTable[i][0])
		yc = robinsonTable[i][1] + f*(robinsonTable[i+1][1]-robinsonTable[i][1])
	}
	y := 1.3523 * yc
	if phi < 0 {
		y = -y
	}
	return 0.8487 * xc * lam, y
}

// mollweide solves 2θ + sin 2θ = π sin φ for the auxiliary angle θ with
// Newton's method, stopping once the step drops below 1e-12 rad.
func mollweide(lam, phi float64) (float64, float64) {
	theta := phi
	if math.Abs(math.Abs(phi)-math.Pi/2) > 1e-12 {
		target := math.Pi * math.Sin(phi)
		for range 50 {
			d := (2*theta + math.Sin(2*theta) - target) / (2 + 2*math.Cos(2*theta))
			theta = clamp(theta-d, -math.Pi/2, math.Pi/2)
			if math.Abs(d) < 1e-12 {
				break
			}
		}
	}
	return 2 * math.Sqrt2 / math.Pi * lam * math.Cos(theta), math.Sqrt2 * math.Sin(theta)
}

// Equal Earth polynomial coefficients (Šavrič, Patterson & Jenny 2018).
const (
	eeA1 = 1.340264
	eeA2 = -0.081106
	eeA3 = 0.000893
	eeA4 = 0.003796
)

func equalEarth(lam, phi float64) (float64, float64) {
	m := math.Sqrt(3) / 2
	theta := math.Asin(m * math.Sin(phi))
	t2 := theta * theta
	t6 := t2 * t2 * t2
	x := lam * math.Cos(theta) / (m * (eeA1 + 3*eeA2*t2 + t6*(7*eeA3+9*eeA4*t2)))
	y := theta * (eeA1 + eeA2*t2 + t6*(eeA3+eeA4*t2))
	return x, y
}

// winkelTripel averages equirectangular (standard parallel acos(2/π)) and
// Aitoff.
func winkelTripel(lam, phi float64) (float64, float64) {
	cosPhi1 := 2 / math.Pi
	alpha := math.Acos(math.Cos(phi) * math.Cos(lam/2))
	sinc := 1.0
	if alpha != 0 {
		sinc = math.Sin(alpha) / alpha
	}
	x := 0.5 * (lam*cosPhi1 + 2*math.Cos(phi)*math.Sin(lam/2)/sinc)
	y := 0.5 * (phi + math.Sin(phi)/sinc)
	return x, y
}
