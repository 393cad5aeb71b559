package mesher

import (
	"fmt"
	"math"

	"github.com/chazu/hexablock/pkg/topology"
	"gonum.org/v1/gonum/floats/scalar"
)

// geometricUnitTol is how close to 1 a geometric ratio may get before the
// law is evaluated as uniform.
const geometricUnitTol = 1e-12

// Position returns the parametric position in (0, 1) of interior node i of
// nbNodes under law. Positions increase strictly with i.
func Position(i int, law *topology.Law, nbNodes int) (float64, error) {
	if nbNodes < 0 || i < 0 || i >= nbNodes {
		return 0, fmt.Errorf("mesher: law %q: node %d out of range [0, %d)", law.Name, i, nbNodes)
	}
	n := float64(nbNodes)
	k := float64(i)
	c := law.Coefficient

	switch law.Kind {
	case topology.Uniform:
		return (k + 1) / (n + 1), nil

	case topology.Arithmetic:
		u0 := 1/(n+1) - c*n/2
		if u0 <= 0 || u0+c*n <= 0 {
			return 0, fmt.Errorf("mesher: law %q: arithmetic coefficient %g with %d nodes: %w",
				law.Name, c, nbNodes, ErrInvalidCoefficient)
		}
		return (k+1)*u0 + c*k*(k+1)/2, nil

	case topology.Geometric:
		if c <= 0 || math.IsInf(c, 0) || math.IsNaN(c) {
			return 0, fmt.Errorf("mesher: law %q: geometric coefficient %g: %w", law.Name, c, ErrInvalidCoefficient)
		}
		if scalar.EqualWithinAbs(c, 1, geometricUnitTol) {
			return (k + 1) / (n + 1), nil
		}
		u0 := (1 - c) / (1 - math.Pow(c, n+1))
		if u0 <= 0 {
			return 0, fmt.Errorf("mesher: law %q: geometric coefficient %g with %d nodes: %w",
				law.Name, c, nbNodes, ErrInvalidCoefficient)
		}
		return u0 * (1 - math.Pow(c, k+1)) / (1 - c), nil

	default:
		return 0, fmt.Errorf("mesher: law %q: unknown kind %d: %w", law.Name, int(law.Kind), ErrInvalidCoefficient)
	}
}

// Positions evaluates every interior node position of law.
func Positions(law *topology.Law) ([]float64, error) {
	if law.Nodes < 0 {
		return nil, fmt.Errorf("mesher: law %q: negative node count %d: %w", law.Name, law.Nodes, ErrInvalidCoefficient)
	}
	us := make([]float64, law.Nodes)
	for i := range us {
		u, err := Position(i, law, law.Nodes)
		if err != nil {
			return nil, err
		}
		us[i] = u
	}
	return us, nil
}
