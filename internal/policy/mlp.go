package policy

import (
	"math"
	"math/rand"
)

// mlp is a three-layer perceptron with rectifier activations after the two
// hidden layers and raw logits at the output.
type mlp struct {
	layers [3]linear
}

type linear struct {
	w [][]float64 // [out][in]
	b []float64
}

// activations caches one forward pass for backpropagation.
type activations struct {
	input  []float64
	pre    [3][]float64 // pre-activation per layer
	hidden [2][]float64 // post-rectifier outputs of the hidden layers
}

func (a activations) output() []float64 { return a.pre[2] }

// grads mirrors the parameter layout of an mlp.
type grads struct {
	w [3][][]float64
	b [3][]float64
}

func newMLP(rng *rand.Rand, in, hidden, out int) mlp {
	return mlp{layers: [3]linear{
		newLinear(rng, in, hidden),
		newLinear(rng, hidden, hidden),
		newLinear(rng, hidden, out),
	}}
}

func newLinear(rng *rand.Rand, in, out int) linear {
	scale := math.Sqrt(2.0 / float64(in))
	w := make([][]float64, out)
	for i := range w {
		w[i] = make([]float64, in)
		for j := range w[i] {
			w[i][j] = rng.NormFloat64() * scale
		}
	}
	return linear{w: w, b: make([]float64, out)}
}

func (l linear) apply(x []float64) []float64 {
	out := make([]float64, len(l.w))
	for i, row := range l.w {
		sum := l.b[i]
		for j, wij := range row {
			sum += wij * x[j]
		}
		out[i] = sum
	}
	return out
}

func (m *mlp) forward(x []float64) activations {
	var act activations
	act.input = x

	act.pre[0] = m.layers[0].apply(x)
	act.hidden[0] = rectify(act.pre[0])
	act.pre[1] = m.layers[1].apply(act.hidden[0])
	act.hidden[1] = rectify(act.pre[1])
	act.pre[2] = m.layers[2].apply(act.hidden[1])
	return act
}

// backward accumulates parameter gradients given the gradient of the loss
// with respect to the output logits.
func (m *mlp) backward(act activations, dOut []float64, g *grads) {
	d := dOut
	inputs := [3][]float64{act.input, act.hidden[0], act.hidden[1]}

	for layer := 2; layer >= 0; layer-- {
		in := inputs[layer]
		for i, di := range d {
			g.b[layer][i] += di
			for j, inj := range in {
				g.w[layer][i][j] += di * inj
			}
		}
		if layer == 0 {
			break
		}

		// Propagate through the layer and its preceding rectifier.
		prev := make([]float64, len(in))
		for i, di := range d {
			for j, wij := range m.layers[layer].w[i] {
				prev[j] += di * wij
			}
		}
		for j := range prev {
			if act.pre[layer-1][j] <= 0 {
				prev[j] = 0
			}
		}
		d = prev
	}
}

func (m *mlp) zeroGrads() *grads {
	g := &grads{}
	for layer, l := range m.layers {
		g.w[layer] = make([][]float64, len(l.w))
		for i := range l.w {
			g.w[layer][i] = make([]float64, len(l.w[i]))
		}
		g.b[layer] = make([]float64, len(l.b))
	}
	return g
}

func (m *mlp) step(g *grads, lr float64) {
	for layer := range m.layers {
		for i := range m.layers[layer].w {
			for j := range m.layers[layer].w[i] {
				m.layers[layer].w[i][j] -= lr * g.w[layer][i][j]
			}
			m.layers[layer].b[i] -= lr * g.b[layer][i]
		}
	}
}

// snapshot copies all parameters into a flat slice, used by tests to verify
// no-op updates.
func (m *mlp) snapshot() []float64 {
	var out []float64
	for _, l := range m.layers {
		for _, row := range l.w {
			out = append(out, row...)
		}
		out = append(out, l.b...)
	}
	return out
}

func rectify(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if x > 0 {
			out[i] = x
		}
	}
	return out
}
