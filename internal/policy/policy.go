package policy

import (
	"math"
	"math/rand"
	"sync"
)

// Action is a tutoring decision produced by the policy head. The numeric
// order matches the output layer of the network and must not change.
type Action int

const (
	IncreaseDifficulty Action = iota
	DecreaseDifficulty
	MaintainDifficulty
	ProvideHint
	NoHint
)

func (a Action) String() string {
	switch a {
	case IncreaseDifficulty:
		return "increase_difficulty"
	case DecreaseDifficulty:
		return "decrease_difficulty"
	case MaintainDifficulty:
		return "maintain_difficulty"
	case ProvideHint:
		return "provide_hint"
	case NoHint:
		return "no_hint"
	default:
		return "unknown"
	}
}

const (
	// StateDim is the size of the performance feature vector.
	StateDim = 5
	// ActionDim is the number of tutoring actions.
	ActionDim = 5

	hiddenDim    = 64
	gamma        = 0.99
	learningRate = 0.001
	normEpsilon  = 1e-8
)

// State is the fixed-shape performance feature vector:
// [accuracy, normalized response time, normalized streak, difficulty, improvement rate].
type State [StateDim]float64

// Step is one decision recorded for a later policy update.
type Step struct {
	State   State
	Action  Action
	LogProb float64
	Reward  float64
}

// Network is an actor-critic decision maker. SelectAction is safe to call
// concurrently; Update takes exclusive ownership of the parameters for the
// duration of one gradient step.
type Network struct {
	mu     sync.RWMutex
	policy mlp
	value  mlp

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewNetwork(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	return &Network{
		policy: newMLP(rng, StateDim, hiddenDim, ActionDim),
		value:  newMLP(rng, StateDim, hiddenDim, 1),
		rng:    rng,
	}
}

// SelectAction samples one action from the categorical distribution produced
// by the policy head and returns it with the sampled action's log probability
// and the value head's estimate for the same state. Parameters are not
// mutated.
func (n *Network) SelectAction(state State) (Action, float64, float64) {
	n.mu.RLock()
	probs := softmax(n.policy.forward(state[:]).output())
	value := n.value.forward(state[:]).output()[0]
	n.mu.RUnlock()

	n.rngMu.Lock()
	sample := n.rng.Float64()
	n.rngMu.Unlock()

	action := ActionDim - 1
	cum := 0.0
	for i, p := range probs {
		cum += p
		if sample < cum {
			action = i
			break
		}
	}
	return Action(action), math.Log(probs[action] + normEpsilon), value
}

// ActionProbs returns the current policy distribution for a state. Read-only.
func (n *Network) ActionProbs(state State) [ActionDim]float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var out [ActionDim]float64
	copy(out[:], softmax(n.policy.forward(state[:]).output()))
	return out
}

// Update applies exactly one gradient-descent step from one episode's
// trajectory. Returns the scalar loss. An empty trajectory is a no-op: no
// error, no parameter change.
func (n *Network) Update(trajectory []Step) float64 {
	if len(trajectory) == 0 {
		return 0
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	// Discounted returns, computed in reverse time order.
	returns := make([]float64, len(trajectory))
	r := 0.0
	for i := len(trajectory) - 1; i >= 0; i-- {
		r = trajectory[i].Reward + gamma*r
		returns[i] = r
	}
	normalize(returns)

	nSteps := float64(len(trajectory))
	policyGrads := n.policy.zeroGrads()
	valueGrads := n.value.zeroGrads()

	loss := 0.0
	for i, step := range trajectory {
		pAct := n.policy.forward(step.State[:])
		vAct := n.value.forward(step.State[:])

		probs := softmax(pAct.output())
		value := vAct.output()[0]
		advantage := returns[i] - value

		loss += -step.LogProb*advantage/nSteps + 0.5*advantage*advantage/nSteps

		// Policy head: d(-mean(logprob*advantage_detached))/dlogits.
		dLogits := make([]float64, ActionDim)
		for k := range dLogits {
			indicator := 0.0
			if k == int(step.Action) {
				indicator = 1.0
			}
			dLogits[k] = (advantage / nSteps) * (probs[k] - indicator)
		}
		n.policy.backward(pAct, dLogits, policyGrads)

		// Value head: d(0.5*mean(advantage^2))/dvalue = -advantage/N.
		n.value.backward(vAct, []float64{-advantage / nSteps}, valueGrads)
	}

	n.policy.step(policyGrads, learningRate)
	n.value.step(valueGrads, learningRate)
	return loss
}

func normalize(xs []float64) {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	std := 0.0
	if len(xs) > 1 {
		std = math.Sqrt(variance / float64(len(xs)-1))
	}
	for i := range xs {
		xs[i] = (xs[i] - mean) / (std + normEpsilon)
	}
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
