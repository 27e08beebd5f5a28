package soundscape

import (
	"math"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrLengthMismatch is returned when the two channel buffers differ in length.
var ErrLengthMismatch = errors.New("left and right channels differ in length")

// ErrInvalidSampleRate is returned for non-positive sample rates.
var ErrInvalidSampleRate = errors.New("sample rate must be positive")

// Generate fills left and right with the soundscape id. The output depends
// only on the buffers' length, sampleRate and the state of rng; every sample
// lies in [-1, 1].
func Generate(id ID, left, right []float64, sampleRate int, rng *rand.Rand) error {
	if len(left) != len(right) {
		return ErrLengthMismatch
	}
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	switch id {
	case Rain:
		rain(left, right, rng)
	case Ocean:
		ocean(left, right, sampleRate, rng)
	case Forest:
		forest(left, right, sampleRate, rng)
	case CoffeeShop:
		coffeeShop(left, right, sampleRate, rng)
	case BrownNoise:
		brown(left, right, rng)
	case PinkNoise:
		pink(left, right, rng)
	default:
		return errors.Wrapf(ErrUnknown, "id %d", int(id))
	}
	return nil
}

// Render allocates and fills a stereo buffer of the given duration using a
// random source seeded with seed.
func Render(id ID, d time.Duration, sampleRate int, seed int64) (left, right []float64, err error) {
	if sampleRate <= 0 {
		return nil, nil, ErrInvalidSampleRate
	}
	n := Frames(d, sampleRate)
	left = make([]float64, n)
	right = make([]float64, n)

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec
	if err := Generate(id, left, right, sampleRate, rng); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// Frames converts a duration to a frame count at sampleRate.
func Frames(d time.Duration, sampleRate int) int {
	if d <= 0 {
		return 0
	}
	return int(d.Seconds() * float64(sampleRate))
}

// white returns uniform noise in [-1, 1).
func white(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

// jitter scales v by a random factor in [1-spread, 1+spread).
func jitter(rng *rand.Rand, v, spread float64) float64 {
	return v * (1 - spread + rng.Float64()*2*spread)
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// rain is low-level white noise with probability-gated spikes. Each channel
// gets its own amplitude jitter.
func rain(left, right []float64, rng *rand.Rand) {
	const (
		level      = 0.1
		spikeGain  = 3.0
		spikeAbove = 0.97
	)
	for i := range left {
		s := white(rng) * level
		if rng.Float64() > spikeAbove {
			s *= spikeGain
		}
		left[i] = clamp(s)
		right[i] = clamp(jitter(rng, s, 0.1))
	}
}

// ocean sums two slow sines at a 1:1.7 ratio over light noise.
func ocean(left, right []float64, sampleRate int, rng *rand.Rand) {
	const (
		swell = 0.3 // Hz
		ratio = 1.7
		gain  = 0.4
	)
	for i := range left {
		t := float64(i) / float64(sampleRate)
		w1 := math.Sin(2*math.Pi*swell*t) * 0.3
		w2 := math.Sin(2*math.Pi*swell*ratio*t) * 0.2
		noise := white(rng) * 0.05
		s := (w1 + w2 + noise) * gain
		left[i] = clamp(s)
		right[i] = clamp(jitter(rng, s, 0.05))
	}
}

// forest is a near-silent noise floor with rare short chirps. A chirp is a
// rising sine under a half-sine envelope; the right channel is decorrelated
// by a wide random gain.
func forest(left, right []float64, sampleRate int, rng *rand.Rand) {
	const (
		floor       = 0.025
		chirpLevel  = 0.1
		chirpChance = 0.00005
		chirpLen    = 60 * time.Millisecond
		chirpSweep  = 1.25
	)
	chirpFrames := Frames(chirpLen, sampleRate)
	if chirpFrames < 1 {
		chirpFrames = 1
	}

	var (
		remaining int
		freq      float64
		phase     float64
	)
	for i := range left {
		s := white(rng) * floor

		if remaining == 0 && rng.Float64() < chirpChance {
			remaining = chirpFrames
			freq = 800 + rng.Float64()*400
			phase = 0
		}
		if remaining > 0 {
			pos := float64(chirpFrames-remaining) / float64(chirpFrames)
			f := freq * (1 + (chirpSweep-1)*pos)
			phase += 2 * math.Pi * f / float64(sampleRate)
			s += math.Sin(phase) * math.Sin(math.Pi*pos) * chirpLevel
			remaining--
		}

		left[i] = clamp(s)
		right[i] = clamp(jitter(rng, s, 0.2))
	}
}

// coffeeShop layers a murmur, a wandering 50-150 Hz rumble tone and rare
// decaying mid-frequency bursts.
func coffeeShop(left, right []float64, sampleRate int, rng *rand.Rand) {
	const (
		murmur      = 0.015
		rumbleLevel = 0.02
		burstLevel  = 0.05
		burstChance = 0.0001
		burstLen    = 30 * time.Millisecond
	)
	burstFrames := Frames(burstLen, sampleRate)
	if burstFrames < 1 {
		burstFrames = 1
	}

	var (
		rumbleFreq  = 50 + rng.Float64()*100
		rumblePhase float64
		remaining   int
		burstFreq   float64
		burstPhase  float64
	)
	for i := range left {
		s := white(rng) * murmur

		rumbleFreq += white(rng) * 0.05
		rumbleFreq = math.Max(50, math.Min(150, rumbleFreq))
		rumblePhase += 2 * math.Pi * rumbleFreq / float64(sampleRate)
		s += math.Sin(rumblePhase) * rumbleLevel

		if remaining == 0 && rng.Float64() < burstChance {
			remaining = burstFrames
			burstFreq = 300 + rng.Float64()*500
			burstPhase = 0
		}
		if remaining > 0 {
			env := float64(remaining) / float64(burstFrames)
			burstPhase += 2 * math.Pi * burstFreq / float64(sampleRate)
			s += math.Sin(burstPhase) * env * burstLevel
			remaining--
		}

		left[i] = clamp(s)
		right[i] = clamp(jitter(rng, s, 0.1))
	}
}

// brown integrates white noise with a leaky integrator,
// out[i] = (out[i-1] + k*white[i]) / (1+k).
func brown(left, right []float64, rng *rand.Rand) {
	const (
		k      = 0.02
		makeup = 3.5
	)
	var last float64
	for i := range left {
		last = (last + k*white(rng)) / (1 + k)
		s := clamp(last * makeup)
		left[i] = s
		right[i] = s
	}
}

// pink filters white noise through Paul Kellet's multi-pole approximation.
func pink(left, right []float64, rng *rand.Rand) {
	var b0, b1, b2, b3, b4, b5, b6 float64
	for i := range left {
		w := rng.Float64() - 0.5
		b0 = 0.99886*b0 + w*0.0555179
		b1 = 0.99332*b1 + w*0.0750759
		b2 = 0.96900*b2 + w*0.1538520
		b3 = 0.86650*b3 + w*0.3104856
		b4 = 0.55000*b4 + w*0.5329522
		b5 = -0.7616*b5 - w*0.0168980
		s := (b0 + b1 + b2 + b3 + b4 + b5 + b6 + w*0.5362) * 0.11
		b6 = w * 0.115926
		s = clamp(s)
		left[i] = s
		right[i] = s
	}
}
