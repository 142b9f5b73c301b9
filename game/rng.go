package game

// Rand yields uniform floats in [0, 1).
type Rand interface {
	Float64() float64
}

// xorshift is the game's persisted random stream. Its state lives in
// GameState.RNG so a transaction body replays identically on retry.
type xorshift struct {
	state *uint64
}

func newRand(state *uint64) *xorshift {
	if *state == 0 {
		*state = 0x9E3779B97F4A7C15
	}
	return &xorshift{state: state}
}

func (x *xorshift) next() uint64 {
	s := *x.state
	s ^= s << 13
	s ^= s >> 7
	s ^= s << 17
	*x.state = s
	return s
}

// Float64 returns the top 53 bits of the next state scaled into [0, 1).
func (x *xorshift) Float64() float64 {
	return float64(x.next()>>11) / (1 << 53)
}

// intn returns a value in [0, n) drawn from rng.
func intn(rng Rand, n int) int {
	if n <= 1 {
		return 0
	}
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
