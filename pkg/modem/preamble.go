package modem

const DefaultPreambleLength = 256

// PreambleConfig describes the synchronization pattern sent before every packet.
// The bits come from a maximal-length 8-bit Galois LFSR (x^8+x^6+x^5+x^4+1), so both
// ends derive the same pattern from Length and Seed.
type PreambleConfig struct {
	Length int
	Seed   uint8 // 0 means 1; the all-zero state never leaves zero
}

func (p PreambleConfig) New() []bool {
	length := p.Length
	if length == 0 {
		length = DefaultPreambleLength
	}
	state := p.Seed
	if state == 0 {
		state = 1
	}
	preamble := make([]bool, length)
	for i := range preamble {
		lsb := state & 1
		preamble[i] = lsb == 1
		state >>= 1
		if lsb == 1 {
			state ^= 0xB8
		}
	}
	return preamble
}

// Matcher finds a bit pattern in a stream using the KMP failure function, so a
// mismatch falls back to the longest border instead of restarting from zero.
type Matcher struct {
	pattern []bool
	failure []int
	k       int
}

func NewMatcher(pattern []bool) *Matcher {
	failure := make([]int, len(pattern))
	k := 0
	for i := 1; i < len(pattern); i++ {
		for k > 0 && pattern[i] != pattern[k] {
			k = failure[k-1]
		}
		if pattern[i] == pattern[k] {
			k++
		}
		failure[i] = k
	}
	return &Matcher{pattern: pattern, failure: failure}
}

// Push feeds one bit and reports whether the last len(pattern) bits equal the pattern.
// After a match the matcher starts over from an empty state.
func (m *Matcher) Push(bit bool) bool {
	if len(m.pattern) == 0 {
		return true
	}
	for m.k > 0 && bit != m.pattern[m.k] {
		m.k = m.failure[m.k-1]
	}
	if bit == m.pattern[m.k] {
		m.k++
	}
	if m.k == len(m.pattern) {
		m.k = 0
		return true
	}
	return false
}

// Progress is the length of the pattern prefix matched so far.
func (m *Matcher) Progress() int {
	return m.k
}

func (m *Matcher) Reset() {
	m.k = 0
}

func (m *Matcher) Len() int {
	return len(m.pattern)
}
