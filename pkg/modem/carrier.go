package modem

import "math"

// Symbol identifies one of the fixed tones of the link.
type Symbol uint8

const (
	Symbol0 Symbol = iota // bit 0, tone A
	Symbol1               // bit 1, tone B
)

func SymbolOf(bit bool) Symbol {
	if bit {
		return Symbol1
	}
	return Symbol0
}

func (s Symbol) Bit() bool {
	return s == Symbol1
}

type ToneConfig struct {
	SampleRate float64   // R
	Size       int       // T, number of samples per table
	Freqs      []float64 // one frequency per symbol
	Amplitude  float64   // 0 means full scale
}

// ToneTable holds one sampled waveform per symbol. It is read-only after New.
type ToneTable struct {
	tables [][]float32
	size   int
}

func (p ToneConfig) New() ToneTable {
	amplitude := p.Amplitude
	if amplitude == 0 {
		amplitude = 1
	}
	tables := make([][]float32, len(p.Freqs))
	for s, freq := range p.Freqs {
		signal := make([]float32, p.Size)
		for i := 0; i < p.Size; i++ {
			t := float64(i) / p.SampleRate
			v := amplitude * math.Sin(2*math.Pi*freq*t)
			signal[i] = float32(max(-1, min(1, v)))
		}
		tables[s] = signal
	}
	return ToneTable{tables: tables, size: p.Size}
}

// Len returns T.
func (t ToneTable) Len() int {
	return t.size
}

func (t ToneTable) Symbols() int {
	return len(t.tables)
}

// Wave returns the waveform of a symbol. Callers must not modify it.
func (t ToneTable) Wave(s Symbol) []float32 {
	return t.tables[s]
}

// Sample reads the waveform of s at phase, wrapping modulo T.
func (t ToneTable) Sample(s Symbol, phase int) float32 {
	return t.tables[s][phase%t.size]
}
