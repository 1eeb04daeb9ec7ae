package modem

import (
	"math"
	"reflect"
	"testing"
)

// emit synthesizes one buffer per bit the way the duplex driver does, keeping the
// phase across buffers.
func emit(tones ToneTable, bits []bool, size int) [][]float32 {
	phase := 0
	buffers := make([][]float32, 0, len(bits))
	for _, bit := range bits {
		buf := make([]float32, size)
		for i := range buf {
			buf[i] = tones.Sample(SymbolOf(bit), phase)
			phase = (phase + 1) % tones.Len()
		}
		buffers = append(buffers, buf)
	}
	return buffers
}

func TestDemodulators(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		size       int
		freqs      [2]float64
	}{
		{"orthogonal tones", 10000, 100, [2]float64{1000, 2000}},
		{"default link tones", 10000, 256, [2]float64{440, 560}},
		{"high rate", 48000, 512, [2]float64{1200, 2200}},
	}

	bits := bitsOf("0110100111000101101011110000010011")

	for _, tt := range tests {
		tones := ToneConfig{SampleRate: tt.sampleRate, Size: int(tt.sampleRate), Freqs: tt.freqs[:]}.New()
		buffers := emit(tones, bits, tt.size)

		for _, kind := range []string{DemodulatorThreshold, DemodulatorSpectral} {
			t.Run(tt.name+"/"+kind, func(t *testing.T) {
				demod, err := DemodulatorConfig{Kind: kind, SampleRate: tt.sampleRate, Freqs: tt.freqs}.New()
				if err != nil {
					t.Fatal(err)
				}
				var out []bool
				for _, buf := range buffers {
					out = demod.Demodulate(buf, out)
				}
				if !reflect.DeepEqual(out, bits) {
					t.Errorf("expected %v, got %v", bits, out)
				}
			})
		}
	}
}

func TestSpectralSlidingWindow(t *testing.T) {
	const SIZE = 128
	freqs := [2]float64{1000, 2500}
	tones := ToneConfig{SampleRate: 16000, Size: 16000, Freqs: freqs[:]}.New()
	buffers := emit(tones, bitsOf("0011"), SIZE)

	demod := &SpectralDemodulator{SampleRate: 16000, Freqs: freqs, WindowSize: 2 * SIZE}

	if out := demod.Demodulate(buffers[0], nil); len(out) != 0 {
		t.Fatalf("expected no bit before the window is full, got %v", out)
	}
	if out := demod.Demodulate(buffers[1], nil); !reflect.DeepEqual(out, []bool{false}) {
		t.Errorf("expected tone A, got %v", out)
	}
	demod.Demodulate(buffers[2], nil)
	if out := demod.Demodulate(buffers[3], nil); !reflect.DeepEqual(out, []bool{true}) {
		t.Errorf("expected tone B, got %v", out)
	}

	demod.Reset()
	if out := demod.Demodulate(buffers[3], nil); len(out) != 0 {
		t.Errorf("expected no bit after reset, got %v", out)
	}
}

func TestThresholdRatio(t *testing.T) {
	freqs := [2]float64{1000, 2000}
	tones := ToneConfig{SampleRate: 10000, Size: 10000, Freqs: freqs[:]}.New()
	buf := emit(tones, []bool{true}, 100)[0]

	demod := &ThresholdDemodulator{SampleRate: 10000, Freqs: freqs}
	e0, e1 := demod.Energies(buf)
	if e1 <= e0 {
		t.Fatalf("expected tone B to dominate, got e0=%f e1=%f", e0, e1)
	}

	// no energy ratio can clear an infinite threshold
	demod.Threshold = math.Inf(1)
	if out := demod.Demodulate(buf, nil); !reflect.DeepEqual(out, []bool{false}) {
		t.Errorf("expected the threshold to reject the tone, got %v", out)
	}
}

func TestUnknownDemodulator(t *testing.T) {
	if _, err := (DemodulatorConfig{Kind: "psk"}).New(); err == nil {
		t.Error("expected an error for an unknown demodulator")
	}
}

func TestSpectralSingleSampleWindow(t *testing.T) {
	for _, w := range hann(1) {
		if math.IsNaN(w) {
			t.Fatal("expected a finite window")
		}
	}
	demod := &SpectralDemodulator{SampleRate: 10000, Freqs: [2]float64{1000, 2000}, WindowSize: 1}
	if out := demod.Demodulate([]float32{0.5}, nil); len(out) != 1 {
		t.Errorf("expected one bit, got %v", out)
	}

	if _, err := (DemodulatorConfig{Kind: DemodulatorSpectral, WindowSize: -1}).New(); err == nil {
		t.Error("expected an error for a negative window")
	}
}

func TestConvert(t *testing.T) {
	src := []float32{0, 1, -1, 0.5, 2}
	ints := make([]int32, len(src))
	Float32ToInt32(ints, src)
	if ints[1] != 0x7fffffff || ints[4] != 0x7fffffff || ints[2] != -0x7fffffff {
		t.Errorf("unexpected conversion %v", ints)
	}
	back := make([]float32, len(ints))
	Int32ToFloat32(back, ints)
	if back[3] < 0.4999 || back[3] > 0.5001 {
		t.Errorf("expected 0.5, got %f", back[3])
	}
}
