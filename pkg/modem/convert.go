package modem

// Int32ToFloat32 converts full-scale int32 samples into [-1, 1] floats.
func Int32ToFloat32(dst []float32, src []int32) {
	for i, v := range src[:min(len(src), len(dst))] {
		dst[i] = float32(float64(v) / 0x7fffffff)
	}
}

// Float32ToInt32 converts [-1, 1] floats into full-scale int32 samples, clipping.
func Float32ToInt32(dst []int32, src []float32) {
	for i, v := range src[:min(len(src), len(dst))] {
		dst[i] = int32(max(-1, min(1, float64(v))) * 0x7fffffff)
	}
}
