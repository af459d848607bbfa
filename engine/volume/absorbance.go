package volume

import (
	"math"

	"github.com/Carmen-Shannon/oxy-ct/common"
	"github.com/Carmen-Shannon/oxy-ct/engine/scan"
	"github.com/cogentcore/webgpu/wgpu"
)

// MinIntensity is the smallest transmitted intensity fed to the logarithm. It is one step of a
// 16-bit detector, so fully opaque pixels get a large but finite absorbance.
const MinIntensity = 1.0 / 65535.0

// Absorbance returns -ln(s) with s clamped into [MinIntensity, 1].
func Absorbance(s float32) float32 {
	c := min(max(float64(s), MinIntensity), 1)
	return float32(-math.Log(c))
}

// NormalizeAbsorbance converts every image of the stack to absorbance and divides by the
// largest absorbance found anywhere in the stack. The result is layer-major, one layer per
// image, each layer row-major. A stack without any absorbance normalizes to all zeros.
func NormalizeAbsorbance(images []scan.Image) []float32 {
	total := 0
	for _, im := range images {
		total += len(im.Pix)
	}
	out := make([]float32, 0, total)

	var peak float32
	for _, im := range images {
		for _, s := range im.Pix {
			a := Absorbance(s)
			peak = max(peak, a)
			out = append(out, a)
		}
	}
	if peak == 0 {
		return out
	}
	for i := range out {
		out[i] /= peak
	}
	return out
}

// TextureStagingData packs the normalized absorbance of a scan into one R32Float texture with a
// layer per projection.
func TextureStagingData(s *scan.Scan) common.TextureStagingData {
	w, h := s.Dimensions()
	return common.TextureStagingData{
		Pixels:        common.Float32sToBytes(NormalizeAbsorbance(s.Images)),
		Width:         uint32(w),
		Height:        uint32(h),
		Layers:        uint32(s.Count()),
		Format:        wgpu.TextureFormatR32Float,
		BytesPerTexel: 4,
	}
}
