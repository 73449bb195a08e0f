// Package quality implements the pre-extraction image quality gate. It is a
// pure function over pixel data: a bad or undecodable image produces a failed
// report, never an error, so the pipeline can treat rejection as a first-class
// outcome rather than a fault.
package quality

import (
	"bytes"
	"image"
	"math"
	"sort"

	_ "image/jpeg"
	_ "image/png"

	"invox/internal/domain"
)

const (
	ReasonBlurry      = "blurry"
	ReasonLowContrast = "low_contrast"
	ReasonUndecodable = "undecodable"
)

// maxAnalysisWidth bounds the grayscale downsample so evaluation cost does not
// scale with camera resolution.
const maxAnalysisWidth = 512

// Config holds the guardrail thresholds.
type Config struct {
	// SharpnessThreshold is the minimum variance of the Laplacian response.
	SharpnessThreshold float64
	// ContrastThreshold is the minimum p95-p5 luminance spread.
	ContrastThreshold float64
}

// Evaluate analyzes a raw upload and reports whether it is usable for
// extraction. PDF uploads bypass the pixel checks since they are rendered
// documents, not photographs.
func Evaluate(data []byte, contentType string, cfg Config) domain.QualityReport {
	if contentType == "application/pdf" {
		return domain.QualityReport{Passed: true}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return domain.QualityReport{Passed: false, Reasons: []string{ReasonUndecodable}}
	}

	gray, w, h := downsampleGray(img)
	if w < 3 || h < 3 {
		return domain.QualityReport{Passed: false, Reasons: []string{ReasonUndecodable}}
	}

	report := domain.QualityReport{
		SharpnessScore: laplacianVariance(gray, w, h),
		ContrastScore:  percentileSpread(gray),
	}
	if report.SharpnessScore < cfg.SharpnessThreshold {
		report.Reasons = append(report.Reasons, ReasonBlurry)
	}
	if report.ContrastScore < cfg.ContrastThreshold {
		report.Reasons = append(report.Reasons, ReasonLowContrast)
	}
	report.Passed = len(report.Reasons) == 0
	return report
}

// downsampleGray converts the image to an 8-bit grayscale buffer, sampling
// with a fixed stride so the result is at most maxAnalysisWidth wide.
func downsampleGray(img image.Image) ([]float64, int, int) {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	stride := 1
	if srcW > maxAnalysisWidth {
		stride = (srcW + maxAnalysisWidth - 1) / maxAnalysisWidth
	}
	w := srcW / stride
	h := srcH / stride
	if w == 0 || h == 0 {
		return nil, 0, 0
	}

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x*stride, bounds.Min.Y+y*stride).RGBA()
			// ITU-R BT.601 luma on an 8-bit scale.
			lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			gray[y*w+x] = lum
		}
	}
	return gray, w, h
}

// laplacianVariance computes the variance of a 4-neighbor Laplacian response
// over the image interior. Low variance means few edges: a blurry image.
func laplacianVariance(gray []float64, w, h int) float64 {
	n := (w - 2) * (h - 2)
	if n <= 0 {
		return 0
	}

	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := 4*gray[y*w+x] - gray[(y-1)*w+x] - gray[(y+1)*w+x] - gray[y*w+x-1] - gray[y*w+x+1]
			responses = append(responses, lap)
			sum += lap
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, v := range responses {
		d := v - mean
		variance += d * d
	}
	return variance / float64(n)
}

// percentileSpread returns the difference between the 95th and 5th percentile
// luminance values, a histogram-spread measure of contrast.
func percentileSpread(gray []float64) float64 {
	if len(gray) == 0 {
		return 0
	}
	sorted := make([]float64, len(gray))
	copy(sorted, gray)
	sort.Float64s(sorted)

	p5 := sorted[percentileIndex(len(sorted), 5)]
	p95 := sorted[percentileIndex(len(sorted), 95)]
	return p95 - p5
}

func percentileIndex(n, pct int) int {
	idx := int(math.Round(float64(pct) / 100 * float64(n-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}
