package forensics

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// noiseSigma matches the sigma OpenCV derives for a 5x5 Gaussian kernel
const noiseSigma = 1.1

// grayPlane converts img to luma values using imaging's BT.601 weights
func grayPlane(img image.Image) (plane []float64, w, h int) {
	gray := imaging.Grayscale(img)
	w, h = gray.Bounds().Dx(), gray.Bounds().Dy()
	return channel(gray), w, h
}

func channel(img *image.NRGBA) []float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(row[x*4])
		}
	}
	return out
}

// BlurScore returns the variance of the 4-neighbour Laplacian of the
// grayscale image. Higher means sharper; -1 when the image is empty.
func BlurScore(img image.Image) float64 {
	if img == nil || img.Bounds().Empty() {
		return -1
	}
	gray, w, h := grayPlane(img)

	var sum, sumSq float64
	n := float64(w * h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := gray[y*w+x]
			lap := gray[reflect(y-1, h)*w+x] + gray[reflect(y+1, h)*w+x] +
				gray[y*w+reflect(x-1, w)] + gray[y*w+reflect(x+1, w)] - 4*c
			sum += lap
			sumSq += lap * lap
		}
	}
	mean := sum / n
	return sumSq/n - mean*mean
}

// NoiseEstimate returns the standard deviation of the high-frequency
// residual (gray minus its Gaussian blur); -1 when the image is empty.
func NoiseEstimate(img image.Image) float64 {
	if img == nil || img.Bounds().Empty() {
		return -1
	}
	grayImg := imaging.Grayscale(img)
	gray := channel(grayImg)
	blurred := channel(imaging.Blur(grayImg, noiseSigma))

	var sum, sumSq float64
	n := float64(len(gray))
	for i := range gray {
		d := gray[i] - blurred[i]
		sum += d
		sumSq += d * d
	}
	mean := sum / n
	return math.Sqrt(math.Max(0, sumSq/n-mean*mean))
}

// reflect maps an out-of-range index with reflect-101 borders
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - 2 - i
	}
	return i
}
