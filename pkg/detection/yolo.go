package detection

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/menta2k/photo-verifier/pkg/types"
)

// YOLOv8 export layout: [1, 4+80, 8400]
const (
	yoloInputSize  = 640
	yoloClasses    = 80
	yoloOutputRows = 4 + yoloClasses
	yoloCandidates = 8400

	defaultConfThreshold = 0.25
	defaultIoUThreshold  = 0.45
)

// YOLOConfig configures the ONNX YOLO engine
type YOLOConfig struct {
	ModelPath     string
	LibraryPath   string
	PoolSize      int
	ConfThreshold float32
	IoUThreshold  float32
}

// YOLOEngine runs a YOLOv8 ONNX export through ONNX Runtime
type YOLOEngine struct {
	pool    *sessionPool
	conf    float32
	iou     float32
	ownsEnv bool
}

// NewYOLOEngine loads the model and prepares a session pool
func NewYOLOEngine(cfg YOLOConfig) (*YOLOEngine, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("yolo model path not configured")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("yolo model: %w", err)
	}

	ownsEnv := false
	if !ort.IsInitialized() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("onnxruntime init: %w", err)
		}
		ownsEnv = true
	}

	pool, err := newSessionPool(cfg.ModelPath, cfg.PoolSize)
	if err != nil {
		if ownsEnv {
			_ = ort.DestroyEnvironment()
		}
		return nil, err
	}

	e := &YOLOEngine{pool: pool, conf: cfg.ConfThreshold, iou: cfg.IoUThreshold, ownsEnv: ownsEnv}
	if e.conf <= 0 {
		e.conf = defaultConfThreshold
	}
	if e.iou <= 0 {
		e.iou = defaultIoUThreshold
	}
	return e, nil
}

// Name implements Engine
func (e *YOLOEngine) Name() string { return types.EngineYOLO }

// Detect implements Engine
func (e *YOLOEngine) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	s, err := e.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.pool.release(s)

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	resized := imaging.Resize(img, yoloInputSize, yoloInputSize, imaging.Linear)
	fillInput(resized, s.input.GetData())

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}
	dets := decodePredictions(s.output.GetData(), w, h, e.conf)
	return nonMaxSuppression(dets, e.iou), nil
}

// Close implements Engine
func (e *YOLOEngine) Close() error {
	e.pool.destroy()
	if e.ownsEnv {
		return ort.DestroyEnvironment()
	}
	return nil
}

// fillInput writes img as planar RGB floats in [0,1]
func fillInput(img *image.NRGBA, dst []float32) {
	plane := yoloInputSize * yoloInputSize
	for y := 0; y < yoloInputSize; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < yoloInputSize; x++ {
			i := y*yoloInputSize + x
			dst[i] = float32(row[x*4]) / 255
			dst[plane+i] = float32(row[x*4+1]) / 255
			dst[2*plane+i] = float32(row[x*4+2]) / 255
		}
	}
}

// decodePredictions maps raw output rows to boxes in a w x h image
func decodePredictions(pred []float32, w, h int, conf float32) []Detection {
	if len(pred) < yoloOutputRows*yoloCandidates {
		return nil
	}
	sx := float64(w) / yoloInputSize
	sy := float64(h) / yoloInputSize

	var out []Detection
	for i := 0; i < yoloCandidates; i++ {
		best, cls := float32(0), -1
		for c := 0; c < yoloClasses; c++ {
			if v := pred[(4+c)*yoloCandidates+i]; v > best {
				best, cls = v, c
			}
		}
		if cls < 0 || best < conf {
			continue
		}
		cx := float64(pred[i])
		cy := float64(pred[yoloCandidates+i])
		bw := float64(pred[2*yoloCandidates+i])
		bh := float64(pred[3*yoloCandidates+i])

		x0 := clamp(int((cx-bw/2)*sx), 0, w)
		y0 := clamp(int((cy-bh/2)*sy), 0, h)
		x1 := clamp(int((cx+bw/2)*sx), 0, w)
		y1 := clamp(int((cy+bh/2)*sy), 0, h)
		out = append(out, Detection{
			Label:      cocoLabels[cls],
			Confidence: float64(best),
			Box:        image.Rect(x0, y0, x1, y1),
		})
	}
	return out
}

// nonMaxSuppression keeps the best box among same-label overlaps
func nonMaxSuppression(dets []Detection, iouThreshold float32) []Detection {
	sort.SliceStable(dets, func(i, j int) bool { return dets[i].Confidence > dets[j].Confidence })

	kept := make([]Detection, 0, len(dets))
	for _, d := range dets {
		suppressed := false
		for _, k := range kept {
			if k.Label == d.Label && iou(k.Box, d.Box) > float64(iouThreshold) {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, d)
		}
	}
	return kept
}

func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - ia
	if union <= 0 {
		return 0
	}
	return ia / union
}

var cocoLabels = [yoloClasses]string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}
