package validate

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jarvis-brain/core/internal/provider"
)

// VisualSnapshot is a grayscale-histogram summary of a screenshot, grounded
// on validation/visual_analyzer.py's VisualSnapshot (PIL there, Go's
// stdlib image package here — no pack example ships a pixel-stats library
// and this is pure arithmetic over decoded pixels, so stdlib is the right
// fit, not a dropped dependency).
type VisualSnapshot struct {
	ImageBytes          []byte
	Width, Height       int
	MeanPixel           float64
	Variance            float64
	NonBackgroundRatio  float64
}

// IsBlank reports whether the snapshot is too visually uniform, grounded on
// VisualSnapshot.is_blank.
func (s VisualSnapshot) IsBlank(threshold float64) bool {
	return s.NonBackgroundRatio < (1 - threshold)
}

// VisualDelta is the pixel-diff result of Compare/CompareRegion, grounded on
// visual_analyzer.py's VisualDelta. RegionAnalyzed/DiffCount/TotalPixels
// describe the scale the diff was measured at (full page or a padded
// element region); ElementPixels/ElementDiffRatio hold a second, always
// element-exact measurement used by the adaptive element_threshold
// fallback in HasVisibleChange.
type VisualDelta struct {
	PixelDiffRatio   float64
	StructuralChange bool
	RegionAnalyzed   string
	DiffCount        int
	TotalPixels      int
	ElementPixels    int
	ElementDiffRatio float64
}

// HasVisibleChange is the has_visible_change(t, element_t) invariant from
// visual_analyzer.py's VisualDelta: a change counts as visible if it clears
// the viewport-scale ratio threshold, or if an element-exact measurement is
// available and clears the (typically looser) element threshold.
func (d VisualDelta) HasVisibleChange(viewportThreshold, elementThreshold float64) bool {
	if d.PixelDiffRatio > viewportThreshold {
		return true
	}
	return d.ElementPixels > 0 && d.ElementDiffRatio > elementThreshold
}

// VisualAnalyzer is phase 2: screenshot capture and visual analysis.
type VisualAnalyzer struct {
	concordanceProvider provider.Provider
}

// NewVisualAnalyzer builds a VisualAnalyzer. concordanceProvider may be nil
// to skip the vision-based concordance check.
func NewVisualAnalyzer(concordanceProvider provider.Provider) *VisualAnalyzer {
	return &VisualAnalyzer{concordanceProvider: concordanceProvider}
}

// Analyze computes visual statistics for a PNG screenshot and reports
// whether the page looks blank, grounded on VisualAnalyzer.analyze.
func (v *VisualAnalyzer) Analyze(screenshot []byte, blankPageThreshold float64) (PhaseResult, *VisualSnapshot) {
	start := time.Now()
	snapshot, err := analyzeImage(screenshot)
	if err != nil {
		return PhaseResult{Phase: "visual_analysis", Passed: false, Errors: []string{err.Error()}}, nil
	}

	elapsed := float64(time.Since(start).Milliseconds())
	details := map[string]any{
		"non_background_ratio": snapshot.NonBackgroundRatio,
		"mean_pixel":           snapshot.MeanPixel,
		"variance":             snapshot.Variance,
		"image_size":           fmt.Sprintf("%dx%d", snapshot.Width, snapshot.Height),
	}

	if snapshot.IsBlank(blankPageThreshold) {
		return PhaseResult{
			Phase:  "visual_analysis",
			Passed: false,
			Errors: []string{fmt.Sprintf("page is visually blank (%.1f%% content)", snapshot.NonBackgroundRatio*100)},
			Details: details,
			Score:  0,
		}, snapshot
	}

	return PhaseResult{Phase: "visual_analysis", Passed: true, Score: 1, Details: details, Errors: nil, Warnings: nil}, snapshot
}

// analyzeImage decodes a PNG screenshot to grayscale and computes the mean,
// variance, and non-background pixel ratio, grounded on
// VisualAnalyzer._analyze_image.
func analyzeImage(screenshot []byte) (*VisualSnapshot, error) {
	img, _, err := image.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	total := width * height
	if total == 0 {
		return nil, fmt.Errorf("empty screenshot")
	}

	histogram := make([]int, 256)
	var sum int64
	gray := make([]uint8, 0, total)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			histogram[g]++
			sum += int64(g)
			gray = append(gray, g)
		}
	}

	mean := float64(sum) / float64(total)
	var varianceSum float64
	for _, g := range gray {
		d := float64(g) - mean
		varianceSum += d * d
	}
	variance := varianceSum / float64(total)

	mode := 0
	for i, count := range histogram {
		if count > histogram[mode] {
			mode = i
		}
	}
	const tolerance = 15
	nonBackground := 0
	for _, g := range gray {
		if absf(int(g)-mode) > tolerance {
			nonBackground++
		}
	}

	return &VisualSnapshot{
		ImageBytes:         screenshot,
		Width:              width,
		Height:             height,
		MeanPixel:          mean,
		Variance:           variance,
		NonBackgroundRatio: float64(nonBackground) / float64(total),
	}, nil
}

// CompareRegion measures the pixel-difference ratio between two screenshots,
// grounded on VisualAnalyzer.compare's multi-scale support. region, when
// non-nil, clips the comparison to that rectangle (itself clamped to the
// overlapping image bounds); region nil compares the full frame. Images are
// decoded and, if sizes differ, compared over their overlapping top-left
// region.
func CompareRegion(before, after VisualSnapshot, region *BoundingBox) (VisualDelta, error) {
	img1, _, err := image.Decode(bytes.NewReader(before.ImageBytes))
	if err != nil {
		return VisualDelta{}, fmt.Errorf("decode before: %w", err)
	}
	img2, _, err := image.Decode(bytes.NewReader(after.ImageBytes))
	if err != nil {
		return VisualDelta{}, fmt.Errorf("decode after: %w", err)
	}

	b1, b2 := img1.Bounds(), img2.Bounds()
	w := min(b1.Dx(), b2.Dx())
	h := min(b1.Dy(), b2.Dy())
	if w == 0 || h == 0 {
		return VisualDelta{}, nil
	}

	minX, minY, maxX, maxY := 0, 0, w, h
	if region != nil {
		minX = clampInt(int(region.X), 0, w)
		minY = clampInt(int(region.Y), 0, h)
		maxX = clampInt(int(region.X+region.Width), minX, w)
		maxY = clampInt(int(region.Y+region.Height), minY, h)
	}
	if maxX <= minX || maxY <= minY {
		return VisualDelta{}, nil
	}

	const pixelThreshold = 20
	diffCount := 0
	total := (maxX - minX) * (maxY - minY)
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			r1, g1, b1v, _ := img1.At(b1.Min.X+x, b1.Min.Y+y).RGBA()
			r2, g2, b2v, _ := img2.At(b2.Min.X+x, b2.Min.Y+y).RGBA()
			diff := (absf(int(r1>>8)-int(r2>>8)) + absf(int(g1>>8)-int(g2>>8)) + absf(int(b1v>>8)-int(b2v>>8))) / 3
			if diff > pixelThreshold {
				diffCount++
			}
		}
	}

	ratio := float64(diffCount) / float64(total)
	return VisualDelta{PixelDiffRatio: ratio, StructuralChange: ratio > 0.05, DiffCount: diffCount, TotalPixels: total}, nil
}

// Compare measures the pixel-difference ratio over the full frame, grounded
// on VisualAnalyzer.compare.
func Compare(before, after VisualSnapshot) (VisualDelta, error) {
	return CompareRegion(before, after, nil)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var concordanceRe = regexp.MustCompile(`(?is)CONCORDANCE:\s*(PASS|FAIL).*?CONFIDENCE:\s*([0-9.]+).*?DIAGNOSIS:\s*(.+)`)

// CheckVisualConcordance asks the vision-capable provider whether
// screenshot matches userRequest, grounded on
// VisualAnalyzer.check_visual_concordance. On any provider failure it
// passes through rather than blocking the pipeline, matching the original.
func (v *VisualAnalyzer) CheckVisualConcordance(ctx context.Context, screenshot []byte, userRequest string) (passed bool, diagnosis string, confidence float64) {
	if v.concordanceProvider == nil {
		return true, "concordance check unavailable: no vision provider configured", 0.5
	}

	prompt := fmt.Sprintf(concordancePromptTemplate, userRequest)
	resp, err := v.concordanceProvider.CompleteWithVision(ctx, provider.Request{
		SystemPrompt: concordanceSystemPrompt,
		Prompt:       prompt,
		MaxTokens:    256,
	})
	if err != nil || !resp.OK {
		return true, "concordance check unavailable", 0.5
	}

	return parseConcordanceResponse(resp.Content)
}

func parseConcordanceResponse(content string) (bool, string, float64) {
	m := concordanceRe.FindStringSubmatch(content)
	if m == nil {
		return true, "unable to parse concordance response", 0.5
	}
	passed := strings.EqualFold(m[1], "PASS")
	confidence, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		confidence = 0.5
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	diagnosis := strings.TrimSpace(strings.SplitN(m[3], "\n", 2)[0])
	return passed, diagnosis, confidence
}

const concordanceSystemPrompt = `You are a visual QA specialist. Your job is to verify that web page screenshots match user requirements.

Be strict but fair:
- PASS if the core request is satisfied even if styling differs
- FAIL if key elements are missing, invisible, or clearly broken
- Always explain your reasoning briefly

Output ONLY the specified format, nothing else.`

const concordancePromptTemplate = `Analyze this screenshot and compare it to the user's request.

## USER REQUEST
%q

## YOUR TASK
1. Look at the screenshot carefully
2. Determine if the visual output matches what the user requested
3. Check for correct content, appropriate layout, required elements, and obvious visual bugs

## OUTPUT FORMAT
Respond with EXACTLY this format:

CONCORDANCE: [PASS/FAIL]
CONFIDENCE: [0.0-1.0]
DIAGNOSIS: [1-2 sentences explaining what matches or doesn't match]
`
