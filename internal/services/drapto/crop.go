package drapto

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	draptolib "github.com/five82/drapto"

	"vidforge/internal/services"
)

const autoApplyThresholdPercent = 80.0

// CropCandidate is one crop value seen across sampled frames.
type CropCandidate struct {
	Crop    string  `json:"crop"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// CropReport is the library result reduced to what vidforge displays.
type CropReport struct {
	Path           string          `json:"path"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	HDR            bool            `json:"hdr"`
	Required       bool            `json:"required"`
	CropFilter     string          `json:"crop_filter,omitempty"`
	MultipleRatios bool            `json:"multiple_ratios"`
	Message        string          `json:"message"`
	TotalSamples   int             `json:"total_samples"`
	Candidates     []CropCandidate `json:"candidates,omitempty"`
}

// CropDetector finds letterboxing in a video file.
type CropDetector interface {
	DetectCrop(ctx context.Context, path string) (CropReport, error)
}

// Library implements CropDetector with the Drapto library.
type Library struct{}

// NewLibrary constructs a Library detector.
func NewLibrary() *Library {
	return &Library{}
}

// DetectCrop samples frames of path and reports the dominant crop.
func (l *Library) DetectCrop(ctx context.Context, path string) (CropReport, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return CropReport{}, services.Wrap(services.ErrValidation, "drapto", "detect crop", "path required", nil)
	}
	result, err := draptolib.DetectCrop(ctx, path)
	if err != nil {
		return CropReport{}, services.Wrap(services.ErrExternalTool, "drapto", "detect crop", path, err)
	}
	if result == nil {
		return CropReport{Path: path, Message: "no result"}, nil
	}
	report := CropReport{
		Path:           path,
		Width:          int(result.VideoWidth),
		Height:         int(result.VideoHeight),
		HDR:            result.IsHDR,
		Required:       result.Required,
		CropFilter:     result.CropFilter,
		MultipleRatios: result.MultipleRatios,
		Message:        result.Message,
		TotalSamples:   int(result.TotalSamples),
	}
	for _, c := range result.Candidates {
		report.Candidates = append(report.Candidates, CropCandidate{Crop: c.Crop, Count: c.Count, Percent: c.Percent})
	}
	return report, nil
}

var _ CropDetector = (*Library)(nil)

// Insight is a display-oriented reading of a CropReport.
type Insight struct {
	DynamicRange      string
	Threshold         int
	OutputDimensions  string
	OutputAspectRatio string
	// Letterboxed is set when a crop is required, which for generated
	// clips means the model rendered bars into the frame.
	Letterboxed bool
	Suggestion  string
}

// BuildInsight derives output geometry and an operator hint from report.
func BuildInsight(report CropReport) Insight {
	insight := Insight{DynamicRange: "SDR", Threshold: 16}
	if report.HDR {
		insight.DynamicRange = "HDR"
		insight.Threshold = 100
	}
	if report.Required {
		insight.Letterboxed = true
		if w, h, ok := ParseCropDimensions(report.CropFilter); ok && h > 0 {
			insight.OutputDimensions = fmt.Sprintf("%dx%d (removing %d pixels)", w, h, report.Height-h)
			insight.OutputAspectRatio = fmt.Sprintf("%.3f:1", float64(w)/float64(h))
		}
		insight.Suggestion = "regenerate this scene or crop before assembly"
	}
	if report.MultipleRatios && len(report.Candidates) > 0 {
		top := report.Candidates[0].Percent
		if top < autoApplyThresholdPercent {
			insight.Suggestion = fmt.Sprintf("no crop value in >%.0f%% of samples (top %.1f%%)", autoApplyThresholdPercent, top)
		}
	}
	return insight
}

// ParseCropDimensions reads width and height from "crop=W:H:X:Y" or "W:H:X:Y".
func ParseCropDimensions(value string) (int, int, bool) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(value), "crop="), ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}
