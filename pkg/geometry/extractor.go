// Package geometry derives normalized position and size descriptors from
// raw detection boxes.
package geometry

import (
	"github.com/memorygarden/drawing-analyzer/pkg/processing"
	"github.com/memorygarden/drawing-analyzer/pkg/types"
)

// Horizontal and vertical thirds split the canvas into a 3x3 grid.
// An object whose center falls in the outer thirds is labeled left/right
// or up/down; everything else is center.
const (
	lowerThird = 1.0 / 3.0
	upperThird = 2.0 / 3.0
)

// Extract computes a SpatialDescriptor per label from the given detections
// and image dimensions. Later detections of the same label overwrite earlier
// ones, matching detector output order. A non-positive image size yields an
// empty map.
func Extract(detections []types.Detection, imgWidth, imgHeight int) map[string]types.SpatialDescriptor {
	descriptors := make(map[string]types.SpatialDescriptor)
	if imgWidth <= 0 || imgHeight <= 0 {
		return descriptors
	}

	w := float64(imgWidth)
	h := float64(imgHeight)

	for _, det := range detections {
		cx, cy := det.Box.Center()
		relX := cx / w
		relY := cy / h

		horiz := types.HorizCenter
		if cx < w/3 {
			horiz = types.HorizLeft
		} else if cx > w*2/3 {
			horiz = types.HorizRight
		}

		vert := types.VertCenter
		if cy < h/3 {
			vert = types.VertUp
		} else if cy > h*2/3 {
			vert = types.VertDown
		}

		relArea := det.Box.Area() / (w * h)

		descriptors[det.Label] = types.SpatialDescriptor{
			Label:         det.Label,
			RelX:          relX,
			RelY:          relY,
			Horizontal:    horiz,
			Vertical:      vert,
			PositionLabel: positionDescription(horiz, vert),
			RelativeArea:  relArea,
			SizeLabel:     sizeBucket(relArea),
			SizeDesc:      sizeDescription(relArea),
			Width:         det.Box.Width(),
			Height:        det.Box.Height(),
		}
	}

	return descriptors
}

// ExtractFromFile sizes the image at imagePath and extracts descriptors.
// If the image cannot be opened or sized, it returns an empty map: the caller
// treats empty descriptors as "no spatial features available" and proceeds
// without structural interpretation.
func ExtractFromFile(detections []types.Detection, imagePath string) map[string]types.SpatialDescriptor {
	w, h, err := processing.ImageSize(imagePath)
	if err != nil {
		return map[string]types.SpatialDescriptor{}
	}
	return Extract(detections, w, h)
}

// positionDescription renders the 3x3 cell as the report string used in
// interpretation output, vertical first: "위쪽 왼쪽", "가운데 가운데", ...
func positionDescription(h types.Horizontal, v types.Vertical) string {
	hPos := "가운데"
	switch h {
	case types.HorizLeft:
		hPos = "왼쪽"
	case types.HorizRight:
		hPos = "오른쪽"
	}

	vPos := "가운데"
	switch v {
	case types.VertUp:
		vPos = "위쪽"
	case types.VertDown:
		vPos = "아래쪽"
	}

	return vPos + " " + hPos
}

// sizeBucket applies the House-Tree-Person size convention to a relative area.
func sizeBucket(area float64) types.SizeLabel {
	switch {
	case area <= 0.33:
		return types.SizeSmall
	case area < 0.67:
		return types.SizeMedium
	default:
		return types.SizeLarge
	}
}

// sizeDescription is the coarse report string attached to size analysis.
func sizeDescription(area float64) string {
	switch {
	case area < 0.1:
		return "작음"
	case area < 0.3:
		return "보통"
	default:
		return "큼"
	}
}
