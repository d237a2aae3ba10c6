package processing

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Orientation is the EXIF orientation tag of a captured frame: how the
// stored pixels must be transformed to appear upright.
type Orientation int

const (
	OrientationUnknown     Orientation = 0
	OrientationUp          Orientation = 1
	OrientationUpMirrored  Orientation = 2
	OrientationDown        Orientation = 3
	OrientationDownMirror  Orientation = 4
	OrientationLeftMirror  Orientation = 5
	OrientationRight       Orientation = 6
	OrientationRightMirror Orientation = 7
	OrientationLeft        Orientation = 8
)

// Valid reports whether o is a defined EXIF value or unknown
func (o Orientation) Valid() bool {
	return o >= OrientationUnknown && o <= OrientationLeft
}

func (o Orientation) String() string {
	switch o {
	case OrientationUnknown, OrientationUp:
		return "up"
	case OrientationUpMirrored:
		return "up-mirrored"
	case OrientationDown:
		return "down"
	case OrientationDownMirror:
		return "down-mirrored"
	case OrientationLeftMirror:
		return "left-mirrored"
	case OrientationRight:
		return "right"
	case OrientationRightMirror:
		return "right-mirrored"
	case OrientationLeft:
		return "left"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// Normalize re-renders img so that its pixel rows run top to bottom as the
// picture is meant to be viewed. Up and unknown orientations return img
// unchanged.
func Normalize(img image.Image, o Orientation) image.Image {
	switch o {
	case OrientationUpMirrored:
		return imaging.FlipH(img)
	case OrientationDown:
		return imaging.Rotate180(img)
	case OrientationDownMirror:
		return imaging.FlipV(img)
	case OrientationLeftMirror:
		return imaging.Transpose(img)
	case OrientationRight:
		return imaging.Rotate270(img)
	case OrientationRightMirror:
		return imaging.Transverse(img)
	case OrientationLeft:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
