// Package gnss turns raw positioning and orientation telemetry into
// normalized local coordinates, yaw-over-time series and a composite plot
// artifact.
package gnss

import (
	"encoding/json"

	"github.com/rovlab/go-dataflow/pkg/bag"
)

// Message-type names the extractors handle.
const (
	NavSatFixType         = "sensor_msgs/NavSatFix"
	ImuType               = "sensor_msgs/Imu"
	NavSatOrientationType = "nmea_navsat_driver/NavSatOrientation"
)

// Fix status codes as recorded by the receiver.
const (
	StatusNoFix int8 = -1
	StatusFix   int8 = 0
	StatusSBAS  int8 = 1
	StatusGBAS  int8 = 2
)

// FixStatus wraps the status code so that a record carrying no status at all
// stays distinguishable from a zero code.
type FixStatus struct {
	Status int8 `json:"status"`
}

// NavSatFix is a raw satellite navigation fix record.
type NavSatFix struct {
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	Altitude           float64    `json:"altitude"`
	Status             *FixStatus `json:"status"`
	PositionCovariance [9]float64 `json:"position_covariance"`
}

// Quaternion is a unit quaternion in x, y, z, w order.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Imu is a raw inertial record; only the orientation is consumed here.
type Imu struct {
	Orientation Quaternion `json:"orientation"`
}

// NavSatOrientation carries a pre-computed yaw.
type NavSatOrientation struct {
	Yaw float64 `json:"yaw"`
}

// PositionSample is one normalized fix: the raw geodetic values plus the
// planar offsets from the local origin established by the first valid fix.
type PositionSample struct {
	Time   float64
	Lat    float64
	Lon    float64
	Alt    float64
	East   float64
	North  float64
	Up     float64
	Status int8
	CovRMS float64
}

// Positions is the aggregate a position extractor instance emits once, at
// the end of its topic stream.
type Positions struct {
	Topic  string
	Values []PositionSample
}

// OrientationSample is one yaw reading.
type OrientationSample struct {
	Time float64
	Yaw  float64
}

// Orientations is the aggregate an orientation extractor instance emits.
type Orientations struct {
	Topic  string
	Values []OrientationSample
}

// GeoJSON is a decoded GeoJSON object, kept generic for the map overlay.
type GeoJSON map[string]any

// Types returns the runtime decoders for the message types this package
// consumes, keyed by type name for Source registries.
func Types() bag.TypeRegistry {
	return bag.TypeRegistry{
		NavSatFixType:         decodeJSON[NavSatFix],
		ImuType:               decodeJSON[Imu],
		NavSatOrientationType: decodeJSON[NavSatOrientation],
	}
}

func decodeJSON[T any](data []byte) (any, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}
