package gnss

import "math"

// YawAngle extracts the heading from a unit quaternion: build the rotation
// matrix, rotate the reference vector (1, 0, 0) and measure its angle in the
// horizontal plane.
func YawAngle(q Quaternion) float64 {
	rot := rotationMatrix(q)
	x := rot[0][0]
	y := rot[1][0]

	return math.Atan2(y, x)
}

func rotationMatrix(q Quaternion) [3][3]float64 {
	q1, q2, q3, q4 := q.X, q.Y, q.Z, q.W

	return [3][3]float64{
		{
			1 - 2*q2*q2 - 2*q3*q3,
			2 * (q1*q2 - q3*q4),
			2 * (q1*q3 + q2*q4),
		},
		{
			2 * (q1*q2 + q3*q4),
			1 - 2*q1*q1 - 2*q3*q3,
			2 * (q2*q3 - q1*q4),
		},
		{
			2 * (q1*q3 - q2*q4),
			2 * (q1*q4 + q2*q3),
			1 - 2*q1*q1 - 2*q2*q2,
		},
	}
}
