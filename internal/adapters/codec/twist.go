package codec

import (
	"github.com/okian/elrobot/internal/domain/model"
)

const twistBodyLen = 6 * 8

// EncodeTwist serializes a command as a CDR geometry_msgs/Twist.
func EncodeTwist(c model.Command) []byte {
	w := newCDRWriter(twistBodyLen)
	for _, v := range [...]float64{
		c.Linear.X, c.Linear.Y, c.Linear.Z,
		c.Angular.X, c.Angular.Y, c.Angular.Z,
	} {
		w.float64(v)
	}
	return w.buf
}

// DecodeTwist parses a CDR geometry_msgs/Twist.
func DecodeTwist(payload []byte) (model.Command, error) {
	r, err := newCDRReader(payload)
	if err != nil {
		return model.Command{}, err
	}
	var v [6]float64
	for i := range v {
		if v[i], err = r.float64(); err != nil {
			return model.Command{}, err
		}
	}
	return model.Command{
		Linear:  model.Vector3{X: v[0], Y: v[1], Z: v[2]},
		Angular: model.Vector3{X: v[3], Y: v[4], Z: v[5]},
	}, nil
}
