package codec

import (
	"time"

	"github.com/okian/elrobot/internal/domain/model"
)

// DecodeLog parses a CDR rcl_interfaces/Log.
func DecodeLog(payload []byte) (model.LogRecord, error) {
	var rec model.LogRecord

	r, err := newCDRReader(payload)
	if err != nil {
		return rec, err
	}
	sec, err := r.uint32()
	if err != nil {
		return rec, err
	}
	nsec, err := r.uint32()
	if err != nil {
		return rec, err
	}
	rec.Stamp = time.Unix(int64(int32(sec)), int64(nsec)).UTC()

	if rec.Level, err = r.int8(); err != nil {
		return rec, err
	}
	for _, dst := range []*string{&rec.Name, &rec.Message, &rec.File, &rec.Function} {
		if *dst, err = r.string(); err != nil {
			return rec, err
		}
	}
	if rec.Line, err = r.uint32(); err != nil {
		return rec, err
	}
	return rec, nil
}

// EncodeLog serializes a record as a CDR rcl_interfaces/Log.
func EncodeLog(rec model.LogRecord) []byte {
	w := newCDRWriter(64)
	w.uint32(uint32(int32(rec.Stamp.Unix())))
	w.uint32(uint32(rec.Stamp.Nanosecond()))
	w.int8(rec.Level)
	w.string(rec.Name)
	w.string(rec.Message)
	w.string(rec.File)
	w.string(rec.Function)
	w.uint32(rec.Line)
	return w.buf
}
