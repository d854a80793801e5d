package vision

import "errors"

// Sentinel kinds for vision errors.
var (
	ErrDecodeFrame        = errors.New("decode frame failed")
	ErrEncodeCrop         = errors.New("encode crop failed")
	ErrDetect             = errors.New("face detection failed")
	ErrHelper             = errors.New("vision helper failed")
	ErrHelperClosed       = errors.New("vision helper closed")
	ErrCascadeUnavailable = errors.New("cascade backend not built in; rebuild with -tags gocv")
	ErrCascadeLoad        = errors.New("load cascade failed")
)
