// Package codec holds the typed decoders and encoders of bus payloads.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CDR encapsulation identifiers, second byte of the header.
const (
	cdrBE = 0x00
	cdrLE = 0x01

	cdrHeaderLen = 4
)

// cdrWriter appends little-endian CDR primitives. Alignment is relative to the
// end of the encapsulation header.
type cdrWriter struct {
	buf []byte
}

func newCDRWriter(size int) *cdrWriter {
	w := &cdrWriter{buf: make([]byte, cdrHeaderLen, cdrHeaderLen+size)}
	w.buf[1] = cdrLE
	return w
}

func (w *cdrWriter) align(n int) {
	for (len(w.buf)-cdrHeaderLen)%n != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *cdrWriter) float64(v float64) {
	w.align(8)
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

func (w *cdrWriter) uint32(v uint32) {
	w.align(4)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *cdrWriter) int8(v int8) {
	w.buf = append(w.buf, byte(v))
}

func (w *cdrWriter) string(s string) {
	w.uint32(uint32(len(s) + 1))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// cdrReader consumes CDR primitives in the byte order named by the header.
type cdrReader struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

func newCDRReader(payload []byte) (*cdrReader, error) {
	if len(payload) < cdrHeaderLen || payload[0] != 0 {
		return nil, fmt.Errorf("%w: bad encapsulation header", ErrMalformedCDR)
	}
	r := &cdrReader{buf: payload, pos: cdrHeaderLen}
	switch payload[1] {
	case cdrLE:
		r.order = binary.LittleEndian
	case cdrBE:
		r.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: unsupported representation %#x", ErrMalformedCDR, payload[1])
	}
	return r, nil
}

func (r *cdrReader) take(align, n int) ([]byte, error) {
	for (r.pos-cdrHeaderLen)%align != 0 {
		r.pos++
	}
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrMalformedCDR, r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *cdrReader) float64() (float64, error) {
	b, err := r.take(8, 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(r.order.Uint64(b)), nil
}

func (r *cdrReader) uint32() (uint32, error) {
	b, err := r.take(4, 4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *cdrReader) int8() (int8, error) {
	b, err := r.take(1, 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *cdrReader) string() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("%w: zero string length", ErrMalformedCDR)
	}
	b, err := r.take(1, int(n))
	if err != nil {
		return "", err
	}
	if b[n-1] != 0 {
		return "", fmt.Errorf("%w: string not terminated", ErrMalformedCDR)
	}
	return string(b[:n-1]), nil
}
