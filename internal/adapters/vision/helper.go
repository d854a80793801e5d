package vision

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/okian/elrobot/pkg/logger"
	"github.com/okian/elrobot/pkg/metrics"
)

// Helper request opcodes.
const (
	opDetect byte = 'D'
	opEncode byte = 'E'

	maxResponseLen = 64 << 20
	stderrLimit    = 8 << 10
)

// helperResponse is the JSON body of a helper reply.
type helperResponse struct {
	Rects     [][4]int    `json:"rects"`
	Encodings [][]float64 `json:"encodings"`
	Error     string      `json:"error"`
}

// Helper talks to an external vision process. Requests go to its stdin as
// [op:1][len:4 big endian][image]; replies come back on file descriptor 3 as
// [len:4 big endian][json]. Stderr is kept for crash reports. One request is
// in flight at a time.
type Helper struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	data   io.ReadCloser
	stderr *tailBuffer
	closed bool
	logger logger.Logger
}

// StartHelper launches argv[0] with the remaining arguments.
func StartHelper(ctx context.Context, argv []string) (*Helper, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty helper command", ErrHelper)
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // operator configured
	stderr := &tailBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	// Side-channel pipe; the child sees the write end as FD 3.
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: pipe: %w", ErrHelper, err)
	}
	cmd.ExtraFiles = []*os.File{w}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = w.Close()
		_ = r.Close()
		return nil, fmt.Errorf("%w: stdin: %w", ErrHelper, err)
	}
	if err := cmd.Start(); err != nil {
		_ = w.Close()
		_ = r.Close()
		return nil, fmt.Errorf("%w: start %s: %w", ErrHelper, argv[0], err)
	}
	// Only the child holds the write end now.
	_ = w.Close()

	h := newHelper(stdin, r, stderr)
	h.cmd = cmd
	h.logger.Info(ctx, "vision helper started", logger.String("command", argv[0]), logger.Int("pid", cmd.Process.Pid))
	return h, nil
}

func newHelper(stdin io.WriteCloser, data io.ReadCloser, stderr *tailBuffer) *Helper {
	if stderr == nil {
		stderr = &tailBuffer{limit: stderrLimit}
	}
	return &Helper{
		stdin:  stdin,
		data:   data,
		stderr: stderr,
		logger: logger.Get().Named("vision-helper"),
	}
}

// Detect implements Detector.
func (h *Helper) Detect(ctx context.Context, frame []byte) ([]Rect, error) {
	resp, err := h.call(ctx, opDetect, frame)
	if err != nil {
		return nil, err
	}
	rects := make([]Rect, 0, len(resp.Rects))
	for _, r := range resp.Rects {
		rects = append(rects, Rect{X: r[0], Y: r[1], W: r[2], H: r[3]})
	}
	return rects, nil
}

// Encode returns the appearance signatures of the faces in img, primary
// face first. It satisfies recognition.Encoder.
func (h *Helper) Encode(ctx context.Context, img []byte) ([][]float64, error) {
	start := time.Now()
	resp, err := h.call(ctx, opEncode, img)
	metrics.RecordAdapterLatency("encode", float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, err
	}
	return resp.Encodings, nil
}

func (h *Helper) call(ctx context.Context, op byte, payload []byte) (*helperResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHelperClosed
	}

	var header [5]byte
	header[0] = op
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))
	if _, err := h.stdin.Write(header[:]); err != nil {
		return nil, h.crashed(err)
	}
	if _, err := h.stdin.Write(payload); err != nil {
		return nil, h.crashed(err)
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(h.data, lenBuf[:]); err != nil {
		return nil, h.crashed(err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxResponseLen {
		return nil, fmt.Errorf("%w: response of %d bytes", ErrHelper, n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(h.data, body); err != nil {
		return nil, h.crashed(err)
	}

	var resp helperResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: bad response: %w", ErrHelper, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrHelper, resp.Error)
	}
	return &resp, nil
}

// crashed wraps a pipe error with whatever the helper wrote to stderr.
func (h *Helper) crashed(err error) error {
	if tail := h.stderr.String(); tail != "" {
		return fmt.Errorf("%w: %w; stderr: %s", ErrHelper, err, tail)
	}
	return fmt.Errorf("%w: %w", ErrHelper, err)
}

// Close stops the helper and waits for it to exit.
func (h *Helper) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	_ = h.stdin.Close()
	_ = h.data.Close()
	if h.cmd == nil {
		return nil
	}
	return h.cmd.Wait()
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(bytes.TrimSpace(t.buf.Bytes()))
}
