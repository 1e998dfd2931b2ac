package client

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/protocol"
	"github.com/teslashibe/go-filmmeter/pkg/remote"
)

func startServer(t *testing.T) (string, *remote.Server) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := remote.NewServer()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	srv.RegisterRoutes(app)

	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })

	return "ws://" + ln.Addr().String() + remote.Path, srv
}

func grayPNG(t *testing.T, v uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCalibrateAndMeasure(t *testing.T) {
	url, srv := startServer(t)

	var reports atomic.Int32
	srv.OnReport(func(protocol.ReportData) { reports.Add(1) })

	c := dial(t, url)
	if c.SessionID() == "" {
		t.Error("SessionID() should be set after Dial")
	}
	ctx := context.Background()

	state, err := c.Tap(ctx, 0.5, 0.5)
	if err != nil {
		t.Fatalf("Tap() error = %v", err)
	}
	if state.Tap == nil || state.Tap.X != 0.5 {
		t.Errorf("state tap = %+v, want x 0.5", state.Tap)
	}

	rep, err := c.Calibrate(ctx, "png", grayPNG(t, 180))
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}
	if rep.Reference != 180 || rep.Stops != 0 || rep.Zone != meter.MidtoneReference {
		t.Errorf("Calibrate() = %+v", rep)
	}

	rep, err = c.Measure(ctx, "png", grayPNG(t, 90))
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if rep.Stops != -1 || rep.Zone != meter.ShadowRetained {
		t.Errorf("Measure() = %+v, want -1 stops in shadow_retained", rep)
	}

	state, err = c.State(ctx)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if !state.Calibrated || state.SessionID != c.SessionID() {
		t.Errorf("State() = %+v", state)
	}

	if got := reports.Load(); got != 2 {
		t.Errorf("OnReport calls = %d, want 2", got)
	}
}

func TestMeasureNoLight(t *testing.T) {
	url, _ := startServer(t)
	c := dial(t, url)
	ctx := context.Background()

	if _, err := c.Tap(ctx, 0.5, 0.5); err != nil {
		t.Fatalf("Tap() error = %v", err)
	}
	rep, err := c.Measure(ctx, "png", grayPNG(t, 0))
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if rep.Stops > -1e300 || rep.Zone != meter.DeepShadow {
		t.Errorf("Measure() = %+v, want -Inf in deep_shadow", rep)
	}
}

func TestRemoteErrors(t *testing.T) {
	url, srv := startServer(t)
	c := dial(t, url)
	ctx := context.Background()

	_, err := c.Measure(ctx, "png", grayPNG(t, 100))
	if !errors.Is(err, meter.ErrNoSamplePoint) {
		t.Errorf("Measure() without tap error = %v, want ErrNoSamplePoint", err)
	}
	var re *RemoteError
	if !errors.As(err, &re) || re.Code != protocol.CodeNoSamplePoint {
		t.Errorf("Measure() error = %#v, want RemoteError no_sample_point", err)
	}

	if _, err := c.Tap(ctx, 0.5, 0.5); err != nil {
		t.Fatalf("Tap() error = %v", err)
	}

	_, err = c.Measure(ctx, "png", nil)
	if !errors.Is(err, meter.ErrFrameNotReady) {
		t.Errorf("Measure() with no image error = %v, want ErrFrameNotReady", err)
	}

	if _, err := c.Calibrate(ctx, "png", grayPNG(t, 0)); err != nil {
		t.Fatalf("Calibrate() on black error = %v", err)
	}
	_, err = c.Measure(ctx, "png", grayPNG(t, 100))
	if !errors.Is(err, meter.ErrInvalidReference) {
		t.Errorf("Measure() after black calibration error = %v, want ErrInvalidReference", err)
	}
	if _, err := c.Calibrate(ctx, "png", grayPNG(t, 128)); err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}

	_, err = c.Measure(ctx, "png", []byte("garbage"))
	if !errors.As(err, &re) || re.Code != protocol.CodeBadRequest {
		t.Errorf("Measure() with garbage error = %v, want bad_request", err)
	}

	if stats := srv.GetStats(); stats.Errors != 4 {
		t.Errorf("Errors = %d, want 4", stats.Errors)
	}
}

func TestPingAndClose(t *testing.T) {
	url, _ := startServer(t)
	c := dial(t, url)

	rtt, err := c.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if rtt <= 0 {
		t.Errorf("Ping() = %v, want > 0", rtt)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := c.Tap(context.Background(), 0.1, 0.1); !errors.Is(err, ErrClosed) {
		t.Errorf("Tap() after Close error = %v, want ErrClosed", err)
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/ws/meter")
	if err == nil || !strings.Contains(err.Error(), "dial") {
		t.Errorf("Dial() error = %v, want dial failure", err)
	}
}

func TestRemoteErrorUnwrap(t *testing.T) {
	err := &RemoteError{Code: protocol.CodeInternal, Message: "boom"}
	if errors.Unwrap(err) != nil {
		t.Errorf("internal errors should not unwrap to a sentinel")
	}
	err = &RemoteError{Code: protocol.CodeFrameNotReady, Message: "x"}
	if !errors.Is(err, meter.ErrFrameNotReady) {
		t.Errorf("frame_not_ready should unwrap to ErrFrameNotReady")
	}
}
