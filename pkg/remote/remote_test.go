package remote

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/protocol"
)

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

func mustMessage(t *testing.T) func(*protocol.Message, error) *protocol.Message {
	return func(m *protocol.Message, err error) *protocol.Message {
		t.Helper()
		if err != nil {
			t.Fatalf("build message: %v", err)
		}
		return m
	}
}

func errorCode(t *testing.T, m *protocol.Message) protocol.Code {
	t.Helper()
	if m.Type != protocol.TypeError {
		t.Fatalf("reply type = %v, want error", m.Type)
	}
	d, err := m.GetErrorData()
	if err != nil {
		t.Fatalf("GetErrorData() error = %v", err)
	}
	return d.Code
}

func TestDispatch(t *testing.T) {
	s := meter.NewSession()

	reply := Dispatch("s1", s, mustMessage(t)(protocol.NewFrameMessage(protocol.TypeMeasure, "png", grayPNG(t, 100))))
	if got := errorCode(t, reply); got != protocol.CodeNoSamplePoint {
		t.Errorf("measure before tap: code %v, want no_sample_point", got)
	}

	reply = Dispatch("s1", s, mustMessage(t)(protocol.NewTapMessage(1.5, 0.5)))
	if reply.Type != protocol.TypeState {
		t.Fatalf("tap reply type = %v, want state", reply.Type)
	}
	state, _ := reply.GetStateData()
	if state.Tap == nil || state.Tap.X != 1 {
		t.Errorf("tap = %+v, want clamped x 1", state.Tap)
	}

	reply = Dispatch("s1", s, mustMessage(t)(protocol.NewFrameMessage(protocol.TypeCalibrate, "png", grayPNG(t, 180))))
	if reply.Type != protocol.TypeReport {
		t.Fatalf("calibrate reply type = %v, want report", reply.Type)
	}
	rep, _ := reply.GetReportData()
	if rep.Mode != "calibrate" || rep.Reference != 180 || rep.SessionID != "s1" {
		t.Errorf("calibrate report = %+v", rep)
	}

	reply = Dispatch("s1", s, mustMessage(t)(protocol.NewFrameMessage(protocol.TypeMeasure, "png", grayPNG(t, 90))))
	rep, _ = reply.GetReportData()
	if rep == nil || rep.Stops == nil || *rep.Stops != -1 || rep.Zone != "shadow_retained" {
		t.Errorf("measure report = %+v", rep)
	}
}

func truncatedPNG(t *testing.T) []byte {
	t.Helper()
	data := grayPNG(t, 100)
	return data[:len(data)/2]
}

func TestDispatchBadInput(t *testing.T) {
	s := meter.NewSession()
	s.RegisterTap(meter.Point{X: 0.5, Y: 0.5})

	tests := []struct {
		name string
		msg  *protocol.Message
		want protocol.Code
	}{
		{
			name: "unknown type",
			msg:  &protocol.Message{Type: "focus"},
			want: protocol.CodeBadRequest,
		},
		{
			name: "tap with bad payload",
			msg:  &protocol.Message{Type: protocol.TypeTap, Data: json.RawMessage(`"left"`)},
			want: protocol.CodeBadRequest,
		},
		{
			name: "bad base64",
			msg:  &protocol.Message{Type: protocol.TypeMeasure, Data: json.RawMessage(`{"format":"png","data":"***"}`)},
			want: protocol.CodeBadRequest,
		},
		{
			name: "not an image",
			msg:  mustMessage(t)(protocol.NewFrameMessage(protocol.TypeMeasure, "png", []byte("nope"))),
			want: protocol.CodeBadRequest,
		},
		{
			name: "truncated png",
			msg:  mustMessage(t)(protocol.NewFrameMessage(protocol.TypeMeasure, "png", truncatedPNG(t))),
			want: protocol.CodeBadRequest,
		},
		{
			name: "no image",
			msg:  &protocol.Message{Type: protocol.TypeMeasure},
			want: protocol.CodeFrameNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(t, Dispatch("s1", s, tt.msg)); got != tt.want {
				t.Errorf("code = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDispatchPing(t *testing.T) {
	reply := Dispatch("s1", meter.NewSession(), mustMessage(t)(protocol.NewPingMessage("p1")))
	if reply.Type != protocol.TypePong {
		t.Fatalf("reply type = %v, want pong", reply.Type)
	}
	pong, _ := reply.GetPongData()
	if pong.ID != "p1" {
		t.Errorf("pong id = %v, want p1", pong.ID)
	}
}

func TestEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	srv.RegisterRoutes(app)
	go app.Listener(ln)
	defer app.Shutdown()

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+Path, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	hello, err := protocol.ParseMessage(data)
	if err != nil || hello.Type != protocol.TypeState {
		t.Fatalf("greeting = %s, err %v", data, err)
	}
	if srv.ConnectionCount() != 1 {
		t.Errorf("ConnectionCount() = %d, want 1", srv.ConnectionCount())
	}

	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, data, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	reply, _ := protocol.ParseMessage(data)
	if got := errorCode(t, reply); got != protocol.CodeBadRequest {
		t.Errorf("code = %v, want bad_request", got)
	}

	stats := srv.GetStats()
	if stats.MessagesReceived != 1 || stats.Errors != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestEndpointRequiresUpgrade(t *testing.T) {
	srv := NewServer()
	app := fiber.New()
	srv.RegisterRoutes(app)

	req, _ := http.NewRequest(http.MethodGet, Path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}
