package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-filmmeter/internal/log"
	"github.com/teslashibe/go-filmmeter/pkg/camera"
	"github.com/teslashibe/go-filmmeter/pkg/frameio"
	"github.com/teslashibe/go-filmmeter/pkg/meter"
	"github.com/teslashibe/go-filmmeter/pkg/protocol"
	"github.com/teslashibe/go-filmmeter/pkg/readout"
)

var errUnknownSession = errors.New("unknown session")

// TapRequest is the body of a tap. Source "camera" marks a tap on the server
// camera preview, which may be mirrored.
type TapRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Source string  `json:"source,omitempty"`
}

// MeterResponse is returned by calibrate and measure.
type MeterResponse struct {
	Report  *protocol.ReportData `json:"report,omitempty"`
	Error   *protocol.ErrorData  `json:"error,omitempty"`
	Readout readout.Lines        `json:"readout"`
}

// SessionResponse is returned by session endpoints.
type SessionResponse struct {
	State   protocol.StateData `json:"state"`
	Readout readout.Lines      `json:"readout"`
}

func renderer(c *fiber.Ctx) *readout.Renderer {
	lang := c.Query("lang")
	if lang == "" {
		lang = c.Get(fiber.HeaderAcceptLanguage)
	}
	return readout.New(lang)
}

// statusFor picks the HTTP status for a metering error code.
func statusFor(code protocol.Code) int {
	switch {
	case code.Recoverable():
		return fiber.StatusConflict
	case code == protocol.CodeBadRequest:
		return fiber.StatusBadRequest
	case code == protocol.CodeInvalidReference:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) session(c *fiber.Ctx) (*meter.Session, error) {
	sess, ok := s.sessions.Get(c.Params("id"))
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, errUnknownSession.Error())
	}
	return sess, nil
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"version":  Version,
		"sessions": s.sessions.Len(),
		"camera":   s.frameSource() != nil,
		"viewers":  s.cameraHub.ClientCount() + s.reportHub.ClientCount(),
	})
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	id, sess := s.sessions.Create()
	log.Debug("session created", "session", id)
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{
		State:   protocol.NewStateData(id, sess),
		Readout: renderer(c).Prompt(),
	})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(SessionResponse{
		State:   protocol.NewStateData(c.Params("id"), sess),
		Readout: renderer(c).Prompt(),
	})
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if !s.sessions.Delete(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, errUnknownSession.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleTap(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	var req TapRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid tap: "+err.Error())
	}

	p := meter.Point{X: req.X, Y: req.Y}.Clamp()
	if req.Source == "camera" {
		if mgr := s.cameraManager(); mgr != nil {
			p = mgr.GetConfig().MapTap(p)
		}
	}
	sess.RegisterTap(p)

	return c.JSON(SessionResponse{
		State:   protocol.NewStateData(c.Params("id"), sess),
		Readout: renderer(c).Prompt(),
	})
}

func (s *Server) handleCalibrate(c *fiber.Ctx) error {
	return s.meter(c, readout.ModeCalibrate)
}

func (s *Server) handleMeasure(c *fiber.Ctx) error {
	return s.meter(c, readout.ModeMeasure)
}

// meter runs one calibrate or measure request. The frame is the request body
// or, when the body is empty, the latest server camera frame.
func (s *Server) meter(c *fiber.Ctx, mode readout.Mode) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	r := renderer(c)

	frame, err := s.requestFrame(c)
	if err != nil {
		return s.meterError(c, r, err)
	}

	var rep meter.Report
	if mode == readout.ModeCalibrate {
		rep, err = sess.Calibrate(frame)
	} else {
		rep, err = sess.Measure(frame)
	}
	if err != nil {
		return s.meterError(c, r, err)
	}

	data := protocol.NewReportData(rep, mode.String())
	data.SessionID = c.Params("id")
	s.PublishReport(data)

	return c.JSON(MeterResponse{
		Report:  &data,
		Readout: r.Report(mode, rep),
	})
}

func (s *Server) requestFrame(c *fiber.Ctx) (*meter.Frame, error) {
	body := c.Body()
	if len(body) > 0 {
		frame, _, err := frameio.DecodeBytes(body)
		return frame, err
	}
	src := s.frameSource()
	if src == nil {
		return nil, meter.ErrFrameNotReady
	}
	frame, ok := src.Latest()
	if !ok {
		return nil, meter.ErrFrameNotReady
	}
	return frame, nil
}

func (s *Server) meterError(c *fiber.Ctx, r *readout.Renderer, err error) error {
	code := protocol.CodeFor(err)
	status := statusFor(code)
	if status >= fiber.StatusInternalServerError {
		log.Error("metering failed", "session", c.Params("id"), "error", err)
	}
	return c.Status(status).JSON(MeterResponse{
		Error:   &protocol.ErrorData{Code: code, Message: err.Error()},
		Readout: r.Error(err),
	})
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	mgr := s.cameraManager()
	if mgr == nil {
		return fiber.NewError(fiber.StatusNotFound, "no camera attached")
	}
	out := mgr.GetConfigJSON()
	out["capabilities"] = camera.Capabilities()
	return c.JSON(out)
}

func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	mgr := s.cameraManager()
	if mgr == nil {
		return fiber.NewError(fiber.StatusNotFound, "no camera attached")
	}
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid camera config: "+err.Error())
	}
	if err := mgr.UpdateConfig(params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(mgr.GetConfigJSON())
}
