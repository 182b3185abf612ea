package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/lunarnav/internal/core/events/bus"
	"github.com/zeusync/lunarnav/internal/core/nav"
	"github.com/zeusync/lunarnav/internal/core/observability/log"
	"github.com/zeusync/lunarnav/internal/core/systems"
)

// Session is one connected viewer. All navigation state is touched only
// from the reader goroutine; bus handlers running elsewhere only write.
type Session struct {
	id     string
	server *Server
	conn   *websocket.Conn
	logger log.Log

	keys   *nav.KeyboardSource
	touch  *nav.TouchSource
	xr     *nav.SessionState
	camera *nav.Camera
	xrRig  *nav.XRRig

	navigator *nav.Navigator
	loop      *systems.Loop
	last      nav.Result

	writeMu   sync.Mutex
	closeOnce sync.Once
	subs      []bus.Subscription
}

func newSession(s *Server, conn *websocket.Conn, mode nav.Mode) (*Session, error) {
	id := uuid.NewString()
	logger := s.logger.With(log.String("session_id", id))

	sess := &Session{
		id:     id,
		server: s,
		conn:   conn,
		logger: logger,
		keys:   nav.NewKeyboardSource(),
		touch:  nav.NewTouchSource(),
		xr:     nav.NewSessionState(),
		camera: nav.NewCamera(mgl64.Vec3(s.config.CameraStart)),
		xrRig:  nav.NewXRRig(mgl64.Vec3(s.config.XRStart)),
	}

	sess.navigator = nav.NewNavigator(s.navCfg, mode, s.world,
		nav.WithBus(s.bus),
		nav.WithLogger(logger),
		nav.WithID(id))
	sess.navigator.Bind(nav.ModeDesktop, sess.keys, sess.camera)
	sess.navigator.Bind(nav.ModeMobile, sess.touch, sess.camera)
	sess.navigator.Bind(nav.ModeImmersive, nav.NewGamepadSource(sess.xr), sess.xrRig)

	sess.loop = systems.NewLoop(logger)
	err := errors.Join(
		sess.loop.Register(systems.NewNavigationSystem(sess.navigator, func(r nav.Result) { sess.last = r })),
		sess.loop.Register(systems.SystemFunc{
			SystemName:     "pose",
			SystemPriority: systems.PriorityLow,
			Fn:             func(float64) error { return sess.sendPose() },
		}),
	)
	if err != nil {
		return nil, err
	}

	if err := sess.subscribe(); err != nil {
		sess.unsubscribe()
		return nil, err
	}
	return sess, nil
}

func (s *Session) subscribe() error {
	for _, eventType := range []string{nav.EventCollisionBegin, nav.EventCollisionEnd} {
		sub, err := s.server.bus.Subscribe(eventType, s.onCollision)
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
	}
	sub, err := s.server.bus.Subscribe(EventSettingsChanged, s.onSettings)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Session) unsubscribe() {
	for _, sub := range s.subs {
		_ = s.server.bus.Unsubscribe(sub)
	}
	s.subs = nil
}

func (s *Session) onCollision(e bus.Event) error {
	if e.Source() != s.id {
		return nil
	}
	ce, ok := e.Data().(nav.CollisionEvent)
	if !ok {
		return nil
	}
	phase := "begin"
	if e.Type() == nav.EventCollisionEnd {
		phase = "end"
	}
	return s.write(CollisionMessage{
		Type:   MessageCollision,
		Phase:  phase,
		Point:  vec(ce.Point),
		Object: ce.Hit.Name,
	})
}

func (s *Session) onSettings(e bus.Event) error {
	ev, ok := e.Data().(SettingsEvent)
	if !ok {
		return nil
	}
	return s.write(SettingsMessage{Type: MessageSettings, ETag: ev.ETag, Cleared: ev.Cleared})
}

// run reads until the connection drops.
func (s *Session) run() {
	defer s.close(websocket.CloseNormalClosure, "")

	s.conn.SetReadLimit(s.server.config.ReadLimit)
	rig := s.navigator.Rig()
	if err := s.write(WelcomeMessage{
		Type:    MessageWelcome,
		Session: s.id,
		Mode:    s.navigator.Mode().String(),
		Pose:    vec(rig.Position()),
	}); err != nil {
		return
	}

	s.logger.Debug("Session handler started")
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Failed to receive message", log.Error(err))
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.reportError(fmt.Errorf("%w: %v", ErrInvalidMessage, err))
			continue
		}
		if err := s.handleMessage(msg); err != nil {
			s.reportError(err)
		}
	}
	s.logger.Debug("Session handler stopped")
}

func (s *Session) handleMessage(msg ClientMessage) error {
	switch msg.Type {
	case MessageKey:
		if msg.Down {
			s.keys.KeyDown(msg.Code)
		} else {
			s.keys.KeyUp(msg.Code)
		}
	case MessageTouch:
		d, ok := nav.ParseDirection(msg.Button)
		if !ok {
			return fmt.Errorf("%w: touch button %q", ErrInvalidMessage, msg.Button)
		}
		if msg.Down {
			s.touch.TouchStart(d)
		} else {
			s.touch.TouchEnd(d)
		}
	case MessageXR:
		sources := make([]nav.XRInputSource, 0, len(msg.Sources))
		for _, src := range msg.Sources {
			sources = append(sources, src.toNav())
		}
		s.xr.Update(msg.Presenting, sources)
	case MessageLook:
		s.camera.SetOrientation(msg.Yaw, msg.Pitch)
	case MessageHead:
		if len(msg.Orientation) != 4 {
			return fmt.Errorf("%w: head orientation needs 4 components", ErrInvalidMessage)
		}
		o := msg.Orientation
		s.xrRig.SetHeadOrientation(mgl64.Quat{W: o[3], V: mgl64.Vec3{o[0], o[1], o[2]}})
	case MessageMode:
		return s.switchMode(msg.Mode)
	case MessageTick:
		// Failures are logged by the loop; the session keeps going.
		_ = s.loop.Frame(msg.DT)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return nil
}

func (s *Session) switchMode(name string) error {
	mode, err := nav.ParseMode(name)
	if err != nil {
		return err
	}
	if !s.server.modeAllowed(mode) {
		return fmt.Errorf("%w: %s", ErrModeNotAllowed, mode)
	}
	// Held buttons of the old device would otherwise keep driving.
	s.keys.Reset()
	s.touch.Reset()
	return s.navigator.SetMode(mode)
}

func (s *Session) sendPose() error {
	rig := s.navigator.Rig()
	if rig == nil {
		return nil
	}
	return s.write(PoseMessage{
		Type:       MessagePose,
		Mode:       s.navigator.Mode().String(),
		Position:   vec(rig.Position()),
		Direction:  vec(rig.Direction()),
		Collided:   s.navigator.Collided(),
		Collision:  s.last.Collision.String(),
		Transition: s.last.Transition.String(),
	})
}

func (s *Session) reportError(err error) {
	s.logger.Debug("Rejected client message", log.Error(err))
	if werr := s.write(ErrorMessage{Type: MessageError, Message: err.Error()}); werr != nil {
		s.logger.Warn("Failed to send error", log.Error(werr))
	}
}

func (s *Session) write(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
	return s.conn.WriteJSON(v)
}

func (s *Session) close(code int, reason string) {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(s.server.config.WriteTimeout))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
}
