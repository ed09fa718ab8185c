package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"velvethour/internal/model"
)

// ConnState is the agent's link state.
type ConnState string

const (
	StateConnecting ConnState = "connecting"
	StateOpen       ConnState = "open"
	// StateOffline means the backoff budget is spent; only an explicit
	// Reconnect call leaves it.
	StateOffline ConnState = "offline"
	// StateStopped means the server sent admin_disconnect. Terminal until the
	// user re-initiates; a network blip never lands here.
	StateStopped ConnState = "stopped"
)

const (
	resyncMinInterval  = 2 * time.Second
	periodicResync     = 30 * time.Second
	pingInterval       = 10 * time.Second
	defaultBackoffBase = time.Second
	maxReconnectTries  = 5
)

// Conn is the subset of *websocket.Conn the agent reads from.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Agent keeps one endpoint's local view in sync with the server: it renders
// the countdown from the authoritative end timestamp, resyncs canonical
// status on every broadcast, and reconnects with bounded backoff. It holds no
// authority; the countdown hitting zero changes nothing until the server says
// so.
type Agent struct {
	eventID string

	connect     func(ctx context.Context) (Conn, error)
	fetchStatus func(ctx context.Context) (*model.StatusResponse, error)

	clock       clockwork.Clock
	backoffBase time.Duration

	mu          sync.Mutex
	state       ConnState
	status      *model.StatusResponse
	roundEndsAt *time.Time
	lastResync  time.Time
}

// Options wires the agent's transport. Connect dials the event websocket,
// FetchStatus performs the canonical status GET.
type Options struct {
	EventID     string
	Connect     func(ctx context.Context) (Conn, error)
	FetchStatus func(ctx context.Context) (*model.StatusResponse, error)
	Clock       clockwork.Clock
	BackoffBase time.Duration
}

func NewAgent(opts Options) *Agent {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	return &Agent{
		eventID:     opts.EventID,
		connect:     opts.Connect,
		fetchStatus: opts.FetchStatus,
		clock:       opts.Clock,
		backoffBase: opts.BackoffBase,
		state:       StateConnecting,
	}
}

// State returns the current link state.
func (a *Agent) State() ConnState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Status returns the last synced canonical status, or nil before first sync.
func (a *Agent) Status() *model.StatusResponse {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// TimeLeft recomputes the countdown from the authoritative end timestamp
// every time it is called. It never counts down a stored local value, so
// local drift cannot accumulate.
func (a *Agent) TimeLeft() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.roundEndsAt == nil {
		return 0
	}
	left := a.roundEndsAt.Sub(a.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Run connects and keeps the agent synced until ctx is cancelled, the
// backoff budget is exhausted, or the server force-disconnects.
func (a *Agent) Run(ctx context.Context) error {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		a.setState(StateConnecting)
		conn, err := a.connect(ctx)
		if err != nil {
			attempts++
			if attempts >= maxReconnectTries {
				a.setState(StateOffline)
				log.Warn().Str("event_id", a.eventID).Msg("reconnect attempts exhausted, going offline")
				return ErrOffline
			}
			delay := a.backoffBase << (attempts - 1)
			log.Debug().
				Str("event_id", a.eventID).
				Int("attempt", attempts).
				Dur("delay", delay).
				Msg("reconnecting")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.clock.After(delay):
			}
			continue
		}

		attempts = 0
		a.setState(StateOpen)
		a.Resync(ctx)

		err = a.readLoop(ctx, conn)
		conn.Close()
		if errors.Is(err, errAdminStop) {
			a.setState(StateStopped)
			log.Info().Str("event_id", a.eventID).Msg("disconnected by admin")
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Ordinary drop, loop back into backoff.
		attempts = 1
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.clock.After(a.backoffBase):
		}
	}
}

var (
	ErrOffline   = errors.New("connection lost, manual retry required")
	errAdminStop = errors.New("disconnected by admin")
)

func (a *Agent) readLoop(ctx context.Context, conn Conn) error {
	msgs := make(chan []byte)
	errs := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				errs <- err
				return
			}
			select {
			case msgs <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	pinger := a.clock.NewTicker(pingInterval)
	defer pinger.Stop()
	resyncTick := a.clock.NewTicker(periodicResync)
	defer resyncTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return err
		case data := <-msgs:
			if err := a.handleMessage(ctx, data); err != nil {
				return err
			}
		case <-pinger.Chan():
			ping, err := model.NewEnvelope(model.MsgPing, a.eventID, nil)
			if err != nil {
				continue
			}
			payload, _ := json.Marshal(ping)
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return err
			}
		case <-resyncTick.Chan():
			// Missed-broadcast defense, only while a round or break clock is
			// actually running.
			if a.inTimedPhase() {
				a.Resync(ctx)
			}
		}
	}
}

// handleMessage applies one broadcast. Every state-change message triggers a
// throttled resync; the envelope payload itself is never treated as
// authoritative.
func (a *Agent) handleMessage(ctx context.Context, data []byte) error {
	var envelope model.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Debug().Err(err).Msg("dropping undecodable message")
		return nil
	}

	switch envelope.Type {
	case model.MsgAdminDisconnect:
		return errAdminStop
	case model.MsgPong, model.MsgPing:
		return nil
	case model.MsgPresenceUpdate:
		// Presence deltas do not affect session state, no resync needed.
		return nil
	default:
		a.Resync(ctx)
		return nil
	}
}

// Resync fetches canonical status, rate-limited so a flaky connection
// replaying broadcasts cannot stampede the server.
func (a *Agent) Resync(ctx context.Context) {
	a.mu.Lock()
	now := a.clock.Now()
	if now.Sub(a.lastResync) < resyncMinInterval && !a.lastResync.IsZero() {
		a.mu.Unlock()
		return
	}
	a.lastResync = now
	a.mu.Unlock()

	status, err := a.fetchStatus(ctx)
	if err != nil {
		log.Warn().Err(err).Str("event_id", a.eventID).Msg("resync failed")
		return
	}

	a.mu.Lock()
	a.status = status
	if status != nil && status.Session != nil {
		a.roundEndsAt = status.Session.RoundEndsAt
	} else {
		a.roundEndsAt = nil
	}
	a.mu.Unlock()
}

// Reconnect clears the offline state so a subsequent Run may dial again.
// Required after ErrOffline and after an admin disconnect.
func (a *Agent) Reconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateConnecting
}

func (a *Agent) setState(s ConnState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

func (a *Agent) inTimedPhase() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == nil || a.status.Session == nil {
		return false
	}
	switch a.status.Session.Status {
	case model.SessionInRound, model.SessionBreak:
		return true
	}
	return false
}
