package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"velvethour/internal/cache"
	"velvethour/internal/config"
	"velvethour/internal/model"
	"velvethour/internal/pairing"
	"velvethour/internal/presence"
	"velvethour/internal/repository"
)

// SessionService owns the session/round state machine. It is the only
// mutator of canonical session state; every transition goes through the
// per-event lock and ends in a full-snapshot broadcast.
type SessionService struct {
	cfg          *config.Config
	events       repository.EventRepo
	sessions     repository.SessionRepo
	participants repository.ParticipantRepo
	matches      repository.MatchRepo
	feedback     repository.FeedbackRepo
	tracker      *presence.Tracker
	statusCache  cache.StatusCache
	engine       *pairing.Engine
	clock        clockwork.Clock
	locks        *EventLocks
	sched        *roundScheduler
	broadcaster  Broadcaster
}

func NewSessionService(
	cfg *config.Config,
	events repository.EventRepo,
	sessions repository.SessionRepo,
	participants repository.ParticipantRepo,
	matches repository.MatchRepo,
	feedback repository.FeedbackRepo,
	tracker *presence.Tracker,
	statusCache cache.StatusCache,
	engine *pairing.Engine,
	clock clockwork.Clock,
	locks *EventLocks,
) *SessionService {
	s := &SessionService{
		cfg:          cfg,
		events:       events,
		sessions:     sessions,
		participants: participants,
		matches:      matches,
		feedback:     feedback,
		tracker:      tracker,
		statusCache:  statusCache,
		engine:       engine,
		clock:        clock,
		locks:        locks,
	}
	s.sched = newRoundScheduler(clock, s.handleRoundExpiry)
	return s
}

// SetBroadcaster sets the broadcaster for real-time fan-out (the ws hub).
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartSession transitions not_started -> waiting. Gated on the live presence
// count and on the event never having completed a session.
func (s *SessionService) StartSession(ctx context.Context, eventID string) (*model.Session, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	if _, err := s.activeEvent(ctx, eventID); err != nil {
		return nil, err
	}

	open, err := s.sessions.GetOpenByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open session: %w", err)
	}
	if open != nil {
		return nil, ErrSessionInProgress
	}

	completed, err := s.sessions.HasCompleted(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check completed sessions: %w", err)
	}
	stats, err := s.tracker.Stats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}

	min := presence.MinParticipants(s.cfg.DefaultSession.TotalRounds)
	gate := presence.ComputeGate(stats.PresentCount, min, completed)
	if !gate.CanStart {
		if gate.Reason == presence.ReasonAlreadyRun {
			return nil, ErrAlreadyRun
		}
		return nil, fmt.Errorf("%w: %d present, need %d", ErrNotEnoughPresent, stats.PresentCount, min)
	}

	now := s.clock.Now()
	session := &model.Session{
		ID:           "s_" + uuid.New().String()[:8],
		EventID:      eventID,
		Status:       model.SessionWaiting,
		CurrentRound: 0,
		Config:       s.cfg.DefaultSession,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().
		Str("event_id", eventID).
		Str("session_id", session.ID).
		Int("present", stats.PresentCount).
		Msg("session started")

	s.broadcastSnapshot(ctx, model.MsgSessionStarted, session)
	return session, nil
}

// Join adds (or returns) the participant for userID in the event's open
// session. Idempotent per user: a reconnect never creates a duplicate.
func (s *SessionService) Join(ctx context.Context, eventID, userID, displayName string) (*model.Participant, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	if _, err := s.activeEvent(ctx, eventID); err != nil {
		return nil, err
	}
	session, err := s.openSession(ctx, eventID)
	if err != nil {
		return nil, err
	}

	existing, err := s.participants.GetBySessionAndUser(ctx, session.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	participant := &model.Participant{
		ID:          "p_" + uuid.New().String()[:8],
		SessionID:   session.ID,
		UserID:      userID,
		DisplayName: displayName,
		Status:      model.ParticipantWaiting,
		JoinedAt:    s.clock.Now(),
	}
	if err := s.participants.Create(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	if err := s.tracker.SetAttending(ctx, eventID, userID, true); err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("failed to flag attendance on join")
	}

	log.Info().
		Str("event_id", eventID).
		Str("session_id", session.ID).
		Str("user_id", userID).
		Msg("participant joined")

	s.invalidateStatus(ctx, eventID)
	s.broadcast(eventID, model.MsgParticipantJoined, participant)
	return participant, nil
}

// SetAttendance records or clears a user's registered attendance intent.
// This is independent of the live-connection count.
func (s *SessionService) SetAttendance(ctx context.Context, eventID, userID string, attending bool) error {
	if _, err := s.activeEvent(ctx, eventID); err != nil {
		return err
	}
	return s.tracker.SetAttending(ctx, eventID, userID, attending)
}

// StartRound transitions waiting/break -> in_round. With manual set, the
// admin-built assignment is validated against the full session history; with
// manual nil the pairing engine computes the round automatically.
func (s *SessionService) StartRound(ctx context.Context, eventID string, manual *pairing.ManualAssignment) (*model.Session, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	session, err := s.openSession(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionWaiting && session.Status != model.SessionBreak {
		return nil, ErrInvalidTransition
	}
	if session.CurrentRound >= session.Config.TotalRounds {
		return nil, ErrRoundLimit
	}

	parts, err := s.participants.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	history, err := s.sessionHistory(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	var pairs []pairing.Pair
	if manual != nil {
		ids, names := participantIndex(parts)
		result := pairing.ValidateManualAssignment(*manual, history, names, ids)
		if len(result.Violations) > 0 {
			return nil, &ManualValidationError{Result: result}
		}
		if result.CompleteZones == 0 {
			return nil, ErrNothingToStart
		}
		pairs = manual.Pairs()
	} else {
		ids, _ := participantIndex(parts)
		result := s.engine.ComputePairing(ids, history)
		pairs = result.Pairs
		if len(result.LeftOver) > 0 {
			log.Info().
				Str("session_id", session.ID).
				Strs("left_over", result.LeftOver).
				Msg("participants sitting out this round")
		}
	}

	round := session.CurrentRound + 1
	now := s.clock.Now()
	matches := make([]*model.Match, 0, len(pairs))
	paired := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		matches = append(matches, &model.Match{
			ID:           "m_" + uuid.New().String()[:8],
			SessionID:    session.ID,
			RoundNumber:  round,
			User1ID:      p.User1ID,
			User2ID:      p.User2ID,
			MatchNumber:  p.MatchNumber,
			MatchColor:   p.Color,
			ForcedRepeat: p.ForcedRepeat,
			CreatedAt:    now,
		})
		paired = append(paired, p.User1ID, p.User2ID)
	}
	if err := s.matches.CreateMany(ctx, matches); err != nil {
		return nil, fmt.Errorf("failed to persist matches: %w", err)
	}

	// Paired users become matched (in_round once they confirm); anyone
	// unpaired sits the round out in waiting.
	if err := s.participants.SetStatusAll(ctx, session.ID, model.ParticipantWaiting); err != nil {
		return nil, fmt.Errorf("failed to reset participant statuses: %w", err)
	}
	if err := s.participants.SetStatus(ctx, session.ID, paired, model.ParticipantMatched); err != nil {
		return nil, fmt.Errorf("failed to mark paired participants: %w", err)
	}

	ends := now.Add(time.Duration(session.Config.RoundDurationSec) * time.Second)
	session.Status = model.SessionInRound
	session.CurrentRound = round
	session.RoundStartedAt = &now
	session.RoundEndsAt = &ends
	session.UpdatedAt = now
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	s.sched.Schedule(session.ID, ends)

	log.Info().
		Str("event_id", eventID).
		Str("session_id", session.ID).
		Int("round", round).
		Int("matches", len(matches)).
		Msg("round started")

	s.broadcastSnapshot(ctx, model.MsgRoundStarted, session)
	return session, nil
}

// ValidateRound is the dry-run used by the admin zone picker; it never
// mutates state.
func (s *SessionService) ValidateRound(ctx context.Context, eventID string, manual pairing.ManualAssignment) (pairing.ValidationResult, error) {
	session, err := s.openSession(ctx, eventID)
	if err != nil {
		return pairing.ValidationResult{}, err
	}
	parts, err := s.participants.ListBySession(ctx, session.ID)
	if err != nil {
		return pairing.ValidationResult{}, fmt.Errorf("failed to list participants: %w", err)
	}
	history, err := s.sessionHistory(ctx, session.ID)
	if err != nil {
		return pairing.ValidationResult{}, err
	}
	ids, names := participantIndex(parts)
	return pairing.ValidateManualAssignment(manual, history, names, ids), nil
}

// CloseRound transitions in_round -> break, or -> completed after the final
// round. Reached by admin action or by the expiry timer; both paths converge
// here under the event lock.
func (s *SessionService) CloseRound(ctx context.Context, eventID string) (*model.Session, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	session, err := s.openSession(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionInRound {
		return nil, ErrInvalidTransition
	}
	if err := s.closeRoundLocked(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) closeRoundLocked(ctx context.Context, session *model.Session) error {
	s.sched.Cancel(session.ID)
	now := s.clock.Now()

	if session.CurrentRound >= session.Config.TotalRounds {
		session.Status = model.SessionCompleted
		session.RoundStartedAt = nil
		session.RoundEndsAt = nil
		session.UpdatedAt = now
		if err := s.sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to complete session: %w", err)
		}
		if err := s.participants.SetStatusAll(ctx, session.ID, model.ParticipantCompleted); err != nil {
			return fmt.Errorf("failed to complete participants: %w", err)
		}
		log.Info().
			Str("event_id", session.EventID).
			Str("session_id", session.ID).
			Msg("final round closed, session completed")
		s.broadcastSnapshot(ctx, model.MsgSessionEnded, session)
		return nil
	}

	ends := now.Add(time.Duration(session.Config.BreakDurationSec) * time.Second)
	session.Status = model.SessionBreak
	session.RoundStartedAt = nil
	session.RoundEndsAt = &ends
	session.UpdatedAt = now
	if err := s.sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if err := s.participants.SetStatusAll(ctx, session.ID, model.ParticipantWaiting); err != nil {
		return fmt.Errorf("failed to reset participants for break: %w", err)
	}

	log.Info().
		Str("event_id", session.EventID).
		Str("session_id", session.ID).
		Int("round", session.CurrentRound).
		Msg("round closed, break started")

	s.broadcastSnapshot(ctx, model.MsgRoundClosed, session)
	return nil
}

// handleRoundExpiry fires from the scheduler. State is re-checked under the
// event lock: if an admin closed or reset in the meantime, the stale firing
// is a no-op, so a natural expiry and a reset can never both apply.
func (s *SessionService) handleRoundExpiry(sessionID string) {
	ctx := context.Background()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("round expiry: failed to load session")
		return
	}
	if session == nil {
		return
	}

	unlock := s.locks.Lock(session.EventID)
	defer unlock()

	session, err = s.sessions.GetByID(ctx, sessionID)
	if err != nil || session == nil || session.Status != model.SessionInRound {
		return
	}
	log.Info().
		Str("session_id", sessionID).
		Int("round", session.CurrentRound).
		Msg("round timer expired")
	if err := s.closeRoundLocked(ctx, session); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("round expiry: close failed")
	}
}

// EndSession force-completes the open session from any open state.
func (s *SessionService) EndSession(ctx context.Context, eventID string) (*model.Session, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	session, err := s.openSession(ctx, eventID)
	if err != nil {
		return nil, err
	}

	s.sched.Cancel(session.ID)
	session.Status = model.SessionCompleted
	session.RoundStartedAt = nil
	session.RoundEndsAt = nil
	session.UpdatedAt = s.clock.Now()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	if err := s.participants.SetStatusAll(ctx, session.ID, model.ParticipantCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete participants: %w", err)
	}

	log.Info().Str("event_id", eventID).Str("session_id", session.ID).Msg("session ended by admin")
	s.broadcastSnapshot(ctx, model.MsgSessionEnded, session)
	return session, nil
}

// ResetSession destroys every session for the event along with its
// participants, matches, and feedback. In-flight round timers are cancelled
// under the same lock, so an expiry racing the reset cannot apply.
func (s *SessionService) ResetSession(ctx context.Context, eventID string) error {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	sessions, err := s.sessions.ListByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	for _, session := range sessions {
		s.sched.Cancel(session.ID)
		if err := s.feedback.DeleteBySession(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to delete feedback: %w", err)
		}
		if err := s.matches.DeleteBySession(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to delete matches: %w", err)
		}
		if err := s.participants.DeleteBySession(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to delete participants: %w", err)
		}
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}
	if err := s.tracker.ClearAttendance(ctx, eventID); err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("failed to clear attendance on reset")
	}

	log.Info().Str("event_id", eventID).Int("sessions", len(sessions)).Msg("session reset")

	s.invalidateStatus(ctx, eventID)
	s.broadcast(eventID, model.MsgSessionReset, nil)
	return nil
}

// UpdateConfig changes the open session's round parameters. Rejected while a
// round is running so an in-flight timer never disagrees with the config.
func (s *SessionService) UpdateConfig(ctx context.Context, eventID string, cfg model.SessionConfig) (*model.Session, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	if err := config.ValidateSessionConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	session, err := s.openSession(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionInRound {
		return nil, ErrInvalidTransition
	}
	if cfg.TotalRounds < session.CurrentRound {
		return nil, fmt.Errorf("%w: totalRounds below rounds already played", ErrInvalidConfig)
	}

	session.Config = cfg
	session.UpdatedAt = s.clock.Now()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update config: %w", err)
	}

	s.invalidateStatus(ctx, eventID)
	s.broadcast(eventID, model.MsgConfigUpdated, session)
	return session, nil
}

// ConfirmMatch records one side's confirmation; the participant moves to
// in_round once they confirm.
func (s *SessionService) ConfirmMatch(ctx context.Context, matchID, userID string) (*model.Match, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if !match.Includes(userID) {
		return nil, ErrNotInMatch
	}

	session, err := s.sessions.GetByID(ctx, match.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrNoSession
	}

	unlock := s.locks.Lock(session.EventID)
	defer unlock()

	// Re-read both under the lock: a concurrent confirm for the partner, or
	// a round close, may have changed them between the lookup and here.
	session, err = s.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrNoSession
	}
	if session.Status != model.SessionInRound || match.RoundNumber != session.CurrentRound {
		return nil, ErrInvalidTransition
	}
	match, err = s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	if match.User1ID == userID {
		match.ConfirmedUser1 = true
	} else {
		match.ConfirmedUser2 = true
	}
	if err := s.matches.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to confirm match: %w", err)
	}
	if err := s.participants.SetStatus(ctx, session.ID, []string{userID}, model.ParticipantInRound); err != nil {
		return nil, fmt.Errorf("failed to update participant status: %w", err)
	}

	s.invalidateStatus(ctx, session.EventID)
	// Confirmation only concerns the two people in the match.
	s.broadcastUser(session.EventID, match.User1ID, model.MsgMatchConfirmed, match)
	s.broadcastUser(session.EventID, match.User2ID, model.MsgMatchConfirmed, match)
	return match, nil
}

// GetStatus builds the canonical per-user view. Snapshots are cached for a
// couple of seconds to absorb the post-broadcast resync herd.
func (s *SessionService) GetStatus(ctx context.Context, eventID, userID string) (*model.StatusResponse, error) {
	if cached, err := s.statusCache.Get(ctx, eventID, userID); err == nil && cached != nil {
		return cached, nil
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	status := &model.StatusResponse{}
	if !event.IsActive {
		return status, nil
	}

	session, err := s.sessions.GetOpenByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return status, nil
	}

	status.IsActive = true
	status.Session = session

	participant, err := s.participants.GetBySessionAndUser(ctx, session.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}
	status.Participant = participant

	if session.RoundEndsAt != nil {
		if left := int(session.RoundEndsAt.Sub(s.clock.Now()).Seconds()); left > 0 {
			status.TimeLeftSec = left
		}
	}

	if participant != nil && session.Status == model.SessionInRound {
		roundMatches, err := s.matches.ListByRound(ctx, session.ID, session.CurrentRound)
		if err != nil {
			return nil, fmt.Errorf("failed to load matches: %w", err)
		}
		for _, m := range roundMatches {
			if m.Includes(userID) {
				status.CurrentMatch = m
				partner, err := s.participants.GetBySessionAndUser(ctx, session.ID, m.Partner(userID))
				if err == nil && partner != nil {
					status.PartnerName = partner.DisplayName
				}
				break
			}
		}
	}

	if err := s.statusCache.Set(ctx, eventID, userID, status); err != nil {
		log.Debug().Err(err).Str("event_id", eventID).Msg("failed to cache status")
	}
	return status, nil
}

// AttendanceStats is the admin view of the start gate and feedback progress.
func (s *SessionService) AttendanceStats(ctx context.Context, eventID string) (*model.AttendanceStats, error) {
	if _, err := s.activeEvent(ctx, eventID); err != nil {
		return nil, err
	}

	stats, err := s.tracker.Stats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}
	completed, err := s.sessions.HasCompleted(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check completed sessions: %w", err)
	}

	totalRounds := s.cfg.DefaultSession.TotalRounds
	session, err := s.sessions.GetOpenByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session != nil {
		totalRounds = session.Config.TotalRounds
	}

	min := presence.MinParticipants(totalRounds)
	gate := presence.ComputeGate(stats.PresentCount, min, completed)

	out := &model.AttendanceStats{
		AttendingCount:  stats.AttendingCount,
		PresentCount:    stats.PresentCount,
		MinParticipants: min,
		CanStart:        gate.CanStart,
		Reason:          gate.Reason,
	}

	if session != nil {
		matches, err := s.matches.ListBySession(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list matches: %w", err)
		}
		feedback, err := s.feedback.ListBySession(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list feedback: %w", err)
		}
		perMatch := make(map[string]int)
		for _, f := range feedback {
			perMatch[f.MatchID]++
		}
		out.MatchesDone = len(matches)
		for _, m := range matches {
			if perMatch[m.ID] >= 2 {
				out.FeedbackComplete++
			}
		}
	}
	return out, nil
}

// ClearConnections is the admin "kick everyone" action: presence counters are
// dropped and every live connection gets the terminal disconnect.
func (s *SessionService) ClearConnections(ctx context.Context, eventID string) error {
	if _, err := s.activeEvent(ctx, eventID); err != nil {
		return err
	}
	if err := s.tracker.Clear(ctx, eventID); err != nil {
		return fmt.Errorf("failed to clear presence: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.ForceDisconnect(eventID, "")
	}
	log.Info().Str("event_id", eventID).Msg("connections cleared by admin")
	return nil
}

func (s *SessionService) activeEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil || !event.IsActive {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *SessionService) openSession(ctx context.Context, eventID string) (*model.Session, error) {
	session, err := s.sessions.GetOpenByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrNoSession
	}
	return session, nil
}

// sessionHistory collects every pair already matched in the session, across
// all rounds, as required by the no-repeat invariant.
func (s *SessionService) sessionHistory(ctx context.Context, sessionID string) (pairing.History, error) {
	matches, err := s.matches.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	history := make(pairing.History, len(matches))
	for _, m := range matches {
		history[pairing.Key(m.User1ID, m.User2ID)] = true
	}
	return history, nil
}

func participantIndex(parts []*model.Participant) ([]string, map[string]string) {
	ids := make([]string, 0, len(parts))
	names := make(map[string]string, len(parts))
	for _, p := range parts {
		ids = append(ids, p.UserID)
		names[p.UserID] = p.DisplayName
	}
	return ids, names
}

func (s *SessionService) invalidateStatus(ctx context.Context, eventID string) {
	if err := s.statusCache.InvalidateEvent(ctx, eventID); err != nil {
		log.Debug().Err(err).Str("event_id", eventID).Msg("failed to invalidate status cache")
	}
}

func (s *SessionService) broadcast(eventID string, t model.MessageType, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToEvent(eventID, t, payload)
}

func (s *SessionService) broadcastUser(eventID, userID string, t model.MessageType, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToUser(eventID, userID, t, payload)
}

// broadcastSnapshot sends the full session state so any single message is
// enough for a client to resync after a reconnect.
func (s *SessionService) broadcastSnapshot(ctx context.Context, t model.MessageType, session *model.Session) {
	if s.broadcaster == nil {
		return
	}
	s.invalidateStatus(ctx, session.EventID)

	snapshot := &model.SessionSnapshot{Session: session}
	parts, err := s.participants.ListBySession(ctx, session.ID)
	if err == nil {
		snapshot.Participants = parts
	}
	if session.CurrentRound > 0 {
		matches, err := s.matches.ListByRound(ctx, session.ID, session.CurrentRound)
		if err == nil {
			snapshot.Matches = matches
		}
	}
	s.broadcaster.BroadcastToEvent(session.EventID, t, snapshot)
}
