package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"velvethour/internal/model"
	"velvethour/internal/repository"
)

// FeedbackService collects post-round feedback. One submission per user per
// match; a match is feedback-complete once both sides submitted.
type FeedbackService struct {
	sessions    repository.SessionRepo
	matches     repository.MatchRepo
	feedback    repository.FeedbackRepo
	clock       clockwork.Clock
	locks       *EventLocks
	broadcaster Broadcaster
}

func NewFeedbackService(
	sessions repository.SessionRepo,
	matches repository.MatchRepo,
	feedback repository.FeedbackRepo,
	clock clockwork.Clock,
	locks *EventLocks,
) *FeedbackService {
	return &FeedbackService{
		sessions: sessions,
		matches:  matches,
		feedback: feedback,
		clock:    clock,
		locks:    locks,
	}
}

func (s *FeedbackService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit records fromUserID's feedback for matchID. The partner is derived
// from the match itself, never trusted from the request. Returns whether the
// match is now feedback-complete.
func (s *FeedbackService) Submit(ctx context.Context, matchID, fromUserID string, wantToConnect bool, reasonCode string) (*model.Feedback, bool, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load match: %w", err)
	}
	if match == nil {
		return nil, false, ErrMatchNotFound
	}
	if !match.Includes(fromUserID) {
		return nil, false, ErrNotInMatch
	}

	session, err := s.sessions.GetByID(ctx, match.SessionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, false, ErrNoSession
	}

	unlock := s.locks.Lock(session.EventID)
	defer unlock()

	existing, err := s.feedback.GetByMatchAndUser(ctx, matchID, fromUserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up feedback: %w", err)
	}
	if existing != nil {
		return existing, false, ErrDuplicateSubmission
	}

	feedback := &model.Feedback{
		ID:            "f_" + uuid.New().String()[:8],
		MatchID:       matchID,
		SessionID:     match.SessionID,
		FromUserID:    fromUserID,
		ToUserID:      match.Partner(fromUserID),
		WantToConnect: wantToConnect,
		ReasonCode:    reasonCode,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, false, fmt.Errorf("failed to save feedback: %w", err)
	}

	count, err := s.feedback.CountByMatch(ctx, matchID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count feedback: %w", err)
	}
	complete := count >= 2

	log.Info().
		Str("match_id", matchID).
		Str("from_user_id", fromUserID).
		Bool("complete", complete).
		Msg("feedback submitted")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToEvent(session.EventID, model.MsgFeedbackSubmitted, map[string]interface{}{
			"matchId":          matchID,
			"feedbackComplete": complete,
		})
	}
	return feedback, complete, nil
}
