package service

import (
	"context"
	"sync"

	"velvethour/internal/model"
)

// In-memory fakes for the repository and cache interfaces. Guarded by
// mutexes since the round expiry path runs on the scheduler goroutine.

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*model.Event
}

func newFakeEventRepo(events ...*model.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[string]*model.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[id], nil
}

func (r *fakeEventRepo) GetActive(_ context.Context) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.IsActive {
			return e, nil
		}
	}
	return nil, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]model.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	out := s
	return &out, nil
}

func (r *fakeSessionRepo) GetOpenByEvent(_ context.Context, eventID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.EventID == eventID && s.Status != model.SessionCompleted {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) HasCompleted(_ context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.EventID == eventID && s.Status == model.SessionCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSessionRepo) ListByEvent(_ context.Context, eventID string) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if s.EventID == eventID {
			c := s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]model.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[string]model.Participant)}
}

func (r *fakeParticipantRepo) Create(_ context.Context, p *model.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.ID] = *p
	return nil
}

func (r *fakeParticipantRepo) GetBySessionAndUser(_ context.Context, sessionID, userID string) (*model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.SessionID == sessionID && p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeParticipantRepo) ListBySession(_ context.Context, sessionID string) ([]*model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Participant
	for _, p := range r.participants {
		if p.SessionID == sessionID {
			c := p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) SetStatus(_ context.Context, sessionID string, userIDs []string, status model.ParticipantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		ids[id] = true
	}
	for k, p := range r.participants {
		if p.SessionID == sessionID && ids[p.UserID] {
			p.Status = status
			r.participants[k] = p
		}
	}
	return nil
}

func (r *fakeParticipantRepo) SetStatusAll(_ context.Context, sessionID string, status model.ParticipantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, p := range r.participants {
		if p.SessionID == sessionID {
			p.Status = status
			r.participants[k] = p
		}
	}
	return nil
}

func (r *fakeParticipantRepo) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, p := range r.participants {
		if p.SessionID == sessionID {
			delete(r.participants, k)
		}
	}
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[string]model.Match

	// getHook, when set, runs at the top of GetByID so tests can line up
	// concurrent callers. Set it before any goroutines start.
	getHook func(id string)
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[string]model.Match)}
}

func (r *fakeMatchRepo) CreateMany(_ context.Context, matches []*model.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		r.matches[m.ID] = *m
	}
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id string) (*model.Match, error) {
	if r.getHook != nil {
		r.getHook(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, nil
	}
	out := m
	return &out, nil
}

func (r *fakeMatchRepo) ListBySession(_ context.Context, sessionID string) ([]*model.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Match
	for _, m := range r.matches {
		if m.SessionID == sessionID {
			c := m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) ListByRound(_ context.Context, sessionID string, round int) ([]*model.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Match
	for _, m := range r.matches {
		if m.SessionID == sessionID && m.RoundNumber == round {
			c := m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) Update(_ context.Context, m *model.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID] = *m
	return nil
}

func (r *fakeMatchRepo) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, m := range r.matches {
		if m.SessionID == sessionID {
			delete(r.matches, k)
		}
	}
	return nil
}

type fakeFeedbackRepo struct {
	mu       sync.Mutex
	feedback map[string]model.Feedback
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{feedback: make(map[string]model.Feedback)}
}

func (r *fakeFeedbackRepo) Create(_ context.Context, f *model.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback[f.ID] = *f
	return nil
}

func (r *fakeFeedbackRepo) GetByMatchAndUser(_ context.Context, matchID, fromUserID string) (*model.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.feedback {
		if f.MatchID == matchID && f.FromUserID == fromUserID {
			out := f
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeFeedbackRepo) CountByMatch(_ context.Context, matchID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.feedback {
		if f.MatchID == matchID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFeedbackRepo) ListBySession(_ context.Context, sessionID string) ([]*model.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Feedback
	for _, f := range r.feedback {
		if f.SessionID == sessionID {
			c := f
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeFeedbackRepo) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, f := range r.feedback {
		if f.SessionID == sessionID {
			delete(r.feedback, k)
		}
	}
	return nil
}

type fakePresenceStore struct {
	mu        sync.Mutex
	present   map[string]map[string]bool
	attending map[string]map[string]bool
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{
		present:   make(map[string]map[string]bool),
		attending: make(map[string]map[string]bool),
	}
}

func setKey(m map[string]map[string]bool, eventID string) map[string]bool {
	s, ok := m[eventID]
	if !ok {
		s = make(map[string]bool)
		m[eventID] = s
	}
	return s
}

func (s *fakePresenceStore) AddPresent(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	setKey(s.present, eventID)[userID] = true
	return nil
}

func (s *fakePresenceStore) RemovePresent(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(setKey(s.present, eventID), userID)
	return nil
}

func (s *fakePresenceStore) PresentCount(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.present[eventID]), nil
}

func (s *fakePresenceStore) ClearPresent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.present, eventID)
	return nil
}

func (s *fakePresenceStore) SetAttending(_ context.Context, eventID, userID string, attending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attending {
		setKey(s.attending, eventID)[userID] = true
	} else {
		delete(setKey(s.attending, eventID), userID)
	}
	return nil
}

func (s *fakePresenceStore) AttendingCount(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attending[eventID]), nil
}

func (s *fakePresenceStore) ClearAttending(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attending, eventID)
	return nil
}

// nopStatusCache never hits so every GetStatus computes fresh state.
type nopStatusCache struct{}

func (nopStatusCache) Get(_ context.Context, _, _ string) (*model.StatusResponse, error) {
	return nil, nil
}
func (nopStatusCache) Set(_ context.Context, _, _ string, _ *model.StatusResponse) error { return nil }
func (nopStatusCache) InvalidateEvent(_ context.Context, _ string) error                 { return nil }

type broadcastCall struct {
	EventID string
	UserID  string
	Type    model.MessageType
	Payload interface{}
}

type recordBroadcaster struct {
	mu          sync.Mutex
	calls       []broadcastCall
	disconnects []string
}

func (b *recordBroadcaster) BroadcastToEvent(eventID string, t model.MessageType, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{EventID: eventID, Type: t, Payload: payload})
}

func (b *recordBroadcaster) BroadcastToUser(eventID, userID string, t model.MessageType, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{EventID: eventID, UserID: userID, Type: t, Payload: payload})
}

func (b *recordBroadcaster) ForceDisconnect(eventID, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnects = append(b.disconnects, eventID+"/"+userID)
}

func (b *recordBroadcaster) types() []model.MessageType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.MessageType, len(b.calls))
	for i, c := range b.calls {
		out[i] = c.Type
	}
	return out
}

func (b *recordBroadcaster) has(t model.MessageType) bool {
	for _, got := range b.types() {
		if got == t {
			return true
		}
	}
	return false
}
