package scheduling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memStore is an in-memory stand-in for the pair, proposal and roster stores.
type memStore struct {
	mu        sync.Mutex
	pairs     map[primitive.ObjectID]models.Pair
	proposals map[[2]primitive.ObjectID]models.SlotProposal
	rounds    map[primitive.ObjectID]int
	failWith  error
}

func newMemStore() *memStore {
	return &memStore{
		pairs:     map[primitive.ObjectID]models.Pair{},
		proposals: map[[2]primitive.ObjectID]models.SlotProposal{},
		rounds:    map[primitive.ObjectID]int{},
	}
}

func (m *memStore) put(p models.Pair) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[p.ID] = p
}

func (m *memStore) eventPairs(eventID primitive.ObjectID) []models.Pair {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Pair
	for _, p := range m.pairs {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out
}

func (m *memStore) ReplaceRoster(_ context.Context, eventID primitive.ObjectID, round int, pairs []models.Pair, proposals []models.SlotProposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for id, p := range m.pairs {
		if p.EventID == eventID {
			delete(m.pairs, id)
		}
	}
	for k, sp := range m.proposals {
		if sp.EventID == eventID {
			delete(m.proposals, k)
		}
	}
	for _, p := range pairs {
		m.pairs[p.ID] = p
	}
	for _, sp := range proposals {
		m.proposals[[2]primitive.ObjectID{sp.PairID, sp.ParticipantID}] = sp
	}
	m.rounds[eventID] = round
	return nil
}

func (m *memStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pairs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &p, nil
}

func (m *memStore) update(id primitive.ObjectID, fn func(p *models.Pair)) (*models.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pairs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	fn(&p)
	m.pairs[id] = p
	return &p, nil
}

func (m *memStore) RecordProposal(_ context.Context, id primitive.ObjectID, side models.Side, proposed time.Time) (*models.Pair, error) {
	return m.update(id, func(p *models.Pair) {
		if side == models.SideInterviewer {
			p.InterviewerProposals++
		} else {
			p.IntervieweeProposals++
		}
		p.CurrentProposedTime = proposed
	})
}

func (m *memStore) Confirm(_ context.Context, id, by primitive.ObjectID, at time.Time, link string) (*models.Pair, error) {
	return m.update(id, func(p *models.Pair) {
		p.ScheduledAt = &at
		p.Status = models.PairScheduled
		p.ConfirmedByID = &by
		p.ReminderSentAt = nil
		if link != "" {
			p.MeetingLink = link
		}
	})
}

func (m *memStore) SetMeetingLink(_ context.Context, id primitive.ObjectID, link string) (*models.Pair, error) {
	return m.update(id, func(p *models.Pair) { p.MeetingLink = link })
}

func (m *memStore) Upsert(_ context.Context, sp models.SlotProposal) (*models.SlotProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]primitive.ObjectID{sp.PairID, sp.ParticipantID}
	if prev, ok := m.proposals[key]; ok {
		sp.ID = prev.ID
		sp.CreatedAt = prev.CreatedAt
	} else {
		sp.ID = primitive.NewObjectID()
	}
	m.proposals[key] = sp
	return &sp, nil
}

func (m *memStore) Get(_ context.Context, pairID, participantID primitive.ObjectID) (*models.SlotProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.proposals[[2]primitive.ObjectID{pairID, participantID}]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &sp, nil
}

func (m *memStore) UpcomingScheduled(_ context.Context, from, to time.Time) ([]models.Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Pair
	for _, p := range m.pairs {
		if p.Status != models.PairScheduled || p.ScheduledAt == nil {
			continue
		}
		if p.ScheduledAt.Before(from) || p.ScheduledAt.After(to) {
			continue
		}
		if p.ReminderSentAt != nil && p.MeetingLink != "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) SetMeetingLinkIfEmpty(_ context.Context, id primitive.ObjectID, link string) (bool, error) {
	set := false
	_, err := m.update(id, func(p *models.Pair) {
		if p.MeetingLink == "" {
			p.MeetingLink = link
			set = true
		}
	})
	return set, err
}

func (m *memStore) MarkReminded(_ context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	set := false
	_, err := m.update(id, func(p *models.Pair) {
		if p.ReminderSentAt == nil {
			p.ReminderSentAt = &at
			set = true
		}
	})
	return set, err
}

func (m *memStore) CompleteStartedBefore(_ context.Context, cutoff, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, p := range m.pairs {
		if p.Status == models.PairScheduled && p.ScheduledAt != nil && p.ScheduledAt.Before(cutoff) {
			p.Status = models.PairCompleted
			p.CompletedAt = &at
			m.pairs[id] = p
			n++
		}
	}
	return n, nil
}

// recorder captures Notifier calls.
type recorder struct {
	mu        sync.Mutex
	generated int
	proposals []*time.Time
	confirmed []models.Pair
	links     []models.Pair
	reminders []models.Pair
}

func (r *recorder) PairsGenerated(_ context.Context, _ models.Event, pairs []models.Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generated += len(pairs)
}

func (r *recorder) ProposalCreated(_ context.Context, _ models.Pair, _ primitive.ObjectID, _ []time.Time, common *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proposals = append(r.proposals, common)
}

func (r *recorder) PairConfirmed(_ context.Context, p models.Pair, _ primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmed = append(r.confirmed, p)
}

func (r *recorder) MeetingLinkSet(_ context.Context, p models.Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, p)
}

func (r *recorder) Reminder(_ context.Context, p models.Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminders = append(r.reminders, p)
}

var errBoom = errors.New("boom")

// countingRand wraps a Rand and counts draws.
type countingRand struct {
	Rand
	calls int
}

func (c *countingRand) IntN(n int) int {
	c.calls++
	return c.Rand.IntN(n)
}

// fixedRand always returns v clamped to n-1.
type fixedRand int

func (f fixedRand) IntN(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}
