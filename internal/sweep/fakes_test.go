package sweep_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/marathon/internal/decay"
	"github.com/2beens/marathon/internal/delivery"
	"github.com/2beens/marathon/internal/marathon"
	"github.com/2beens/marathon/internal/progress"
	"github.com/2beens/marathon/internal/templates"
	"github.com/2beens/marathon/pkg"
)

type enrollmentRow struct {
	enrollment marathon.Enrollment
	active     bool
}

// fakeStore keeps marathons, enrollments, participants, progress and diaries in memory.
type fakeStore struct {
	mutex        sync.Mutex
	contents     map[int64]*marathon.Content
	enrollments  []*enrollmentRow
	participants map[string]*marathon.Participant
	progress     []progress.ExerciseProgress
	diaries      []decay.PhotoDiary
	finished     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contents:     make(map[int64]*marathon.Content),
		participants: make(map[string]*marathon.Participant),
	}
}

func (s *fakeStore) addMarathon(content marathon.Content) {
	s.contents[content.Marathon.ID] = &content
}

func (s *fakeStore) enroll(userID string, marathonID int64, start time.Time) {
	s.participants[userID] = &marathon.Participant{
		UserID:    userID,
		Email:     userID + "@example.com",
		FirstName: userID,
	}
	s.enrollments = append(s.enrollments, &enrollmentRow{
		enrollment: marathon.Enrollment{UserID: userID, MarathonID: marathonID, StartDate: start},
		active:     true,
	})
}

func (s *fakeStore) ListActiveEnrollments(_ context.Context, asOf time.Time) ([]marathon.Enrollment, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var list []marathon.Enrollment
	for _, row := range s.enrollments {
		if row.active && !pkg.AddDays(row.enrollment.StartDate, -1).After(asOf) {
			list = append(list, row.enrollment)
		}
	}
	return list, nil
}

func (s *fakeStore) FinishEnrollment(_ context.Context, userID string, marathonID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, row := range s.enrollments {
		if row.enrollment.UserID == userID && row.enrollment.MarathonID == marathonID {
			row.active = false
			s.finished = append(s.finished, userID)
			return nil
		}
	}
	return marathon.ErrEnrollmentNotFound
}

func (s *fakeStore) GetParticipant(_ context.Context, userID string) (*marathon.Participant, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	p, ok := s.participants[userID]
	if !ok {
		return nil, marathon.ErrParticipantNotFound
	}
	return p, nil
}

func (s *fakeStore) GetContent(_ context.Context, marathonID int64) (*marathon.Content, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	c, ok := s.contents[marathonID]
	if !ok {
		return nil, marathon.ErrMarathonNotFound
	}
	return c, nil
}

func (s *fakeStore) ListForUser(_ context.Context, userID string, marathonID int64) ([]progress.ExerciseProgress, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var list []progress.ExerciseProgress
	for _, p := range s.progress {
		if p.UserID == userID && p.MarathonID == marathonID {
			list = append(list, p)
		}
	}
	return list, nil
}

func (s *fakeStore) ListExpiring(_ context.Context, asOf time.Time) ([]decay.PhotoDiary, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var list []decay.PhotoDiary
	for _, d := range s.diaries {
		if !d.ExpiresOn.Before(asOf) && !pkg.AddDays(d.ExpiresOn, -7).After(asOf) {
			list = append(list, d)
		}
	}
	return list, nil
}

type fakeTemplates struct {
	byType map[templates.Type]templates.Template
}

func newFakeTemplates(skip ...templates.Type) *fakeTemplates {
	defaults, err := templates.Defaults()
	if err != nil {
		panic(err)
	}
	f := &fakeTemplates{byType: make(map[templates.Type]templates.Template)}
	for _, t := range defaults {
		f.byType[t.Type] = t
	}
	for _, t := range skip {
		delete(f.byType, t)
	}
	return f
}

func (f *fakeTemplates) Get(_ context.Context, templateType templates.Type) (*templates.Template, error) {
	t, ok := f.byType[templateType]
	if !ok {
		return nil, &templates.TemplateNotFoundError{Type: templateType}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("stored template %s: %w", templateType, err)
	}
	return &t, nil
}

// recordingGateway records delivered messages. failFor makes sends to an address fail.
type recordingGateway struct {
	mutex    sync.Mutex
	messages []delivery.Message
	failFor  map[string]bool
	// entered, when set, is closed on the first send, which then blocks until release is closed
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *recordingGateway) Send(_ context.Context, msg delivery.Message) error {
	if g.entered != nil {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.failFor[msg.To] {
		return &delivery.DeliveryError{To: msg.To, Transient: true, Err: context.DeadlineExceeded}
	}
	g.messages = append(g.messages, msg)
	return nil
}

func (g *recordingGateway) subjects(to string) []string {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	var subjects []string
	for _, m := range g.messages {
		if m.To == to {
			subjects = append(subjects, m.Subject)
		}
	}
	return subjects
}

func (g *recordingGateway) count() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.messages)
}
