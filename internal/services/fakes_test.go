package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-session-service/internal/cache"
	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/validator"
)

// fakeStore is an in-memory Repository with transaction rollback
type fakeStore struct {
	mu sync.Mutex

	nextID    uint
	sets      map[uint]models.ExamSet
	questions map[uint]models.Question
	sessions  map[uint]models.ExamSession
	answers   map[[2]uint]models.Answer

	// failSessionCreate makes the next session insert fail
	failSessionCreate error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sets:      make(map[uint]models.ExamSet),
		questions: make(map[uint]models.Question),
		sessions:  make(map[uint]models.ExamSession),
		answers:   make(map[[2]uint]models.Answer),
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

// seedExamSet creates a set of total questions per session with pool questions.
// Question i has correct answer (i%4)+1.
func (f *fakeStore) seedExamSet(name string, total, pool int) (*models.ExamSet, []uint) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := models.ExamSet{ID: f.id(), Name: name, TotalQuestions: total}
	f.sets[set.ID] = set

	ids := make([]uint, 0, pool)
	for i := 0; i < pool; i++ {
		q := models.Question{
			ID:                 f.id(),
			ExamSetID:          set.ID,
			Text:               fmt.Sprintf("%s question %d", name, i+1),
			Choices:            []string{"a", "b", "c", "d"},
			CorrectAnswer:      (i % 4) + 1,
			Explanation:        "because",
			ChoiceExplanations: []string{"ea", "eb", "ec", "ed"},
		}
		f.questions[q.ID] = q
		ids = append(ids, q.ID)
	}
	return &set, ids
}

func (f *fakeStore) removeQuestions(ids ...uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.questions, id)
	}
}

func (f *fakeStore) session(id uint) (models.ExamSession, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	return s, ok
}

func (f *fakeStore) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeStore) answersFor(sessionID uint) []models.Answer {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Answer
	for key, a := range f.answers {
		if key[0] == sessionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionOrder < out[j].QuestionOrder })
	return out
}

func (f *fakeStore) correctAnswer(questionID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.questions[questionID].CorrectAnswer
}

// ===== Repository =====

func (f *fakeStore) ExamSet() repositories.ExamSetRepository     { return fakeExamSets{f} }
func (f *fakeStore) Question() repositories.QuestionRepository   { return fakeQuestions{f} }
func (f *fakeStore) Session() repositories.ExamSessionRepository { return fakeSessions{f} }
func (f *fakeStore) Answer() repositories.AnswerRepository       { return fakeAnswers{f} }
func (f *fakeStore) User() repositories.UserRepository           { return nil }
func (f *fakeStore) Ping(context.Context) error                  { return nil }
func (f *fakeStore) Close() error                                { return nil }

func (f *fakeStore) WithTransaction(_ context.Context, fn func(repositories.Repository) error) error {
	f.mu.Lock()
	snapshot := struct {
		nextID    uint
		sets      map[uint]models.ExamSet
		questions map[uint]models.Question
		sessions  map[uint]models.ExamSession
		answers   map[[2]uint]models.Answer
	}{f.nextID, maps.Clone(f.sets), maps.Clone(f.questions), maps.Clone(f.sessions), maps.Clone(f.answers)}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.nextID = snapshot.nextID
		f.sets = snapshot.sets
		f.questions = snapshot.questions
		f.sessions = snapshot.sessions
		f.answers = snapshot.answers
		f.mu.Unlock()
		return err
	}
	return nil
}

type fakeExamSets struct{ f *fakeStore }

func (r fakeExamSets) Create(_ context.Context, _ *gorm.DB, set *models.ExamSet) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	set.ID = r.f.id()
	r.f.sets[set.ID] = *set
	return nil
}

func (r fakeExamSets) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.ExamSet, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	set, ok := r.f.sets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &set, nil
}

func (r fakeExamSets) GetByName(_ context.Context, _ *gorm.DB, name string) (*models.ExamSet, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, set := range r.f.sets {
		if strings.EqualFold(set.Name, name) {
			return &set, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r fakeExamSets) List(_ context.Context, _ *gorm.DB, filters repositories.ExamSetFilters) ([]*models.ExamSet, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.ExamSet
	for _, id := range slices.Sorted(maps.Keys(r.f.sets)) {
		set := r.f.sets[id]
		if filters.Query != "" && !strings.Contains(strings.ToLower(set.Name), strings.ToLower(filters.Query)) {
			continue
		}
		for _, q := range r.f.questions {
			if q.ExamSetID == id {
				set.AvailableQuestions++
			}
		}
		out = append(out, &set)
	}
	return out, int64(len(out)), nil
}

func (r fakeExamSets) Update(_ context.Context, _ *gorm.DB, set *models.ExamSet) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.sets[set.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.f.sets[set.ID] = *set
	return nil
}

func (r fakeExamSets) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	delete(r.f.sets, id)
	return nil
}

func (r fakeExamSets) ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	_, err := r.GetByName(ctx, tx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

type fakeQuestions struct{ f *fakeStore }

func (r fakeQuestions) Create(_ context.Context, _ *gorm.DB, q *models.Question) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	q.ID = r.f.id()
	r.f.questions[q.ID] = *q
	return nil
}

func (r fakeQuestions) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		if err := r.Create(ctx, tx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r fakeQuestions) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Question, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	q, ok := r.f.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &q, nil
}

func (r fakeQuestions) ListByExamSet(_ context.Context, _ *gorm.DB, examSetID uint) ([]*models.Question, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Question
	for _, id := range slices.Sorted(maps.Keys(r.f.questions)) {
		if q := r.f.questions[id]; q.ExamSetID == examSetID {
			out = append(out, &q)
		}
	}
	return out, nil
}

func (r fakeQuestions) GetIDsByExamSet(ctx context.Context, tx *gorm.DB, examSetID uint) ([]uint, error) {
	questions, _ := r.ListByExamSet(ctx, tx, examSetID)
	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	return ids, nil
}

func (r fakeQuestions) CountByExamSet(ctx context.Context, tx *gorm.DB, examSetID uint) (int64, error) {
	ids, _ := r.GetIDsByExamSet(ctx, tx, examSetID)
	return int64(len(ids)), nil
}

type fakeSessions struct{ f *fakeStore }

func (r fakeSessions) Create(_ context.Context, _ *gorm.DB, session *models.ExamSession) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if err := r.f.failSessionCreate; err != nil {
		r.f.failSessionCreate = nil
		return err
	}
	session.ID = r.f.id()
	stored := *session
	stored.ExamSet = nil
	r.f.sessions[session.ID] = stored
	return nil
}

func (r fakeSessions) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.ExamSession, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	s, ok := r.f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r fakeSessions) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.sessions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.f.sessions, id)
	return nil
}

func (r fakeSessions) GetIncomplete(_ context.Context, _ *gorm.DB, userID string, examSetID uint) (*models.ExamSession, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var found *models.ExamSession
	for _, s := range r.f.sessions {
		if s.UserID == userID && s.ExamSetID == examSetID && !s.IsCompleted {
			if found == nil || s.StartedAt.After(found.StartedAt) {
				found = &s
			}
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (r fakeSessions) ListByUser(_ context.Context, _ *gorm.DB, userID string, filters repositories.ExamSessionFilters) ([]*models.ExamSession, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.ExamSession
	for _, id := range slices.Sorted(maps.Keys(r.f.sessions)) {
		s := r.f.sessions[id]
		if s.UserID != userID {
			continue
		}
		if filters.IsCompleted != nil && s.IsCompleted != *filters.IsCompleted {
			continue
		}
		if filters.ExamSetID != nil && s.ExamSetID != *filters.ExamSetID {
			continue
		}
		out = append(out, &s)
	}
	return out, int64(len(out)), nil
}

func (r fakeSessions) Complete(_ context.Context, _ *gorm.DB, id uint, score int, completedAt time.Time) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	s, ok := r.f.sessions[id]
	if !ok || s.IsCompleted {
		return false, nil
	}
	s.Score = &score
	s.CompletedAt = &completedAt
	s.IsCompleted = true
	r.f.sessions[id] = s
	return true, nil
}

type fakeAnswers struct{ f *fakeStore }

func (r fakeAnswers) Upsert(_ context.Context, _ *gorm.DB, answer *models.Answer) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	key := [2]uint{answer.SessionID, answer.QuestionID}
	if existing, ok := r.f.answers[key]; ok {
		answer.ID = existing.ID
	} else {
		answer.ID = r.f.id()
	}
	stored := *answer
	stored.Question = nil
	r.f.answers[key] = stored
	return nil
}

func (r fakeAnswers) GetBySession(_ context.Context, _ *gorm.DB, sessionID uint) ([]*models.Answer, error) {
	answers := r.f.answersFor(sessionID)
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	out := make([]*models.Answer, 0, len(answers))
	for _, a := range answers {
		if q, ok := r.f.questions[a.QuestionID]; ok {
			a.Question = &q
		}
		out = append(out, &a)
	}
	return out, nil
}

func (r fakeAnswers) GetBySessionAndQuestion(_ context.Context, _ *gorm.DB, sessionID, questionID uint) (*models.Answer, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	a, ok := r.f.answers[[2]uint{sessionID, questionID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r fakeAnswers) GetAnsweredQuestionIDs(_ context.Context, _ *gorm.DB, sessionID uint) ([]uint, error) {
	var ids []uint
	for _, a := range r.f.answersFor(sessionID) {
		ids = append(ids, a.QuestionID)
	}
	return ids, nil
}

func (r fakeAnswers) CountCorrect(_ context.Context, _ *gorm.DB, sessionID uint) (int64, error) {
	var n int64
	for _, a := range r.f.answersFor(sessionID) {
		if a.IsCorrect {
			n++
		}
	}
	return n, nil
}

func (r fakeAnswers) CountBySession(_ context.Context, _ *gorm.DB, sessionID uint) (int64, error) {
	return int64(len(r.f.answersFor(sessionID))), nil
}

func (r fakeAnswers) DeleteBySession(_ context.Context, _ *gorm.DB, sessionID uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for key := range r.f.answers {
		if key[0] == sessionID {
			delete(r.f.answers, key)
		}
	}
	return nil
}

// ===== harness =====

type testEnv struct {
	store      *fakeStore
	navigation *cache.MemoryNavigationStore
	publisher  *events.MockEventPublisher
	svc        *examSessionService
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		store:      newFakeStore(),
		navigation: cache.NewMemoryNavigationStore(),
		publisher:  events.NewMockEventPublisher(logger),
	}
	env.svc = NewExamSessionService(env.store, env.navigation, env.publisher, logger, validator.New()).(*examSessionService)

	// strictly increasing clock so "newest session" is deterministic
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	var tick int
	env.svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return env
}

func (e *testEnv) pointer(userID string) *models.NavigationPointer {
	p, err := e.navigation.Get(context.Background(), userID)
	if err != nil {
		return nil
	}
	return p
}

// fixedSampler returns the first k ids in pool order
type fixedSampler struct{}

func (fixedSampler) Sample(ids []uint, k int) []uint {
	return slices.Clone(ids[:min(k, len(ids))])
}
