package store

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/quizbank/internal/model"
)

// Store is a handle on the four collections of one subject.
//
// Every mutation loads the whole collection, changes it and writes it back.
// There is no locking: two concurrent writers to the same collection can
// race and the later one wins.
type Store struct {
	backend Backend
	subject string
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open returns a store for subject ("" for the default namespace), creating
// the namespace and any missing collection.
func Open(b Backend, subject string, opts ...Option) (*Store, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	if err := b.Ensure(subject, Collections); err != nil {
		return nil, fmt.Errorf("init subject %q: %w", subject, err)
	}
	s := &Store{backend: b, subject: subject, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Subject returns the namespace this store is bound to.
func (s *Store) Subject() string {
	return s.subject
}

func (s *Store) stamp() *model.Timestamp {
	return model.NewTimestamp(s.now())
}

func newID() string {
	return uuid.NewString()
}

// ---- Categories ----

// ListCategories returns all categories in insertion order.
func (s *Store) ListCategories() []model.Category {
	return load[model.Category](s, Categories).all()
}

// GetCategory returns a category by ID, or nil if absent.
func (s *Store) GetCategory(id string) *model.Category {
	c, ok := load[model.Category](s, Categories).get(id)
	if !ok {
		return nil
	}
	return &c
}

// SaveCategory inserts or replaces a category.
func (s *Store) SaveCategory(c model.Category) (model.Category, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	if err := validateRecord("category", c); err != nil {
		return c, err
	}
	coll := load[model.Category](s, Categories)
	coll.put(c)
	if err := coll.flush(s); err != nil {
		return c, fmt.Errorf("save category: %w", err)
	}
	slog.Debug("saved category", "subject", s.subject, "id", c.ID)
	return c, nil
}

// DeleteCategory removes a category. Questions keep their reference.
func (s *Store) DeleteCategory(id string) error {
	return remove[model.Category](s, Categories, id)
}

// ---- Questions ----

// QuestionFilter narrows ListQuestions. Empty fields are ignored; set fields
// must all match.
type QuestionFilter struct {
	CategoryID string
	Type       model.QuestionType
	// Search is a case-insensitive substring of the question text.
	Search string
}

func (f QuestionFilter) match(q model.Question) bool {
	if f.CategoryID != "" && q.CategoryID != f.CategoryID {
		return false
	}
	if f.Type != "" && q.QuestionType != f.Type {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(q.QuestionText), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// ListQuestions returns the questions matching f in insertion order.
func (s *Store) ListQuestions(f QuestionFilter) []model.Question {
	all := load[model.Question](s, Questions).all()
	if f == (QuestionFilter{}) {
		return all
	}
	out := []model.Question{}
	for _, q := range all {
		if f.match(q) {
			out = append(out, q)
		}
	}
	return out
}

// GetQuestion returns a question by ID, or nil if absent.
func (s *Store) GetQuestion(id string) *model.Question {
	q, ok := load[model.Question](s, Questions).get(id)
	if !ok {
		return nil
	}
	return &q
}

// QuestionLookup returns a lookup over a snapshot of the question collection
// taken now.
func (s *Store) QuestionLookup() func(id string) *model.Question {
	coll := load[model.Question](s, Questions)
	return func(id string) *model.Question {
		q, ok := coll.get(id)
		if !ok {
			return nil
		}
		return &q
	}
}

// SaveQuestion inserts or replaces a question. Zero points become 1.
// CreatedAt is set when missing; UpdatedAt is always refreshed.
func (s *Store) SaveQuestion(q model.Question) (model.Question, error) {
	if q.ID == "" {
		q.ID = newID()
	}
	if q.Points == 0 {
		q.Points = 1
	}
	if err := validateRecord("question", q); err != nil {
		return q, err
	}
	now := s.stamp()
	if q.CreatedAt == nil {
		q.CreatedAt = now
	}
	q.UpdatedAt = now

	coll := load[model.Question](s, Questions)
	coll.put(q)
	if err := coll.flush(s); err != nil {
		return q, fmt.Errorf("save question: %w", err)
	}
	slog.Debug("saved question", "subject", s.subject, "id", q.ID, "type", q.QuestionType)
	return q, nil
}

// DeleteQuestion removes a question. Quizzes that list it keep the reference.
func (s *Store) DeleteQuestion(id string) error {
	return remove[model.Question](s, Questions, id)
}

// ---- Quizzes ----

// ListQuizzes returns all quizzes in insertion order.
func (s *Store) ListQuizzes() []model.Quiz {
	return load[model.Quiz](s, Quizzes).all()
}

// GetQuiz returns a quiz by ID, or nil if absent.
func (s *Store) GetQuiz(id string) *model.Quiz {
	q, ok := load[model.Quiz](s, Quizzes).get(id)
	if !ok {
		return nil
	}
	return &q
}

// SaveQuiz inserts or replaces a quiz, stamping it like SaveQuestion.
func (s *Store) SaveQuiz(q model.Quiz) (model.Quiz, error) {
	if q.ID == "" {
		q.ID = newID()
	}
	if q.Questions == nil {
		q.Questions = []model.QuizQuestion{}
	}
	if err := validateRecord("quiz", q); err != nil {
		return q, err
	}
	now := s.stamp()
	if q.CreatedAt == nil {
		q.CreatedAt = now
	}
	q.UpdatedAt = now

	coll := load[model.Quiz](s, Quizzes)
	coll.put(q)
	if err := coll.flush(s); err != nil {
		return q, fmt.Errorf("save quiz: %w", err)
	}
	slog.Debug("saved quiz", "subject", s.subject, "id", q.ID, "questions", len(q.Questions))
	return q, nil
}

// DeleteQuiz removes a quiz. Its attempts are kept.
func (s *Store) DeleteQuiz(id string) error {
	return remove[model.Quiz](s, Quizzes, id)
}

// ---- Attempts ----

// ListAttempts returns attempts in insertion order, limited to quizID when set.
func (s *Store) ListAttempts(quizID string) []model.QuizAttempt {
	all := load[model.QuizAttempt](s, Attempts).all()
	if quizID == "" {
		return all
	}
	out := []model.QuizAttempt{}
	for _, a := range all {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out
}

// GetAttempt returns an attempt by ID, or nil if absent.
func (s *Store) GetAttempt(id string) *model.QuizAttempt {
	a, ok := load[model.QuizAttempt](s, Attempts).get(id)
	if !ok {
		return nil
	}
	return &a
}

// SaveAttempt inserts or replaces an attempt. StartedAt is set when missing.
func (s *Store) SaveAttempt(a model.QuizAttempt) (model.QuizAttempt, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.Answers == nil {
		a.Answers = []model.AnswerRecord{}
	}
	if err := validateRecord("attempt", a); err != nil {
		return a, err
	}
	if a.StartedAt == nil {
		a.StartedAt = s.stamp()
	}

	coll := load[model.QuizAttempt](s, Attempts)
	coll.put(a)
	if err := coll.flush(s); err != nil {
		return a, fmt.Errorf("save attempt: %w", err)
	}
	slog.Info("saved attempt", "subject", s.subject, "id", a.ID, "quiz_id", a.QuizID, "score", a.Score)
	return a, nil
}

// DeleteAttempt removes an attempt.
func (s *Store) DeleteAttempt(id string) error {
	return remove[model.QuizAttempt](s, Attempts, id)
}

// remove deletes id from a collection. A missing id is not an error and
// leaves the stored data untouched.
func remove[T record](s *Store, name, id string) error {
	coll := load[T](s, name)
	if !coll.remove(id) {
		return nil
	}
	if err := coll.flush(s); err != nil {
		return fmt.Errorf("delete from %s: %w", name, err)
	}
	slog.Info("deleted record", "subject", s.subject, "collection", name, "id", id)
	return nil
}

// Counts holds collection sizes for a dashboard.
type Counts struct {
	Questions  int `json:"total_questions"`
	Quizzes    int `json:"total_quizzes"`
	Categories int `json:"total_categories"`
	Attempts   int `json:"total_attempts"`
}

// Counts returns the number of records in each collection.
func (s *Store) Counts() Counts {
	return Counts{
		Questions:  len(load[model.Question](s, Questions).items),
		Quizzes:    len(load[model.Quiz](s, Quizzes).items),
		Categories: len(load[model.Category](s, Categories).items),
		Attempts:   len(load[model.QuizAttempt](s, Attempts).items),
	}
}
