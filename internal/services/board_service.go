package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/stackit/internal/metrics"
)

var errNotInitialized = errors.New("board not initialized")

// BoardService owns the question collection. Every operation holds mu for
// its whole read-modify-persist sequence, so callers observe operations as
// if they ran one at a time.
type BoardService struct {
	mu        sync.Mutex
	blob      BlobStore
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	onWarning func(*StorageWarning)

	questions   []*Question
	ready       bool
	lastWarning *StorageWarning
}

type BoardOption func(*BoardService)

func WithLogger(l *slog.Logger) BoardOption {
	return func(s *BoardService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) BoardOption {
	return func(s *BoardService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the question id source (UUID v4 by default).
func WithIDGenerator(gen func() string) BoardOption {
	return func(s *BoardService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithWarningHook is called for every failed snapshot write.
func WithWarningHook(fn func(*StorageWarning)) BoardOption {
	return func(s *BoardService) { s.onWarning = fn }
}

func NewBoardService(blob BlobStore, opts ...BoardOption) *BoardService {
	s := &BoardService{
		blob:   blob,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Initialize adopts the persisted collection, or the seed set when the
// snapshot is absent or does not validate. The seed is written back
// immediately. A failing read is returned: the data may still exist.
func (s *BoardService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.blob.Load(ctx, QuestionsKey)
	if err != nil {
		return fmt.Errorf("load %s: %w", QuestionsKey, err)
	}
	if found {
		qs, derr := decodeSnapshot(raw, s.now())
		if derr == nil {
			s.questions = qs
			s.ready = true
			s.logger.Info("board loaded", "questions", len(qs))
			return nil
		}
		s.logger.Warn("questions snapshot rejected, using seed set", "err", derr)
	}
	s.questions = DefaultQuestions(s.now(), s.uniqueQuestionID)
	s.ready = true
	metrics.SeedFallback()
	s.logger.Info("board seeded", "questions", len(s.questions))
	s.persistLocked(ctx)
	return nil
}

func (s *BoardService) SubmitQuestion(ctx context.Context, in NewQuestion, author string) (q *Question, err error) {
	defer func() { observe("submit_question", err) }()
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" {
		return nil, NewInvalidError("title required")
	}
	if description == "" {
		return nil, NewInvalidError("description required")
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, errNotInitialized
	}
	q = &Question{
		ID:          s.uniqueQuestionID(),
		Title:       title,
		Description: description,
		Tags:        tags,
		Author:      authorOrGuest(author),
		Answers:     []*Answer{},
		CreatedAt:   s.now(),
	}
	s.questions = append([]*Question{q}, s.questions...)
	s.persistLocked(ctx)
	return q.clone(), nil
}

// DeleteQuestion removes a question. Only its author may delete it; the
// caller is expected to have confirmed the deletion with the user.
func (s *BoardService) DeleteQuestion(ctx context.Context, questionID, requestingUser string) (err error) {
	defer func() { observe("delete_question", err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return errNotInitialized
	}
	idx, q := s.findQuestion(questionID)
	if q == nil {
		return NewNotFoundError("question not found")
	}
	if requestingUser == "" || q.Author != requestingUser {
		return NewForbiddenError("only the author can delete this question")
	}
	s.questions = append(s.questions[:idx:idx], s.questions[idx+1:]...)
	s.persistLocked(ctx)
	return nil
}

func (s *BoardService) AddAnswer(ctx context.Context, questionID, text, author string) (a *Answer, err error) {
	defer func() { observe("add_answer", err) }()
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewInvalidError("answer text required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, errNotInitialized
	}
	_, q := s.findQuestion(questionID)
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	now := s.now()
	a = &Answer{
		ID:             nextAnswerID(q, now),
		Text:           text,
		Author:         authorOrGuest(author),
		VoterDecisions: map[string]VoteType{},
		CreatedAt:      now,
	}
	q.Answers = append(q.Answers, a)
	s.persistLocked(ctx)
	return a.clone(), nil
}

// Vote applies a like/dislike with toggle semantics: repeating the standing
// vote retracts it, the opposite vote replaces it. voterID must identify an
// authenticated user.
func (s *BoardService) Vote(ctx context.Context, questionID, answerID string, vt VoteType, voterID string) (a *Answer, err error) {
	defer func() { observe("vote", err) }()
	if !vt.Valid() {
		return nil, NewInvalidError("vote type must be like or dislike")
	}
	if voterID == "" {
		return nil, NewInvalidError("voter required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, errNotInitialized
	}
	_, q := s.findQuestion(questionID)
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	_, a = q.findAnswer(answerID)
	if a == nil {
		return nil, NewNotFoundError("answer not found")
	}
	if a.VoterDecisions == nil {
		a.VoterDecisions = map[string]VoteType{}
	}
	prev, had := a.VoterDecisions[voterID]
	if had && prev == vt {
		a.adjust(vt, -1)
		delete(a.VoterDecisions, voterID)
	} else {
		if had {
			a.adjust(prev, -1)
		}
		a.adjust(vt, 1)
		a.VoterDecisions[voterID] = vt
	}
	s.persistLocked(ctx)
	return a.clone(), nil
}

// DeleteAnswer removes an answer authored by requestingUser. A mismatch is
// reported as forbidden rather than silently ignored.
func (s *BoardService) DeleteAnswer(ctx context.Context, questionID, answerID, requestingUser string) (err error) {
	defer func() { observe("delete_answer", err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return errNotInitialized
	}
	_, q := s.findQuestion(questionID)
	if q == nil {
		return NewNotFoundError("question not found")
	}
	idx, a := q.findAnswer(answerID)
	if a == nil {
		return NewNotFoundError("answer not found")
	}
	if requestingUser == "" || a.Author != requestingUser {
		return NewForbiddenError("only the author can delete this answer")
	}
	q.Answers = append(q.Answers[:idx:idx], q.Answers[idx+1:]...)
	s.persistLocked(ctx)
	return nil
}

// Questions returns a copy of the collection in its canonical order.
func (s *BoardService) Questions(_ context.Context) []*Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q.clone())
	}
	return out
}

func (s *BoardService) Question(_ context.Context, id string) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, q := s.findQuestion(id)
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	return q.clone(), nil
}

// ProjectQuestions runs Project over the live collection and returns copies
// of the selected page.
func (s *BoardService) ProjectQuestions(_ context.Context, p ProjectParams) (*Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proj, err := Project(s.questions, p)
	if err != nil {
		return nil, err
	}
	for i, q := range proj.Questions {
		proj.Questions[i] = q.clone()
	}
	return proj, nil
}

// StorageStatus returns the most recent unrecovered write failure, if any.
func (s *BoardService) StorageStatus() *StorageWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWarning
}

func (s *BoardService) persistLocked(ctx context.Context) {
	raw, err := encodeSnapshot(s.questions)
	if err == nil {
		err = s.blob.Save(ctx, QuestionsKey, raw)
	}
	if err != nil {
		s.warn(QuestionsKey, err)
		return
	}
	s.lastWarning = nil
}

func (s *BoardService) warn(key string, err error) {
	w := &StorageWarning{Key: key, Err: err}
	s.lastWarning = w
	s.logger.Warn("storage write failed; keeping in-memory state", "key", key, "err", err)
	metrics.StorageWarning(metricKey(key))
	if s.onWarning != nil {
		s.onWarning(w)
	}
}

func (s *BoardService) findQuestion(id string) (int, *Question) {
	for i, q := range s.questions {
		if q.ID == id {
			return i, q
		}
	}
	return -1, nil
}

func (s *BoardService) uniqueQuestionID() string {
	for {
		id := s.newID()
		if _, q := s.findQuestion(id); q == nil {
			return id
		}
	}
}

func (a *Answer) adjust(vt VoteType, delta int) {
	switch vt {
	case VoteLike:
		a.LikeCount += delta
	case VoteDislike:
		a.DislikeCount += delta
	}
}

// nextAnswerID derives an id from the clock in milliseconds, stepping past
// ids already used by the question's answers.
func nextAnswerID(q *Question, now time.Time) string {
	n := now.UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if _, a := q.findAnswer(id); a == nil {
			return id
		}
		n++
	}
}

func normalizeTags(in []Tag) ([]Tag, error) {
	if len(in) == 0 {
		return nil, NewInvalidError("at least one tag required")
	}
	out := make([]Tag, 0, len(in))
	seen := map[Tag]struct{}{}
	for _, t := range in {
		if !ValidTag(t) {
			return nil, NewInvalidError(fmt.Sprintf("unknown tag %q", t))
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if se, ok := AsServiceError(err); ok {
			result = string(se.Code)
		}
	}
	metrics.ObserveMutation(op, result)
}

func metricKey(key string) string {
	if strings.HasPrefix(key, LikedQuestionsKey) {
		return LikedQuestionsKey
	}
	return key
}
