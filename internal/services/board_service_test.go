package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type stubBlobStore struct {
	data    map[string]string
	saves   map[string]int
	saveErr error
	loadErr error
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{data: map[string]string{}, saves: map[string]int{}}
}

func (s *stubBlobStore) Load(_ context.Context, key string) (string, bool, error) {
	if s.loadErr != nil {
		return "", false, s.loadErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *stubBlobStore) Save(_ context.Context, key, value string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[key] = value
	s.saves[key]++
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestBoard(t *testing.T, store *stubBlobStore, opts ...BoardOption) *BoardService {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 7, 12, 9, 0, 0, 0, time.UTC)}
	n := 0
	base := []BoardOption{
		WithClock(clock.now),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("q-%03d", n) }),
	}
	svc := NewBoardService(store, append(base, opts...)...)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	return svc
}

func checkTallies(t *testing.T, a *Answer) {
	t.Helper()
	likes, dislikes := 0, 0
	for _, v := range a.VoterDecisions {
		switch v {
		case VoteLike:
			likes++
		case VoteDislike:
			dislikes++
		}
	}
	if a.LikeCount != likes || a.DislikeCount != dislikes {
		t.Fatalf("tallies %d/%d do not match decisions %v", a.LikeCount, a.DislikeCount, a.VoterDecisions)
	}
}

func TestInitializeSeedsAndPersists(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)

	qs := svc.Questions(context.Background())
	if len(qs) != 22 {
		t.Fatalf("seed size = %d, want 22", len(qs))
	}
	for _, q := range qs {
		if q.Author != SeedAuthor || len(q.Answers) != 0 {
			t.Fatalf("unexpected seed question %+v", q)
		}
	}
	if store.saves[QuestionsKey] != 1 {
		t.Fatalf("seed not persisted, saves = %d", store.saves[QuestionsKey])
	}
}

func TestInitializeFallsBackOnCorruptSnapshot(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":     "{oops",
		"object":       `{"id":"x"}`,
		"missing tags": `[{"id":"a","title":"t","description":"d","tags":[],"user":"u","answers":[]}]`,
		"unknown tag":  `[{"id":"a","title":"t","description":"d","tags":["Cooking"],"user":"u","answers":[]}]`,
		"bad vote":     `[{"id":"a","title":"t","description":"d","tags":["DP"],"user":"u","answers":[{"id":"1","text":"x","user":"u","likes":0,"dislikes":0,"voters":{"bob":"meh"}}]}]`,
		"duplicate id": `[{"id":"a","title":"t","description":"d","tags":["DP"],"user":"u"},{"id":"a","title":"t2","description":"d","tags":["DP"],"user":"u"}]`,
		"duplicate answer id": `[{"id":"a","title":"t","description":"d","tags":["DP"],"user":"u","answers":[` +
			`{"id":"1","text":"x","user":"x","likes":0,"dislikes":0,"voters":{}},` +
			`{"id":"1","text":"y","user":"y","likes":0,"dislikes":0,"voters":{}}]}]`,
	} {
		t.Run(name, func(t *testing.T) {
			store := newStubBlobStore()
			store.data[QuestionsKey] = raw
			svc := newTestBoard(t, store)
			if n := len(svc.Questions(context.Background())); n != 22 {
				t.Fatalf("questions = %d, want seed of 22", n)
			}
		})
	}
}

func TestInitializeAdoptsLegacySnapshot(t *testing.T) {
	store := newStubBlobStore()
	store.data[QuestionsKey] = `[
	  {"id":"b","title":"Newer","description":"d","tags":["DP"],"user":"amy","answers":[
	    {"id":"1700000000000","text":"use memo","user":"bob","likes":5,"dislikes":0,"voters":{"amy":"like","cat":"dislike"}}
	  ]},
	  {"id":"a","title":"Older","description":"d","tags":["Graph","Heap"],"user":"amy","answers":[]}
	]`
	svc := newTestBoard(t, store)
	qs := svc.Questions(context.Background())
	if len(qs) != 2 || qs[0].ID != "b" {
		t.Fatalf("unexpected collection %+v", qs)
	}
	if !qs[0].CreatedAt.After(qs[1].CreatedAt) {
		t.Fatalf("synthetic timestamps should follow collection order")
	}
	a := qs[0].Answers[0]
	if a.LikeCount != 1 || a.DislikeCount != 1 {
		t.Fatalf("tallies = %d/%d, want 1/1 derived from voters", a.LikeCount, a.DislikeCount)
	}
	if store.saves[QuestionsKey] != 0 {
		t.Fatalf("adopted snapshot should not be rewritten on load")
	}
}

func TestInitializeReturnsReadError(t *testing.T) {
	store := newStubBlobStore()
	store.loadErr = errors.New("disk gone")
	svc := NewBoardService(store)
	if err := svc.Initialize(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if _, err := svc.SubmitQuestion(context.Background(), NewQuestion{Title: "t", Description: "d", Tags: []Tag{TagDP}}, "amy"); err == nil {
		t.Fatalf("expected mutation to fail before initialization")
	}
}

func TestSubmitQuestionPrependsWithFreshID(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()

	before := map[string]bool{}
	for _, q := range svc.Questions(ctx) {
		before[q.ID] = true
	}
	q, err := svc.SubmitQuestion(ctx, NewQuestion{Title: "  Why heaps? ", Description: "<p>pls</p>", Tags: []Tag{TagHeap, TagHeap}}, "")
	if err != nil {
		t.Fatalf("SubmitQuestion returned error: %v", err)
	}
	if before[q.ID] {
		t.Fatalf("id %q reused", q.ID)
	}
	if q.Author != GuestAuthor {
		t.Fatalf("author = %q, want Guest", q.Author)
	}
	if q.Title != "Why heaps?" || len(q.Tags) != 1 {
		t.Fatalf("unexpected question %+v", q)
	}
	qs := svc.Questions(ctx)
	if qs[0].ID != q.ID {
		t.Fatalf("new question not at index 0")
	}
	if store.saves[QuestionsKey] != 2 {
		t.Fatalf("saves = %d, want 2", store.saves[QuestionsKey])
	}
}

func TestSubmitQuestionValidation(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	cases := []NewQuestion{
		{Title: " ", Description: "d", Tags: []Tag{TagDP}},
		{Title: "t", Description: "\n", Tags: []Tag{TagDP}},
		{Title: "t", Description: "d"},
		{Title: "t", Description: "d", Tags: []Tag{"Cooking"}},
	}
	for _, in := range cases {
		if _, err := svc.SubmitQuestion(ctx, in, "amy"); !IsCode(err, ErrorInvalid) {
			t.Fatalf("SubmitQuestion(%+v) err = %v, want invalid", in, err)
		}
	}
	if len(svc.Questions(ctx)) != 22 || store.saves[QuestionsKey] != 1 {
		t.Fatalf("validation failure must not mutate or persist")
	}
}

func TestDeleteQuestionAuthorOnly(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	q, err := svc.SubmitQuestion(ctx, NewQuestion{Title: "t", Description: "d", Tags: []Tag{TagTrie}}, "dave")
	if err != nil {
		t.Fatalf("SubmitQuestion returned error: %v", err)
	}

	err = svc.DeleteQuestion(ctx, q.ID, "carol")
	if !IsCode(err, ErrorForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if _, err := svc.Question(ctx, q.ID); err != nil {
		t.Fatalf("question should remain: %v", err)
	}
	if err := svc.DeleteQuestion(ctx, "missing", "dave"); !IsCode(err, ErrorNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := svc.DeleteQuestion(ctx, q.ID, "dave"); err != nil {
		t.Fatalf("DeleteQuestion returned error: %v", err)
	}
	if _, err := svc.Question(ctx, q.ID); !IsCode(err, ErrorNotFound) {
		t.Fatalf("question should be gone, err = %v", err)
	}
}

func TestAddAnswer(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	qid := svc.Questions(ctx)[0].ID

	if _, err := svc.AddAnswer(ctx, qid, "  ", "alice"); !IsCode(err, ErrorInvalid) {
		t.Fatalf("err = %v, want invalid", err)
	}
	q, _ := svc.Question(ctx, qid)
	if len(q.Answers) != 0 {
		t.Fatalf("blank answer must not be added")
	}
	if _, err := svc.AddAnswer(ctx, "missing", "hi", "alice"); !IsCode(err, ErrorNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	first, err := svc.AddAnswer(ctx, qid, " base case first ", "alice")
	if err != nil {
		t.Fatalf("AddAnswer returned error: %v", err)
	}
	second, err := svc.AddAnswer(ctx, qid, "then recurse", "")
	if err != nil {
		t.Fatalf("AddAnswer returned error: %v", err)
	}
	if first.Text != "base case first" || second.Author != GuestAuthor {
		t.Fatalf("unexpected answers %+v %+v", first, second)
	}
	if first.ID == second.ID {
		t.Fatalf("answer ids collide: %s", first.ID)
	}
	q, _ = svc.Question(ctx, qid)
	if len(q.Answers) != 2 || q.Answers[0].ID != first.ID {
		t.Fatalf("answers not appended in order: %+v", q.Answers)
	}
}

func TestAnswerIDsStepPastCollisions(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newStubBlobStore()
	svc := NewBoardService(store, WithClock(func() time.Time { return fixed }))
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	ctx := context.Background()
	qid := svc.Questions(ctx)[0].ID
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		a, err := svc.AddAnswer(ctx, qid, "same millisecond", "amy")
		if err != nil {
			t.Fatalf("AddAnswer returned error: %v", err)
		}
		if seen[a.ID] {
			t.Fatalf("duplicate answer id %s", a.ID)
		}
		seen[a.ID] = true
	}
}

func TestVoteToggleAndSwitch(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	qid := svc.Questions(ctx)[0].ID
	ans, _ := svc.AddAnswer(ctx, qid, "answer", "alice")

	a, err := svc.Vote(ctx, qid, ans.ID, VoteLike, "bob")
	if err != nil {
		t.Fatalf("Vote returned error: %v", err)
	}
	checkTallies(t, a)
	if a.LikeCount != 1 {
		t.Fatalf("likes = %d, want 1", a.LikeCount)
	}

	a, _ = svc.Vote(ctx, qid, ans.ID, VoteDislike, "bob")
	checkTallies(t, a)
	if a.LikeCount != 0 || a.DislikeCount != 1 || a.VoterDecisions["bob"] != VoteDislike {
		t.Fatalf("switch failed: %+v", a)
	}

	_, _ = svc.Vote(ctx, qid, ans.ID, VoteLike, "carol")
	a, _ = svc.Vote(ctx, qid, ans.ID, VoteDislike, "bob")
	checkTallies(t, a)
	if a.LikeCount != 1 || a.DislikeCount != 0 {
		t.Fatalf("retract failed: %+v", a)
	}
	if _, ok := a.VoterDecisions["bob"]; ok {
		t.Fatalf("retracted vote still recorded")
	}
}

func TestVoteTwiceIsNetZero(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	qid := svc.Questions(ctx)[0].ID
	ans, _ := svc.AddAnswer(ctx, qid, "answer", "alice")
	for _, vt := range []VoteType{VoteLike, VoteDislike} {
		_, _ = svc.Vote(ctx, qid, ans.ID, vt, "bob")
		a, _ := svc.Vote(ctx, qid, ans.ID, vt, "bob")
		if a.LikeCount != 0 || a.DislikeCount != 0 || len(a.VoterDecisions) != 0 {
			t.Fatalf("%s twice should be net zero, got %+v", vt, a)
		}
	}
}

func TestVoteErrors(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	qid := svc.Questions(ctx)[0].ID
	ans, _ := svc.AddAnswer(ctx, qid, "answer", "alice")

	if _, err := svc.Vote(ctx, "missing", ans.ID, VoteLike, "bob"); !IsCode(err, ErrorNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if _, err := svc.Vote(ctx, qid, "missing", VoteLike, "bob"); !IsCode(err, ErrorNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if _, err := svc.Vote(ctx, qid, ans.ID, "love", "bob"); !IsCode(err, ErrorInvalid) {
		t.Fatalf("err = %v, want invalid", err)
	}
	if _, err := svc.Vote(ctx, qid, ans.ID, VoteLike, ""); !IsCode(err, ErrorInvalid) {
		t.Fatalf("err = %v, want invalid for anonymous voter", err)
	}
}

func TestDeleteAnswerAuthorOnly(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	qid := svc.Questions(ctx)[0].ID
	ans, _ := svc.AddAnswer(ctx, qid, "answer", "alice")

	if err := svc.DeleteAnswer(ctx, qid, ans.ID, "mallory"); !IsCode(err, ErrorForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if err := svc.DeleteAnswer(ctx, qid, "nope", "alice"); !IsCode(err, ErrorNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := svc.DeleteAnswer(ctx, qid, ans.ID, "alice"); err != nil {
		t.Fatalf("DeleteAnswer returned error: %v", err)
	}
	q, _ := svc.Question(ctx, qid)
	if len(q.Answers) != 0 {
		t.Fatalf("answer not removed")
	}
}

func TestStorageFailureKeepsMutation(t *testing.T) {
	store := newStubBlobStore()
	var warnings []*StorageWarning
	svc := newTestBoard(t, store, WithWarningHook(func(w *StorageWarning) { warnings = append(warnings, w) }))
	ctx := context.Background()

	store.saveErr = errors.New("quota exceeded")
	q, err := svc.SubmitQuestion(ctx, NewQuestion{Title: "t", Description: "d", Tags: []Tag{TagDP}}, "amy")
	if err != nil {
		t.Fatalf("storage failure must not fail the mutation: %v", err)
	}
	if got := svc.Questions(ctx)[0].ID; got != q.ID {
		t.Fatalf("mutation rolled back")
	}
	if len(warnings) != 1 || warnings[0].Key != QuestionsKey || !strings.Contains(warnings[0].Error(), "quota") {
		t.Fatalf("unexpected warnings %+v", warnings)
	}
	if svc.StorageStatus() == nil {
		t.Fatalf("expected storage status to report the warning")
	}

	store.saveErr = nil
	if _, err := svc.AddAnswer(ctx, q.ID, "ok", "amy"); err != nil {
		t.Fatalf("AddAnswer returned error: %v", err)
	}
	if svc.StorageStatus() != nil {
		t.Fatalf("successful write should clear the warning")
	}
}

func TestPersistedSnapshotReloads(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	q, _ := svc.SubmitQuestion(ctx, NewQuestion{Title: "t", Description: "d", Tags: []Tag{TagGraph}}, "amy")
	a, _ := svc.AddAnswer(ctx, q.ID, "bfs", "bob")
	_, _ = svc.Vote(ctx, q.ID, a.ID, VoteDislike, "amy")

	again := newTestBoard(t, store)
	got, err := again.Question(ctx, q.ID)
	if err != nil {
		t.Fatalf("reloaded question missing: %v", err)
	}
	if len(again.Questions(ctx)) != 23 {
		t.Fatalf("reloaded size = %d, want 23", len(again.Questions(ctx)))
	}
	if got.Answers[0].DislikeCount != 1 || got.Answers[0].VoterDecisions["amy"] != VoteDislike {
		t.Fatalf("vote not persisted: %+v", got.Answers[0])
	}
	if !got.CreatedAt.Equal(q.CreatedAt.Truncate(time.Millisecond)) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, q.CreatedAt)
	}
}

func TestToggleQuestionLike(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	qid := svc.Questions(ctx)[0].ID

	liked, likes, err := svc.ToggleQuestionLike(ctx, qid, "amy")
	if err != nil {
		t.Fatalf("ToggleQuestionLike returned error: %v", err)
	}
	if !liked || likes != 1 {
		t.Fatalf("liked=%v likes=%d, want true/1", liked, likes)
	}
	if ok, _ := svc.QuestionLiked(ctx, qid, "amy"); !ok {
		t.Fatalf("marker not stored")
	}
	if ok, _ := svc.QuestionLiked(ctx, qid, "bob"); ok {
		t.Fatalf("marker leaked to another user")
	}
	if _, ok := store.data[LikedQuestionsKey+":amy"]; !ok {
		t.Fatalf("expected per-user liked key")
	}

	liked, likes, _ = svc.ToggleQuestionLike(ctx, qid, "amy")
	if liked || likes != 0 {
		t.Fatalf("liked=%v likes=%d, want false/0", liked, likes)
	}
	if _, _, err := svc.ToggleQuestionLike(ctx, "missing", "amy"); !IsCode(err, ErrorNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestToggleQuestionLikeIgnoresCorruptMarkers(t *testing.T) {
	store := newStubBlobStore()
	svc := newTestBoard(t, store)
	ctx := context.Background()
	qid := svc.Questions(ctx)[0].ID
	store.data[LikedQuestionsKey] = "not json"

	liked, _, err := svc.ToggleQuestionLike(ctx, qid, "")
	if err != nil || !liked {
		t.Fatalf("liked=%v err=%v, want true/nil", liked, err)
	}
}
