package services

import (
	"context"
	"encoding/json"
	"fmt"
)

// likedKey scopes the liked-question marker set to one user. Anonymous
// visitors share the unscoped key, as a single browser did.
func likedKey(user string) string {
	if user == "" {
		return LikedQuestionsKey
	}
	return LikedQuestionsKey + ":" + user
}

// ToggleQuestionLike flips user's like on a question and returns the new
// state and the question's like count.
func (s *BoardService) ToggleQuestionLike(ctx context.Context, questionID, user string) (liked bool, likes int, err error) {
	defer func() { observe("toggle_like", err) }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return false, 0, errNotInitialized
	}
	_, q := s.findQuestion(questionID)
	if q == nil {
		return false, 0, NewNotFoundError("question not found")
	}
	key := likedKey(user)
	raw, _, err := s.blob.Load(ctx, key)
	if err != nil {
		return false, 0, fmt.Errorf("load %s: %w", key, err)
	}
	set := decodeLikedSet(raw)
	if set[questionID] {
		delete(set, questionID)
		if q.Likes > 0 {
			q.Likes--
		}
	} else {
		set[questionID] = true
		q.Likes++
	}
	liked = set[questionID]

	b, merr := json.Marshal(set)
	if merr == nil {
		merr = s.blob.Save(ctx, key, string(b))
	}
	if merr != nil {
		s.warn(key, merr)
	}
	s.persistLocked(ctx)
	return liked, q.Likes, nil
}

// QuestionLiked reports whether user currently likes the question.
func (s *BoardService) QuestionLiked(ctx context.Context, questionID, user string) (bool, error) {
	raw, _, err := s.blob.Load(ctx, likedKey(user))
	if err != nil {
		return false, fmt.Errorf("load %s: %w", likedKey(user), err)
	}
	return decodeLikedSet(raw)[questionID], nil
}
