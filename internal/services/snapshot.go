package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/soaringjerry/stackit/internal/models"
)

// snapshotValidate checks persisted records before they are adopted.
var snapshotValidate *validator.Validate

func init() {
	snapshotValidate = validator.New()
	_ = snapshotValidate.RegisterValidation("board_tag", func(fl validator.FieldLevel) bool {
		return ValidTag(Tag(fl.Field().String()))
	})
}

// decodeSnapshot parses the questions blob. Any error means the blob cannot
// be adopted and the caller falls back to the seed set.
func decodeSnapshot(raw string, now time.Time) ([]*Question, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("empty snapshot")
	}
	var records []*models.QuestionRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if records == nil {
		return nil, errors.New("snapshot is not an array")
	}
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("question %d: null record", i)
		}
		answerIDs := make(map[string]struct{}, len(rec.Answers))
		for j, ar := range rec.Answers {
			if ar == nil {
				return nil, fmt.Errorf("question %d answer %d: null record", i, j)
			}
			if _, dup := answerIDs[ar.ID]; dup {
				return nil, fmt.Errorf("question %d answer %d: duplicate id %q", i, j, ar.ID)
			}
			answerIDs[ar.ID] = struct{}{}
		}
		if err := snapshotValidate.Struct(rec); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id %q", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}
	return fromRecords(records, now), nil
}

// fromRecords converts validated records. Records written before creation
// timestamps existed get synthetic ones one second apart, newest first, so
// collection order and recency order agree.
func fromRecords(records []*models.QuestionRecord, now time.Time) []*Question {
	out := make([]*Question, 0, len(records))
	for i, rec := range records {
		created := fromMillis(rec.CreatedAt)
		if created.IsZero() {
			created = now.Add(-time.Duration(i) * time.Second)
		}
		q := &Question{
			ID:          rec.ID,
			Title:       rec.Title,
			Description: rec.Description,
			Tags:        make([]Tag, 0, len(rec.Tags)),
			Author:      rec.User,
			Answers:     make([]*Answer, 0, len(rec.Answers)),
			Likes:       rec.Likes,
			CreatedAt:   created,
		}
		for _, t := range rec.Tags {
			q.Tags = append(q.Tags, Tag(t))
		}
		for j, ar := range rec.Answers {
			answerCreated := fromMillis(ar.CreatedAt)
			if answerCreated.IsZero() {
				answerCreated = created.Add(time.Duration(j+1) * time.Millisecond)
			}
			a := &Answer{
				ID:             ar.ID,
				Text:           ar.Text,
				Author:         ar.User,
				VoterDecisions: make(map[string]VoteType, len(ar.Voters)),
				CreatedAt:      answerCreated,
			}
			// Tallies are derived from the standing votes.
			for voter, v := range ar.Voters {
				vt := VoteType(v)
				a.VoterDecisions[voter] = vt
				if vt == VoteLike {
					a.LikeCount++
				} else {
					a.DislikeCount++
				}
			}
			q.Answers = append(q.Answers, a)
		}
		out = append(out, q)
	}
	return out
}

func encodeSnapshot(questions []*Question) (string, error) {
	records := make([]*models.QuestionRecord, 0, len(questions))
	for _, q := range questions {
		rec := &models.QuestionRecord{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			Tags:        make([]string, 0, len(q.Tags)),
			User:        q.Author,
			Answers:     make([]*models.AnswerRecord, 0, len(q.Answers)),
			Likes:       q.Likes,
			CreatedAt:   q.CreatedAt.UnixMilli(),
		}
		for _, t := range q.Tags {
			rec.Tags = append(rec.Tags, string(t))
		}
		for _, a := range q.Answers {
			voters := make(map[string]string, len(a.VoterDecisions))
			for k, v := range a.VoterDecisions {
				voters[k] = string(v)
			}
			rec.Answers = append(rec.Answers, &models.AnswerRecord{
				ID:        a.ID,
				Text:      a.Text,
				User:      a.Author,
				Likes:     a.LikeCount,
				Dislikes:  a.DislikeCount,
				Voters:    voters,
				CreatedAt: a.CreatedAt.UnixMilli(),
			})
		}
		records = append(records, rec)
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeLikedSet parses a likedQuestions blob; corrupt input yields an empty set.
func decodeLikedSet(raw string) map[string]bool {
	out := map[string]bool{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return map[string]bool{}
	}
	return out
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// CheckSnapshot reports how many questions raw holds, or why Initialize
// would reject it.
func CheckSnapshot(raw string) (int, error) {
	qs, err := decodeSnapshot(raw, time.Now())
	if err != nil {
		return 0, NewInvalidError(err.Error())
	}
	return len(qs), nil
}

// CheckLikedSet reports whether raw parses as a liked-question marker set.
func CheckLikedSet(raw string) error {
	var out map[string]bool
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return NewInvalidError(fmt.Sprintf("liked set: %v", err))
	}
	return nil
}
