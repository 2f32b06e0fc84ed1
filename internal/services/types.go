package services

import (
	"context"
	"time"
)

// GuestAuthor is recorded as the author when no identity is present.
const GuestAuthor = "Guest"

// SeedAuthor authors the default question set.
const SeedAuthor = "Admin"

// Blob keys shared with the browser format.
const (
	QuestionsKey      = "questions"
	LikedQuestionsKey = "likedQuestions"
)

// BlobStore is the synchronous string-keyed persistence medium.
type BlobStore interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
}

type Tag string

const (
	TagRecursion  Tag = "Recursion"
	TagArray      Tag = "Array"
	TagLinkedList Tag = "Linked List"
	TagDP         Tag = "DP"
	TagGraph      Tag = "Graph"
	TagHashing    Tag = "Hashing"
	TagSorting    Tag = "Sorting"
	TagHeap       Tag = "Heap"
	TagTrie       Tag = "Trie"
)

// Tags is the fixed vocabulary shared by submission and filtering.
var Tags = []Tag{TagRecursion, TagArray, TagLinkedList, TagDP, TagGraph, TagHashing, TagSorting, TagHeap, TagTrie}

func ValidTag(t Tag) bool {
	for _, v := range Tags {
		if v == t {
			return true
		}
	}
	return false
}

type VoteType string

const (
	VoteLike    VoteType = "like"
	VoteDislike VoteType = "dislike"
)

func (v VoteType) Valid() bool { return v == VoteLike || v == VoteDislike }

type Question struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []Tag     `json:"tags"`
	Author      string    `json:"author"`
	Answers     []*Answer `json:"answers"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
}

type Answer struct {
	ID             string              `json:"id"`
	Text           string              `json:"text"`
	Author         string              `json:"author"`
	LikeCount      int                 `json:"like_count"`
	DislikeCount   int                 `json:"dislike_count"`
	VoterDecisions map[string]VoteType `json:"voter_decisions"`
	CreatedAt      time.Time           `json:"created_at"`
}

// NewQuestion carries the user-supplied fields of a question submission.
type NewQuestion struct {
	Title       string
	Description string
	Tags        []Tag
}

func (q *Question) clone() *Question {
	if q == nil {
		return nil
	}
	cp := *q
	cp.Tags = append([]Tag(nil), q.Tags...)
	cp.Answers = make([]*Answer, 0, len(q.Answers))
	for _, a := range q.Answers {
		cp.Answers = append(cp.Answers, a.clone())
	}
	return &cp
}

func (a *Answer) clone() *Answer {
	if a == nil {
		return nil
	}
	cp := *a
	cp.VoterDecisions = make(map[string]VoteType, len(a.VoterDecisions))
	for k, v := range a.VoterDecisions {
		cp.VoterDecisions[k] = v
	}
	return &cp
}

func (q *Question) hasTag(t Tag) bool {
	for _, v := range q.Tags {
		if v == t {
			return true
		}
	}
	return false
}

func (q *Question) findAnswer(id string) (int, *Answer) {
	for i, a := range q.Answers {
		if a.ID == id {
			return i, a
		}
	}
	return -1, nil
}

func authorOrGuest(author string) string {
	if author == "" {
		return GuestAuthor
	}
	return author
}
