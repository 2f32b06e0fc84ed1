package models

// QuestionRecord is the persisted shape of a question under the "questions"
// blob key. Field names follow the browser localStorage format so existing
// dumps load unchanged.
type QuestionRecord struct {
	ID          string          `json:"id" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Tags        []string        `json:"tags" validate:"required,min=1,dive,board_tag"`
	User        string          `json:"user" validate:"required"`
	Answers     []*AnswerRecord `json:"answers" validate:"dive"`
	Likes       int             `json:"likes,omitempty" validate:"gte=0"`
	CreatedAt   int64           `json:"createdAt,omitempty" validate:"gte=0"` // unix millis; 0 in legacy dumps
}

// AnswerRecord is the persisted shape of an answer.
type AnswerRecord struct {
	ID        string            `json:"id" validate:"required"`
	Text      string            `json:"text" validate:"required"`
	User      string            `json:"user" validate:"required"`
	Likes     int               `json:"likes" validate:"gte=0"`
	Dislikes  int               `json:"dislikes" validate:"gte=0"`
	Voters    map[string]string `json:"voters" validate:"dive,keys,required,endkeys,oneof=like dislike"`
	CreatedAt int64             `json:"createdAt,omitempty" validate:"gte=0"`
}

// UserRecord is an account stored under "users:<email>".
type UserRecord struct {
	ID        string `json:"id" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	PassHash  []byte `json:"pass_hash" validate:"required"`
	CreatedAt int64  `json:"created_at"`
}
