package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// FetchKind selects which feed a batch walks.
type FetchKind int

const (
	FetchKindProfile FetchKind = iota
	FetchKindHashtag
)

func (k FetchKind) String() string {
	switch k {
	case FetchKindProfile:
		return "profile"
	case FetchKindHashtag:
		return "hashtag"
	}
	return fmt.Sprintf("FetchKind(%d)", int(k))
}

func ParseFetchKind(s string) (FetchKind, error) {
	switch s {
	case "profile", "user":
		return FetchKindProfile, nil
	case "hashtag", "tag":
		return FetchKindHashtag, nil
	}
	return 0, fmt.Errorf("unknown fetch kind %q", s)
}

func (k FetchKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *FetchKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFetchKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

type BatchStatus string

const (
	BatchNotStarted BatchStatus = "not_started"
	BatchFetching   BatchStatus = "fetching"
	BatchProcessing BatchStatus = "processing"
	BatchFinished   BatchStatus = "finished"
)

type MessageLevel string

const (
	MessageInfo    MessageLevel = "info"
	MessageWarning MessageLevel = "warning"
	MessageError   MessageLevel = "error"
)

type BatchMessage struct {
	Level MessageLevel `json:"level"`
	Text  string       `json:"text"`
}

// BatchState is the resumable state of one import batch. It is a plain value
// so callers can hold it between steps or serialize it.
type BatchState struct {
	Id             string         `json:"id"`
	Kind           FetchKind      `json:"kind"`
	Target         string         `json:"target"`
	CacheKey       string         `json:"cache_key"`
	Limit          int            `json:"limit"`
	MaxPages       int            `json:"max_pages"`
	Status         BatchStatus    `json:"status"`
	Success        bool           `json:"success"`
	Progress       int            `json:"progress"`
	Max            int            `json:"max"`
	LastExternalId string         `json:"last_external_id,omitempty"`
	Imported       int            `json:"imported"`
	Updated        int            `json:"updated"`
	Failed         int            `json:"failed"`
	Messages       []BatchMessage `json:"messages"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`

	// posts fetched by this process, not serialized
	posts []RawPost
}

func (s *BatchState) Posts() []RawPost {
	return s.posts
}

func (s *BatchState) SetPosts(posts []RawPost) {
	s.posts = posts
}

func (s *BatchState) IsFinished() bool {
	return s.Status == BatchFinished
}

// Fraction is Progress/Max, 1 for an empty or finished batch.
func (s *BatchState) Fraction() float64 {
	if s.Max == 0 {
		if s.IsFinished() {
			return 1
		}
		return 0
	}
	return float64(s.Progress) / float64(s.Max)
}

func (s *BatchState) AddMessage(level MessageLevel, format string, args ...interface{}) {
	s.Messages = append(s.Messages, BatchMessage{Level: level, Text: fmt.Sprintf(format, args...)})
}

// Finish marks the batch done and drops the fetched posts.
func (s *BatchState) Finish(success bool, at time.Time) {
	s.posts = nil
	s.Status = BatchFinished
	s.Success = success
	s.FinishedAt = &at
}
