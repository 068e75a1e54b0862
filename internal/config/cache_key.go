package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptEndKey returns the cache key for an attempt's end time (unix seconds).
func (r *CacheKeyStruct) AttemptEndKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:end", attemptID)
}

// ExamPayloadKey returns the cache key for a variant's question payload.
func (r *CacheKeyStruct) ExamPayloadKey(examID, variantID string) string {
	return fmt.Sprintf("exam:%s:variant:%s:payload", examID, variantID)
}

// ExamMonitorChannel returns the Redis PubSub channel for an exam's live
// submission event stream.
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

var CacheKey = NewCacheKeyStruct()
