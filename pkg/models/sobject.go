package models

import (
	"time"

	"github.com/minerva/erp/pkg/utils"
)

// SObject represents a generic table row or JSON payload
type SObject map[string]interface{}

// Helper methods for SObject
func (s SObject) GetString(key string) string {
	if val, ok := s[key]; ok {
		switch v := val.(type) {
		case string:
			return v
		case []byte:
			return string(v)
		}
	}
	return ""
}

func (s SObject) GetBool(key string) bool {
	if val, ok := s[key]; ok {
		return utils.ToBool(val)
	}
	return false
}

func (s SObject) GetFloat(key string) float64 {
	if val, ok := s[key]; ok {
		return utils.ToFloat64(val)
	}
	return 0
}

func (s SObject) GetInt64(key string) int64 {
	if val, ok := s[key]; ok {
		return utils.ToInt64(val)
	}
	return 0
}

func (s SObject) GetTime(key string) time.Time {
	if val, ok := s[key]; ok {
		if t, ok := val.(time.Time); ok {
			return t
		}
		if tStr, ok := val.(string); ok {
			if parsed, err := time.Parse(time.RFC3339, tStr); err == nil {
				return parsed
			}
			parsed, _ := time.Parse("2006-01-02 15:04:05", tStr)
			return parsed
		}
	}
	return time.Time{}
}

func (s SObject) Get(key string) interface{} {
	return s[key]
}

// Clone returns a shallow copy
func (s SObject) Clone() SObject {
	if s == nil {
		return nil
	}
	out := make(SObject, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// QueryRequest represents a generic list request against a table
type QueryRequest struct {
	Filters       []string `json:"filters,omitempty"` // "field op value" terms
	SortField     string   `json:"sort_field,omitempty"`
	SortDirection string   `json:"sort_direction,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}
