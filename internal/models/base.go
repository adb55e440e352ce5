package models

import (
	"github.com/google/uuid"
)

// NewID 는 시간 순으로 정렬되는 UUIDv7 을 만든다.
// created_at 이 같을 때 id 로 정렬하면 삽입 순서가 유지된다.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsValidID 는 경로/바디로 들어온 id 가 UUID 형식인지 확인한다.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
