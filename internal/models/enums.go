package models

import "strings"

type VoteStatus string

const (
	VoteAgree    VoteStatus = "agree"
	VoteDisagree VoteStatus = "disagree"
	VoteNeutral  VoteStatus = "neutral"
)

func (s VoteStatus) Valid() bool {
	switch s {
	case VoteAgree, VoteDisagree, VoteNeutral:
		return true
	}
	return false
}

// CounterColumn 은 투표 상태에 대응하는 topics 집계 컬럼 이름
func (s VoteStatus) CounterColumn() string {
	switch s {
	case VoteAgree:
		return "agree_count"
	case VoteDisagree:
		return "disagree_count"
	case VoteNeutral:
		return "neutral_count"
	}
	return ""
}

type TopicTag string

const (
	TagPolitics      TopicTag = "politics"
	TagSociety       TopicTag = "society"
	TagEconomy       TopicTag = "economy"
	TagTechnology    TopicTag = "technology"
	TagEntertainment TopicTag = "entertainment"
	TagSports        TopicTag = "sports"
	TagOther         TopicTag = "other"
)

var allTags = []TopicTag{
	TagPolitics, TagSociety, TagEconomy, TagTechnology, TagEntertainment, TagSports, TagOther,
}

// ParseTopicTag 대소문자 구분 없이 태그를 파싱한다
func ParseTopicTag(s string) (TopicTag, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range allTags {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}
