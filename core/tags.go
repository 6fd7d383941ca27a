package core

import "strings"

// NormalizeTag 统一标签格式：去除首尾空白并转小写。
// 标签匹配只做精确匹配，不做模糊匹配。
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// TagSet 是归一化后的标签集合。
type TagSet map[string]struct{}

// NewTagSet 从标签列表构建集合，空标签被忽略。
func NewTagSet(tags ...[]string) TagSet {
	set := make(TagSet)
	for _, list := range tags {
		for _, t := range list {
			if n := NormalizeTag(t); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	return set
}

// Has 判断集合是否包含 tag（tag 会先归一化）。
func (s TagSet) Has(tag string) bool {
	_, ok := s[NormalizeTag(tag)]
	return ok
}

// Intersect 返回两个集合的交集大小。
func (s TagSet) Intersect(other TagSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for t := range small {
		if _, ok := large[t]; ok {
			n++
		}
	}
	return n
}

// NormalizeTags 归一化并去重，保留首次出现的顺序。
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
