// Package assistant 实现基于关键词规则的宠物健康问答分类。
package assistant

import (
	"errors"
	"fmt"
	"strings"
)

// Category 是回复的严重程度/主题标签。
type Category string

const (
	CategoryGreeting Category = "greeting"
	CategoryWarning  Category = "warning"
	CategoryInfo     Category = "info"
)

// FallbackRuleName 是兜底规则的名称。
const FallbackRuleName = "fallback"

// ErrInvalidRule 表示规则表中存在无法使用的规则。
var ErrInvalidRule = errors.New("invalid classification rule")

// Valid 判断类别是否属于已知取值。
func (c Category) Valid() bool {
	switch c {
	case CategoryGreeting, CategoryWarning, CategoryInfo:
		return true
	}
	return false
}

// Rule 是一条分类规则：消息小写后包含任意一个 Terms 即命中。
type Rule struct {
	Name        string   `mapstructure:"name" json:"name"`
	Terms       []string `mapstructure:"terms" json:"terms"`
	Category    Category `mapstructure:"category" json:"category"`
	Response    string   `mapstructure:"response" json:"response"`
	Suggestions []string `mapstructure:"suggestions" json:"suggestions"`
}

func (r Rule) clone() Rule {
	r.Terms = append([]string(nil), r.Terms...)
	r.Suggestions = append([]string{}, r.Suggestions...)
	return r
}

func (r Rule) matches(lower string) bool {
	for _, term := range r.Terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Classification 是一次分类的结果。
type Classification struct {
	Rule        string
	Category    Category
	Message     string
	Suggestions []string
}

// Classifier 按固定优先级顺序匹配规则。构造后规则表不可变，可并发使用。
type Classifier struct {
	rules    []Rule
	fallback Rule
}

// NewClassifier 校验并构造分类器，关键词统一转为小写。
func NewClassifier(rules []Rule, fallback Rule) (*Classifier, error) {
	c := &Classifier{rules: make([]Rule, 0, len(rules))}
	for i, r := range rules {
		r = r.clone()
		if r.Name == "" {
			r.Name = fmt.Sprintf("rule-%d", i+1)
		}
		if err := validateRule(r, true); err != nil {
			return nil, err
		}
		for j, term := range r.Terms {
			r.Terms[j] = strings.ToLower(term)
		}
		c.rules = append(c.rules, r)
	}

	fallback = fallback.clone()
	fallback.Terms = nil
	if fallback.Name == "" {
		fallback.Name = FallbackRuleName
	}
	if err := validateRule(fallback, false); err != nil {
		return nil, err
	}
	c.fallback = fallback
	return c, nil
}

// NewDefaultClassifier 使用内置规则表构造分类器。
func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultRules(), DefaultFallback())
	if err != nil {
		// 内置规则表在测试中校验
		panic(err)
	}
	return c
}

func validateRule(r Rule, needTerms bool) error {
	if needTerms {
		if len(r.Terms) == 0 {
			return fmt.Errorf("%w: rule %q has no terms", ErrInvalidRule, r.Name)
		}
		for _, term := range r.Terms {
			if strings.TrimSpace(term) == "" {
				return fmt.Errorf("%w: rule %q has a blank term", ErrInvalidRule, r.Name)
			}
		}
	}
	if strings.TrimSpace(r.Response) == "" {
		return fmt.Errorf("%w: rule %q has an empty response", ErrInvalidRule, r.Name)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: rule %q has unknown category %q", ErrInvalidRule, r.Name, r.Category)
	}
	return nil
}

// Classify 返回第一条命中规则的回复；都未命中时返回兜底回复。
func (c *Classifier) Classify(message string) Classification {
	lower := strings.ToLower(message)
	for _, r := range c.rules {
		if r.matches(lower) {
			return classificationOf(r)
		}
	}
	return classificationOf(c.fallback)
}

// Rules 按优先级顺序返回规则表副本。
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.clone()
	}
	return out
}

// Fallback 返回兜底规则副本。
func (c *Classifier) Fallback() Rule {
	return c.fallback.clone()
}

func classificationOf(r Rule) Classification {
	return Classification{
		Rule:        r.Name,
		Category:    r.Category,
		Message:     r.Response,
		Suggestions: append([]string{}, r.Suggestions...),
	}
}
