package assistant

import (
	"fmt"

	"github.com/spf13/viper"
)

// ruleFile 对应规则文件结构，rules 的顺序即匹配优先级。
type ruleFile struct {
	Rules    []Rule `mapstructure:"rules"`
	Fallback *Rule  `mapstructure:"fallback"`
}

// LoadRules 从 YAML/JSON 文件加载规则表。文件未给出 fallback 时使用内置兜底回复。
func LoadRules(path string) (*Classifier, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取规则文件失败: %w", err)
	}

	var f ruleFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("解析规则文件失败: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("%w: %s contains no rules", ErrInvalidRule, path)
	}

	fallback := DefaultFallback()
	if f.Fallback != nil {
		fallback = *f.Fallback
	}
	return NewClassifier(f.Rules, fallback)
}
