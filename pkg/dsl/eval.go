// Package dsl 用 CEL 表达式描述推荐解释规则，变量为四个分量得分与最终分：
//
//	cf > 0.7
//	tag > 0.7 && context > 0.3
//	final >= 0.5
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/behuman/moodrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable(core.ComponentCF, cel.DoubleType),
			cel.Variable(core.ComponentTag, cel.DoubleType),
			cel.Variable(core.ComponentSemantic, cel.DoubleType),
			cel.Variable(core.ComponentContext, cel.DoubleType),
			cel.Variable("final", cel.DoubleType),
		)
	})
	return celEnv, celEnvErr
}

// Expr 是编译后的布尔表达式，可被并发求值。
type Expr struct {
	src string
	prg cel.Program
}

// Compile 编译表达式，语法错误或返回值不是 bool 时返回 CONFIG 错误。
func Compile(src string) (*Expr, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, core.NewConfigError(core.ModuleScoring, "cel env: %v", err)
	}
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, core.NewConfigError(core.ModuleScoring, "compile %q: %v", src, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, core.NewConfigError(core.ModuleScoring, "expression %q must return bool, got %v", src, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, core.NewConfigError(core.ModuleScoring, "program %q: %v", src, err)
	}
	return &Expr{src: src, prg: prg}, nil
}

func (e *Expr) String() string { return e.src }

// Eval 以分量得分为输入求值。
func (e *Expr) Eval(scores core.ComponentScores, final float64) (bool, error) {
	out, _, err := e.prg.Eval(map[string]any{
		core.ComponentCF:       scores.CF,
		core.ComponentTag:      scores.Tag,
		core.ComponentSemantic: scores.Semantic,
		core.ComponentContext:  scores.Context,
		"final":                final,
	})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", e.src, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", e.src, out.Value())
	}
	return result, nil
}

// Rule 是一条解释规则：When 为真时使用 Message。
type Rule struct {
	When    string `json:"when" yaml:"when" koanf:"when"`
	Message string `json:"message" yaml:"message" koanf:"message"`
}

// DefaultFallback 是没有规则命中时的解释
const DefaultFallback = "recommended based on your overall preferences"

// DefaultRules 按优先级排列：协同过滤 > 标签 > 上下文。
func DefaultRules() []Rule {
	return []Rule{
		{When: "cf > 0.7", Message: "similar users enjoyed this"},
		{When: "tag > 0.7", Message: "matches your profile and situation"},
		{When: "context > 0.5", Message: "fits this moment and mood"},
	}
}

type compiledRule struct {
	expr    *Expr
	message string
}

// Explainer 按顺序匹配规则，第一个命中的规则给出解释。
type Explainer struct {
	rules    []compiledRule
	fallback string
}

// NewExplainer 编译全部规则。rules 为空时使用 DefaultRules，fallback 为空时使用 DefaultFallback。
func NewExplainer(rules []Rule, fallback string) (*Explainer, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if fallback == "" {
		fallback = DefaultFallback
	}
	x := &Explainer{rules: make([]compiledRule, 0, len(rules)), fallback: fallback}
	for i, r := range rules {
		if r.Message == "" {
			return nil, core.NewConfigError(core.ModuleScoring, "explanation rule %d has no message", i)
		}
		expr, err := Compile(r.When)
		if err != nil {
			return nil, err
		}
		x.rules = append(x.rules, compiledRule{expr: expr, message: r.Message})
	}
	return x, nil
}

// Explain 返回第一个命中规则的解释。
func (x *Explainer) Explain(scores core.ComponentScores, final float64) (string, error) {
	for _, r := range x.rules {
		ok, err := r.expr.Eval(scores, final)
		if err != nil {
			return "", err
		}
		if ok {
			return r.message, nil
		}
	}
	return x.fallback, nil
}
