package mdconv

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// navRuleEnv is the evaluation environment exposed to
// PreprocessingOptions.ExtraNavigationRules expressions: a boolean
// expression like `Class contains "promo" or Role == "banner"` decides
// whether an element is treated as navigation chrome and stripped.
type navRuleEnv struct {
	Tag      string
	ID       string
	Class    string
	Role     string
	Classes  []string
}

// compiledNavRules compiles a set of expr-lang rule strings once per
// run (they are immutable configuration, spec §4.A) so the sanitizer can
// evaluate them cheaply per element during the single preprocessing
// pass.
type compiledNavRules struct {
	programs []*vm.Program
}

func compileNavRules(rules []string) (*compiledNavRules, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	c := &compiledNavRules{}
	for _, r := range rules {
		p, err := expr.Compile(r, expr.Env(navRuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, &PreprocessingError{Field: "Preprocessing.ExtraNavigationRules", Err: err}
		}
		c.programs = append(c.programs, p)
	}
	return c, nil
}

// matches reports whether any compiled rule evaluates truthy for env.
// Evaluation errors are absorbed (rule treated as non-matching) per the
// preprocessor's "always absorb" propagation policy (spec §7) — a
// misbehaving custom rule must never abort a conversion.
func (c *compiledNavRules) matches(env navRuleEnv) bool {
	if c == nil {
		return false
	}
	for _, p := range c.programs {
		out, err := expr.Run(p, env)
		if err != nil {
			continue
		}
		if b, ok := out.(bool); ok && b {
			return true
		}
	}
	return false
}

func navRuleEnvFor(tag, id, class, role string) navRuleEnv {
	return navRuleEnv{
		Tag:     tag,
		ID:      id,
		Class:   class,
		Role:    role,
		Classes: splitFields(class),
	}
}
