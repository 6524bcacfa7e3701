package expansion

import (
	"strings"

	"DoaLink/internal/config"
)

// SynonymRule 触发词 -> 扩展词。触发词对小写后的 query 做子串匹配。
type SynonymRule struct {
	Triggers []string
	Expands  []string
}

// Expander 同义词查询扩展器。命中多条规则时全部扩展词取并集追加。
type Expander struct {
	rules []SynonymRule
}

// defaultRules DOA 领域内置规则
var defaultRules = []SynonymRule{
	{
		Triggers: []string{"อบรม", "ฝึกอบรม", "การอบรม", "การฝึกอบรม", "training", "l&d"},
		Expands:  []string{"training", "training expenses"},
	},
	{
		Triggers: []string{"เงินทดรอง", "ทดรองจ่าย", "เคลียร์เงิน", "clearing", "advance"},
		Expands:  []string{"Advance payment and clearing", "Overseas trip", "Domestic activity", "Sales & Marketing activity"},
	},
	{
		Triggers: []string{"ภาษีนำเข้า", "ภาษีส่งออก", "อากร", "ศุลกากร", "import tax", "export tax"},
		Expands:  []string{"Advance payment for import and export taxes"},
	},
	{
		Triggers: []string{"บริจาค", "donation", "สินค้าสำเร็จรูป", "fg"},
		Expands:  []string{"Company's Finished Goods (FG) Donation", "FG (Re-Condition)", "Normal FG"},
	},
	{
		Triggers: []string{"เบี้ยเลี้ยง", "ค่าที่พัก", "ค่าเดินทาง", "per diem", "reimbursement"},
		Expands:  []string{"Reimbursement for Per Diem", "Lodging and Travelling expenses"},
	},
}

func NewExpander(rules []SynonymRule) *Expander {
	if len(rules) == 0 {
		rules = defaultRules
	}
	return &Expander{rules: rules}
}

// NewExpanderFromConfig 配置了覆盖规则用配置的，否则用内置规则
func NewExpanderFromConfig(conf *config.Config) *Expander {
	if conf == nil || len(conf.ChatConfig.Synonyms) == 0 {
		return NewExpander(nil)
	}
	rules := make([]SynonymRule, 0, len(conf.ChatConfig.Synonyms))
	for _, r := range conf.ChatConfig.Synonyms {
		if len(r.Triggers) == 0 || len(r.Expands) == 0 {
			continue
		}
		rules = append(rules, SynonymRule{Triggers: r.Triggers, Expands: r.Expands})
	}
	return NewExpander(rules)
}

// Expand 匹配只看小写，原 query 大小写原样保留。
// 无规则命中时原样返回，对不含触发词的输入幂等。
func (e *Expander) Expand(query string) string {
	lower := strings.ToLower(query)

	var terms []string
	seen := make(map[string]struct{})
	for _, rule := range e.rules {
		matched := false
		for _, trigger := range rule.Triggers {
			if strings.Contains(lower, strings.ToLower(trigger)) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, term := range rule.Expands {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}

	if len(terms) == 0 {
		return query
	}
	return query + " " + strings.Join(terms, " ")
}
