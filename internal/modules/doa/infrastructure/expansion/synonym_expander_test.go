package expansion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandNonMatchingQueryUnchanged(t *testing.T) {
	e := NewExpander(nil)

	q := "ขอเบิกค่าน้ำมันรถ"
	assert.Equal(t, q, e.Expand(q))
	// 幂等：再扩一次也不变
	assert.Equal(t, q, e.Expand(e.Expand(q)))
}

func TestExpandAppendsTermsOnTrigger(t *testing.T) {
	e := NewExpander([]SynonymRule{
		{Triggers: []string{"อบรม", "training"}, Expands: []string{"ฝึกอบรม", "สัมมนา"}},
	})

	out := e.Expand("ค่าอบรมพนักงาน")
	assert.Equal(t, "ค่าอบรมพนักงาน ฝึกอบรม สัมมนา", out)
}

func TestExpandMatchIsCaseInsensitive(t *testing.T) {
	e := NewExpander([]SynonymRule{
		{Triggers: []string{"training"}, Expands: []string{"ฝึกอบรม"}},
	})

	out := e.Expand("TRAINING budget")
	assert.Equal(t, "TRAINING budget ฝึกอบรม", out)
}

func TestExpandUnionsAllFiringRules(t *testing.T) {
	e := NewExpander([]SynonymRule{
		{Triggers: []string{"อบรม"}, Expands: []string{"ฝึกอบรม", "สัมมนา"}},
		{Triggers: []string{"เดินทาง"}, Expands: []string{"ค่าเดินทาง", "สัมมนา"}},
	})

	out := e.Expand("อบรมและเดินทาง")
	// 两条规则都命中，追加词串联且去重
	assert.Equal(t, "อบรมและเดินทาง ฝึกอบรม สัมมนา ค่าเดินทาง", out)
}

func TestDefaultRulesCoverKnownDomains(t *testing.T) {
	e := NewExpander(nil)

	out := e.Expand("ขออนุมัติ training")
	assert.NotEqual(t, "ขออนุมัติ training", out)
	assert.True(t, strings.HasPrefix(out, "ขออนุมัติ training "))

	// per diem 规则
	out = e.Expand("per diem ต่างประเทศ")
	assert.NotEqual(t, "per diem ต่างประเทศ", out)
}
