package pipeline

import (
	"fmt"
	"strings"
)

// PromptTemplate 系统提示词模板，%s 依次注入 overview / detail 两段上下文。
// 两段上下文必须原样注入，历史按原顺序回放在新问题之前。
type PromptTemplate struct {
	Template string
}

// defaultSystemPrompt DOA 审批政策助手的默认系统提示词
const defaultSystemPrompt = `คุณคือผู้ช่วย AI สำหรับตอบคำถามเกี่ยวกับนโยบาย Delegation of Authority (DOA) ของบริษัท
หน้าที่ของคุณคือตอบคำถามเรื่องสิทธิการอนุมัติค่าใช้จ่ายตามหมวดหมู่และกิจกรรมทางธุรกิจ โดยอ้างอิงจากข้อมูลที่ให้ไว้เท่านั้น

ข้อมูลชุดที่ 1 (ภาพรวมหมวดหมู่):
%s

ข้อมูลชุดที่ 2 (รายละเอียดสิทธิการอนุมัติ):
%s

กติกาการตอบ:
- ตอบเป็นภาษาไทย กระชับ ชัดเจน
- ระบุหมวด กิจกรรม และลำดับสิทธิการอนุมัติให้ครบถ้วนเมื่อข้อมูลมี
- ถ้าไม่พบข้อมูลในเอกสาร ให้แจ้งว่าไม่พบและแนะนำให้ตรวจสอบที่ https://doa.toagroup.com/doa
- ห้ามเดาหรือแต่งตัวเลขวงเงินอนุมัติเอง`

func NewPromptTemplate(template string) PromptTemplate {
	if strings.TrimSpace(template) == "" {
		template = defaultSystemPrompt
	}
	return PromptTemplate{Template: template}
}

// Render 注入两段上下文
func (t PromptTemplate) Render(overviewCtx, detailCtx string) string {
	return fmt.Sprintf(t.Template, overviewCtx, detailCtx)
}
