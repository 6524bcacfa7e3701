package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractUsedDoc(t *testing.T) {
	answer, doc := extractUsedDoc("อนุมัติโดย MD [USED_DOC: 12]")
	assert.Equal(t, "อนุมัติโดย MD", answer)
	assert.Equal(t, "12", doc)

	answer, doc = extractUsedDoc("[USED_DOC:3] คำตอบอยู่หลังแท็ก")
	assert.Equal(t, "คำตอบอยู่หลังแท็ก", answer)
	assert.Equal(t, "3", doc)

	answer, doc = extractUsedDoc("ไม่มีแท็กอ้างอิง")
	assert.Equal(t, "ไม่มีแท็กอ้างอิง", answer)
	assert.Equal(t, "", doc)

	answer, doc = extractUsedDoc("")
	assert.Equal(t, "", answer)
	assert.Equal(t, "", doc)
}
