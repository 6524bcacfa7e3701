package assemble

import "strings"

const clampMarker = "\n...\n"

// Clamp 长度超限时保留开头 60% 预算和结尾 30% 预算，中间放省略标记，
// 长上下文的首尾信息都留住。未超限原样返回。按 rune 计数。
func Clamp(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	head := max * 6 / 10
	tail := max * 3 / 10
	return string(runes[:head]) + clampMarker + string(runes[len(runes)-tail:])
}

// Sanitize 去掉全部花括号，其余字符不动。
// 上下文会被插进模板引擎，花括号是模板控制语法。
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return -1
		}
		return r
	}, s)
}
