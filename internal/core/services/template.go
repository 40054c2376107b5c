package services

import (
	"strings"

	"message-editor/internal/domain"
)

// ExpandTemplate подставляет группы захвата в шаблон замены.
//
// $N — группа с номером N; цифры читаются, пока номер не превышает число групп,
// поэтому при одной группе $12 означает группу 1 и символ "2". Ссылка на
// несуществующую группу заменяется пустой строкой. ${name} — именованная группа.
// \x вставляет символ x буквально; $ без номера остается как есть.
func ExpandTemplate(tmpl string, m domain.Match) string {
	if !strings.ContainsAny(tmpl, `\$`) {
		return tmpl
	}

	groups := m.GroupCount()
	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '\\' && i+1 < len(tmpl):
			i++
			b.WriteByte(tmpl[i])
		case c == '$' && i+1 < len(tmpl) && isDigit(tmpl[i+1]):
			n := int(tmpl[i+1] - '0')
			j := i + 2
			for j < len(tmpl) && isDigit(tmpl[j]) {
				next := n*10 + int(tmpl[j]-'0')
				if next > groups {
					break
				}
				n = next
				j++
			}
			if n <= groups {
				g, _ := m.Group(n)
				b.WriteString(g)
			}
			i = j - 1
		case c == '$' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			end := strings.IndexByte(tmpl[i+2:], '}')
			if end <= 0 {
				b.WriteByte(c)
				continue
			}
			name := tmpl[i+2 : i+2+end]
			g, _ := m.NamedGroup(name)
			b.WriteString(g)
			i += 2 + end
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// EscapeReplacement готовит текст, введенный пользователем, к сохранению как
// шаблон замены: удваивает обратные косые черты и экранирует каждый $, который
// не начинает ссылку на существующую группу. Если шаблон не совпал с исходным
// текстом, экранируются все $.
func EscapeReplacement(text string, groupCount int, matched bool) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	if !matched {
		return strings.ReplaceAll(text, "$", `\$`)
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] != '$' {
			b.WriteByte(text[i])
			continue
		}
		if i+1 < len(text) && isDigit(text[i+1]) && int(text[i+1]-'0') <= groupCount {
			b.WriteByte('$')
			continue
		}
		b.WriteString(`\$`)
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
