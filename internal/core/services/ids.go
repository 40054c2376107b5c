package services

import (
	"crypto/rand"
	"strconv"
	"strings"
	"unicode/utf16"

	"message-editor/internal/domain"
	"message-editor/internal/ports"
)

// idAlphabet — символы, безопасные для команд и URL.
const idAlphabet = "qQwWeErRtTyYuUiIoOpPaAsSdDfFgGhHjJkKlLzZxXcCvVbBnNmM0123456789-_"

// DefaultIDLength — длина случайной части идентификатора.
const DefaultIDLength = 10

// RandomIDGenerator создает идентификаторы из криптографически стойкого источника.
type RandomIDGenerator struct {
	length int
}

// NewRandomIDGenerator создает генератор случайных идентификаторов.
func NewRandomIDGenerator() ports.IDGenerator {
	return &RandomIDGenerator{length: DefaultIDLength}
}

// Generate возвращает код места и случайный суффикс.
func (g *RandomIDGenerator) Generate(place domain.Place, _ string) string {
	buf := make([]byte, g.length)
	// crypto/rand.Read не возвращает ошибок на поддерживаемых платформах
	_, _ = rand.Read(buf)

	var b strings.Builder
	b.Grow(len(place.ID) + g.length)
	b.WriteString(place.ID)
	for _, v := range buf {
		// алфавит из 64 символов, поэтому младшие 6 бит распределены равномерно
		b.WriteByte(idAlphabet[v&63])
	}
	return b.String()
}

// HashIDGenerator создает идентификатор из хеша текста.
// Одинаковый текст в одном месте всегда получает один и тот же идентификатор,
// поэтому генератор годится для воспроизводимых тестовых данных.
type HashIDGenerator struct{}

// NewHashIDGenerator создает детерминированный генератор.
func NewHashIDGenerator() ports.IDGenerator {
	return HashIDGenerator{}
}

// Generate кодирует десятичные цифры хеша текста парами:
// пара меньше 64 дает один символ, иначе каждая цифра дает свой.
func (HashIDGenerator) Generate(place domain.Place, text string) string {
	digits := hashDigits(text)

	var b strings.Builder
	b.WriteString(place.ID)
	for i := 0; i < len(digits); i += 2 {
		if i+1 >= len(digits) {
			b.WriteByte(idAlphabet[digits[i]-'0'])
			break
		}
		n := int(digits[i]-'0')*10 + int(digits[i+1]-'0')
		if n < len(idAlphabet) {
			b.WriteByte(idAlphabet[n])
		} else {
			b.WriteByte(idAlphabet[digits[i]-'0'])
			b.WriteByte(idAlphabet[digits[i+1]-'0'])
		}
	}
	return b.String()
}

// hashDigits возвращает десятичную запись 32-битного полиномиального хеша
// по кодовым единицам UTF-16; отрицательный хеш заменяется удвоенным модулем.
func hashDigits(text string) string {
	var h int32
	for _, unit := range utf16.Encode([]rune(text)) {
		h = 31*h + int32(unit)
	}
	if h >= 0 {
		return strconv.FormatInt(int64(h), 10)
	}
	return strings.TrimPrefix(strconv.FormatInt(int64(-h)*2, 10), "-")
}
