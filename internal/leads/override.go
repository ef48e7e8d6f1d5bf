package leads

import "regexp"

// Шесть цифр подряд, ограниченных не-цифрами или краями строки.
var overrideKeyRe = regexp.MustCompile(`(?:^|[^0-9])[0-9]{6}(?:[^0-9]|$)`)

// DetectOverrideToken — детерминированная проверка на 6-значный ключ.
// Срабатывает ДО любого обращения к AI: ключ — однозначный бизнес-сигнал,
// вероятностный классификатор к нему не допускается.
func DetectOverrideToken(text string) bool {
	return overrideKeyRe.MatchString(text)
}
