package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinUsernameLength - минимальная длина имени пользователя
const MinUsernameLength = 3

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidUsername проверяет длину и набор символов имени пользователя
func ValidUsername(username string) bool {
	return utf8.RuneCountInString(username) >= MinUsernameLength && usernamePattern.MatchString(username)
}

// LoginIdentifier строит синтетический логин: lower(username) + "@" + domain
func LoginIdentifier(username, domain string) string {
	return strings.ToLower(strings.TrimSpace(username)) + "@" + strings.TrimPrefix(domain, "@")
}

// LocalPart возвращает часть идентификатора до "@"
func LocalPart(identifier string) string {
	if i := strings.LastIndex(identifier, "@"); i >= 0 {
		return identifier[:i]
	}
	return identifier
}

// ReferenceToken - код платежа, по которому администратор сопоставляет перевод
func ReferenceToken(identifier string) string {
	return "REF-" + strings.ToUpper(LocalPart(identifier))
}
