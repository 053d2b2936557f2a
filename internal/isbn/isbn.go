// Package isbn canonicalizes and validates ISBN-10 and ISBN-13 book identifiers.
//
// Every function that can fail to produce an identifier reports it with a
// boolean instead of an error: an unusable code is a normal outcome when
// scanning barcodes or reading spreadsheet cells.
//
//	code, ok := isbn.Normalize("0-7653-1178-5") // "9780765311788", true
//	code, ok = isbn.ExtractFromBarcode("EAN 9780765311788")
package isbn

import (
	"regexp"
	"strings"
)

var (
	separators   = regexp.MustCompile(`[-\s]`)
	isbn10Shape  = regexp.MustCompile(`(?i)^\d{9}[\dX]$`)
	isbn13Shape  = regexp.MustCompile(`^\d{13}$`)
	barcodeScans = []*regexp.Regexp{
		regexp.MustCompile(`978\d{10}`),
		regexp.MustCompile(`979\d{10}`),
		regexp.MustCompile(`(?i)\d{9}[\dX]`),
	}
)

// Normalize strips dashes and whitespace and returns the ISBN-13 form of raw.
// Thirteen digits are accepted as-is (check digit not verified); a valid
// ISBN-10 is converted.
func Normalize(raw string) (string, bool) {
	cleaned := separators.ReplaceAllString(raw, "")

	if isbn13Shape.MatchString(cleaned) {
		return cleaned, true
	}

	if len(cleaned) == 10 && isbn10Shape.MatchString(cleaned) && IsValidISBN10(cleaned) {
		return ISBN10To13(cleaned), true
	}

	return "", false
}

// IsValidISBN13 reports whether value is exactly 13 digits with a correct check digit.
func IsValidISBN13(value string) bool {
	if !isbn13Shape.MatchString(value) {
		return false
	}
	return weightedSum13(value, 13)%10 == 0
}

// IsValidISBN10 reports whether value is nine digits plus a digit or X whose
// weighted sum is divisible by 11.
func IsValidISBN10(value string) bool {
	if !isbn10Shape.MatchString(value) {
		return false
	}

	sum := 0
	for i := 0; i < 10; i++ {
		c := value[i]
		digit := int(c - '0')
		if c == 'X' || c == 'x' {
			digit = 10
		}
		sum += digit * (10 - i)
	}
	return sum%11 == 0
}

// ISBN10To13 prefixes the first nine digits with 978 and appends a fresh check digit.
// The input is assumed to be a valid ISBN-10.
func ISBN10To13(isbn10 string) string {
	base := "978" + isbn10[:9]
	return base + string(CheckDigit13(base))
}

// ISBN13To10 converts a 978-prefixed ISBN-13 back to its ISBN-10 form.
// 979 identifiers have no ISBN-10 equivalent.
func ISBN13To10(isbn13 string) (string, bool) {
	if !IsValidISBN13(isbn13) || !strings.HasPrefix(isbn13, "978") {
		return "", false
	}

	body := isbn13[3:12]
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(body[i]-'0') * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return body + "X", true
	}
	return body + string(rune('0'+check)), true
}

// CheckDigit13 computes the ISBN-13 check digit over the first twelve digits.
func CheckDigit13(first12 string) byte {
	sum := weightedSum13(first12, 12)
	return byte('0' + (10-sum%10)%10)
}

// ExtractFromBarcode finds an ISBN inside a scanner payload that may carry
// prefixes or suffixes, such as "EAN 9780765311788".
func ExtractFromBarcode(raw string) (string, bool) {
	if code, ok := Normalize(raw); ok && IsValidISBN13(code) {
		return code, true
	}

	for _, pattern := range barcodeScans {
		match := pattern.FindString(raw)
		if match == "" {
			continue
		}
		if code, ok := Normalize(match); ok && IsValidISBN13(code) {
			return code, true
		}
	}

	return "", false
}

// weightedSum13 applies the alternating 1/3 weights to the first n digits.
func weightedSum13(digits string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	return sum
}
