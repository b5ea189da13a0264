// Package abn validates and formats Australian Business Numbers
package abn

import (
	"fmt"

	"github.com/Ramsey-B/banksia/pkg/normalizers"
)

// Length is the number of digits in an ABN
const Length = 11

var weights = [Length]int{10, 1, 3, 5, 7, 9, 11, 13, 15, 17, 19}

// Normalize strips everything but digits
func Normalize(s string) string {
	return normalizers.DigitsOnly(s)
}

// Validate reports whether s is a well-formed ABN.
// Subtract 1 from the first digit, weight each digit, and the sum must be divisible by 89.
func Validate(s string) bool {
	digits := Normalize(s)
	if len(digits) != Length {
		return false
	}

	sum := 0
	for i, r := range digits {
		d := int(r - '0')
		if i == 0 {
			d--
		}
		sum += d * weights[i]
	}

	return sum%89 == 0
}

// Format renders a valid ABN as "NN NNN NNN NNN" and returns the input unchanged otherwise
func Format(s string) string {
	if !Validate(s) {
		return s
	}
	d := Normalize(s)
	return fmt.Sprintf("%s %s %s %s", d[0:2], d[2:5], d[5:8], d[8:11])
}
