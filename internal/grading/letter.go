package grading

import "strings"

const (
	MessageTop     = "Great job! 🎉"
	MessageStellar = "Stellar! ⭐"
	MessageTry     = "Try a little harder next time 💪"
	MessageStudy   = "Make sure you are studying 📚"
)

type band struct {
	floor  float64
	letter string
}

// bands is ordered from the highest floor down; the first match wins.
var bands = []band{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

// LetterFailing is returned below the lowest band.
const LetterFailing = "F"

// LetterFor maps a percentage to its letter grade.
func LetterFor(pct float64) string {
	for _, b := range bands {
		if pct >= b.floor {
			return b.letter
		}
	}
	return LetterFailing
}

// MessageFor picks the motivational message for a letter grade.
func MessageFor(letter string) string {
	switch {
	case letter == "A+":
		return MessageTop
	case strings.HasPrefix(letter, "A"), strings.HasPrefix(letter, "B"):
		return MessageStellar
	case strings.HasPrefix(letter, "C"):
		return MessageTry
	default:
		return MessageStudy
	}
}

// Rank orders letters from F (0) up to A+ (len(bands)). Unknown letters rank -1.
func Rank(letter string) int {
	if letter == LetterFailing {
		return 0
	}
	for i, b := range bands {
		if b.letter == letter {
			return len(bands) - i
		}
	}
	return -1
}
