package ai

import "automindmap/internal/models"

// wordBudgets caps the content words of an explanation per mode and style.
// Within a style the caps grow short < medium < long, and the teacher
// column never falls below the standard one.
var wordBudgets = map[models.Mode]map[models.Style]int{
	models.ModeShort: {
		models.StyleStandard:   10,
		models.StyleTeacher:    20,
		models.StyleExpert:     15,
		models.StyleAccessible: 15,
	},
	models.ModeMedium: {
		models.StyleStandard:   30,
		models.StyleTeacher:    50,
		models.StyleExpert:     40,
		models.StyleAccessible: 40,
	},
	models.ModeLong: {
		models.StyleStandard:   60,
		models.StyleTeacher:    100,
		models.StyleExpert:     80,
		models.StyleAccessible: 80,
	},
}

// WordBudget returns the word cap for a mode and style. Comprehensive mode
// and unknown pairs have no cap and report ok == false.
func WordBudget(mode models.Mode, style models.Style) (int, bool) {
	byStyle, ok := wordBudgets[mode]
	if !ok {
		return 0, false
	}
	budget, ok := byStyle[style]
	return budget, ok
}
