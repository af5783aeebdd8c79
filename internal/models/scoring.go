package models

import "strconv"

// Percentage returns score/total*100 rounded to one decimal, 0 when total is 0.
// Exact ties round to even: 1 of 16 is 6.2, 3 of 16 is 18.8.
func Percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	p := float64(score) / float64(total) * 100
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(p, 'f', 1, 64), 64)
	return rounded
}

// AllModels lists the tables owned by the service, in migration order
func AllModels() []interface{} {
	return []interface{}{
		&ExamSet{},
		&Question{},
		&ExamSession{},
		&Answer{},
	}
}
