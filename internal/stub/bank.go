package stub

import "schoolplus/internal/domain"

// DefaultBankID names the built-in level.
const DefaultBankID = "level-1"

// DefaultBanks returns the built-in question banks.
func DefaultBanks() map[string]domain.QuestionBank {
	q := func(text string, answer int, options ...string) domain.BankQuestion {
		return domain.BankQuestion{Text: text, Options: options, Answer: answer, ScoreCorrect: 10, ScoreWrong: -5}
	}
	return map[string]domain.QuestionBank{
		DefaultBankID: {
			ID: DefaultBankID,
			Questions: []domain.BankQuestion{
				q("Who is the creator of Python?", 0, "Guido van Rossum", "James Gosling", "Brendan Eich", "Bjarne Stroustrup"),
				q("Which of the following is NOT a Python data type?", 3, "List", "Tuple", "Dictionary", "Array"),
				q("How do you write comments in Python?", 2, "//", "/* */", "#", "<!-- -->"),
				q("What is the output of 'print(type([]))'?", 0, "<class 'list'>", "<class 'array'>", "<class 'tuple'>", "<class 'dict'>"),
				q("Which keyword is used for function definition in Python?", 1, "function", "def", "func", "define"),
			},
		},
	}
}
