package domain

// Question is one multiple-choice trivia question as delivered by the
// provider. Field texts may contain HTML entities; they are decoded at
// presentation time, not here.
type Question struct {
	Prompt           string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// ScoreRecord is a nickname's best score ever reached across sessions.
type ScoreRecord struct {
	Nickname string
	Score    int
}

// Category is one entry of the fixed topic table.
type Category struct {
	Code string
	Name string
}

// AnyCategory is the wildcard code meaning no topic filter.
const AnyCategory = "Any"

// Categories is the closed, ordered topic table presented to clients.
// Codes follow the provider's numbering and never change at runtime.
var Categories = []Category{
	{AnyCategory, "Any Category"},
	{"9", "General Knowledge"},
	{"10", "Entertainment: Books"},
	{"11", "Entertainment: Film"},
	{"12", "Entertainment: Music"},
	{"13", "Entertainment: Musicals & Theatres"},
	{"14", "Entertainment: Television"},
	{"15", "Entertainment: Video Games"},
	{"16", "Entertainment: Board Games"},
	{"17", "Science & Nature"},
	{"18", "Science: Computers"},
	{"19", "Science: Mathematics"},
	{"20", "Mythology"},
	{"21", "Sports"},
	{"22", "Geography"},
	{"23", "History"},
	{"24", "Politics"},
	{"25", "Art"},
	{"26", "Celebrities"},
	{"27", "Animals"},
	{"28", "Vehicles"},
	{"29", "Entertainment: Comics"},
	{"30", "Science: Gadgets"},
	{"31", "Entertainment: Japanese Anime & Manga"},
	{"32", "Entertainment: Cartoon & Animations"},
}

var categoryByCode = func() map[string]Category {
	m := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		m[c.Code] = c
	}
	return m
}()

// CategoryByCode looks up a category by its exact code. Lookup is
// case-sensitive; "any" is not a valid code.
func CategoryByCode(code string) (Category, bool) {
	c, ok := categoryByCode[code]
	return c, ok
}

// Difficulty level codes accepted at the level prompt.
const (
	MinLevel = 1
	MaxLevel = 3
)

var difficultyNames = [...]string{"easy", "medium", "hard"}

// DifficultyName maps a level code 1-3 to the provider's difficulty name.
func DifficultyName(level int) string {
	return difficultyNames[level-1]
}
