package app

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"trivia-server/internal/domain"
)

// QuestionSource fetches a batch of questions matching the session's
// selections. It may return fewer questions than requested; a failure is
// retryable, not data.
type QuestionSource interface {
	Fetch(ctx context.Context, amount int, difficulty, category string) ([]domain.Question, error)
}

// ScoreStore persists best-ever scores per nickname. GetBest returns
// domain.ErrScoreNotFound for unknown nicknames. UpsertIfHigher must be
// atomic at the store: it writes only if the nickname is absent or the
// stored score is strictly lower.
type ScoreStore interface {
	GetBest(ctx context.Context, nickname string) (int, error)
	UpsertIfHigher(ctx context.Context, nickname string, score int) error
	TopN(ctx context.Context, n int) ([]domain.ScoreRecord, error)
}

const (
	guestNickname   = "guest"
	leaderboardSize = 10

	defaultFetchRetries = 5
	defaultFetchBackoff = 2 * time.Second
)

var nicknameBlacklist = []string{"hitler", "botti", "guest", "anonimo", "ospite"}

// Config tunes the question-fetch retry policy. Zero values fall back to
// the defaults.
type Config struct {
	FetchRetries int
	FetchBackoff time.Duration
}

// Game drives one client at a time through the interactive trivia round.
// A Game is safe for concurrent use; each Run owns all per-session state.
type Game struct {
	source  QuestionSource
	scores  ScoreStore
	retries int
	backoff time.Duration
	shuffle func(n int, swap func(i, j int))
}

func NewGame(source QuestionSource, scores ScoreStore, cfg Config) *Game {
	if cfg.FetchRetries <= 0 {
		cfg.FetchRetries = defaultFetchRetries
	}
	if cfg.FetchBackoff <= 0 {
		cfg.FetchBackoff = defaultFetchBackoff
	}
	return &Game{
		source:  source,
		scores:  scores,
		retries: cfg.FetchRetries,
		backoff: cfg.FetchBackoff,
		shuffle: rand.Shuffle,
	}
}

// NewGameWithShuffle is test-only for a deterministic option order.
func NewGameWithShuffle(source QuestionSource, scores ScoreStore, cfg Config, shuffle func(n int, swap func(i, j int))) *Game {
	g := NewGame(source, scores, cfg)
	g.shuffle = shuffle
	return g
}

// Run plays one full session over rw: nickname, category, level, amount,
// question round, score persistence and leaderboard. It returns a non-nil
// error only when the session aborted early (client gone, provider down);
// nothing is persisted in that case.
func (g *Game) Run(ctx context.Context, rw io.ReadWriter) error {
	s := &session{
		g: g,
		r: bufio.NewReader(rw),
		w: rw,
	}

	if err := s.promptNickname(); err != nil {
		return err
	}
	if err := s.selectCategory(); err != nil {
		return err
	}
	if err := s.selectLevel(); err != nil {
		return err
	}
	if err := s.selectAmount(); err != nil {
		return err
	}
	if err := s.fetchQuestions(ctx); err != nil {
		return err
	}
	for _, q := range s.questions {
		if err := s.askQuestion(q); err != nil {
			return err
		}
	}
	s.finalize(ctx)
	return nil
}

// session holds the per-connection state. It lives for one Run and is
// never shared between goroutines.
type session struct {
	g *Game
	r *bufio.Reader
	w io.Writer

	nickname  string
	category  string
	level     int
	amount    int
	questions []domain.Question
	score     int
}

func (s *session) printf(format string, args ...any) {
	// Write failures surface as read errors on the next prompt.
	fmt.Fprintf(s.w, format, args...)
}

func (s *session) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err == io.EOF && line != "" {
		// Accept a final line without a trailing newline.
		return strings.TrimSpace(line), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptNickname reads the player's name. Blank or blacklisted input
// falls back to the guest identity; neither case ends the session.
func (s *session) promptNickname() error {
	s.printf("Who are you?\n")
	line, err := s.readLine()
	if err != nil {
		return err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		s.printf("Please provide a username\n")
		s.nickname = guestNickname
		return nil
	}
	name := fields[0]
	for _, banned := range nicknameBlacklist {
		if strings.ToLower(name) == banned {
			s.printf("Invalid nickname, entering as guest\n")
			s.nickname = guestNickname
			return nil
		}
	}
	s.nickname = name
	return nil
}

func (s *session) selectCategory() error {
	for {
		s.printf("Select the category:\n")
		for _, c := range domain.Categories {
			s.printf("\t%s: %s\n", c.Code, c.Name)
		}
		line, err := s.readLine()
		if err != nil {
			return err
		}
		if _, ok := domain.CategoryByCode(line); !ok {
			s.printf("Invalid category\n")
			continue
		}
		s.category = line
		s.printf("Selected category: %s\n", s.category)
		return nil
	}
}

func (s *session) selectLevel() error {
	for {
		s.printf("Select the level:\n")
		for level := domain.MinLevel; level <= domain.MaxLevel; level++ {
			s.printf("\t%d - %s\n", level, domain.DifficultyName(level))
		}
		line, err := s.readLine()
		if err != nil {
			return err
		}
		level, convErr := strconv.Atoi(line)
		if convErr != nil || level < domain.MinLevel || level > domain.MaxLevel {
			s.printf("Invalid level\n")
			continue
		}
		s.level = level
		s.printf("Selected level: %d\n", s.level)
		return nil
	}
}

func (s *session) selectAmount() error {
	for {
		s.printf("Select the amount:\n")
		line, err := s.readLine()
		if err != nil {
			return err
		}
		amount, convErr := strconv.Atoi(line)
		if convErr != nil || amount <= 0 {
			s.printf("Invalid amount\n")
			continue
		}
		s.amount = amount
		return nil
	}
}

// fetchQuestions pulls the question batch from the provider with a capped
// retry loop. The provider may legitimately return fewer questions than
// requested; whatever arrives is played as-is.
func (s *session) fetchQuestions(ctx context.Context) error {
	category := ""
	if s.category != domain.AnyCategory {
		category = s.category
	}
	difficulty := domain.DifficultyName(s.level)

	var lastErr error
	for attempt := 0; attempt < s.g.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.g.backoff):
			}
		}
		questions, err := s.g.source.Fetch(ctx, s.amount, difficulty, category)
		if err != nil {
			lastErr = err
			log.Printf("fetch questions (attempt %d/%d): %v", attempt+1, s.g.retries, err)
			continue
		}
		s.questions = questions
		return nil
	}
	s.printf("Sorry, questions are unavailable right now. Try again later.\n")
	return fmt.Errorf("%w: %v", domain.ErrQuestionsUnavailable, lastErr)
}

// askQuestion presents one question with its options shuffled and blocks
// until a valid choice resolves it. An out-of-range choice re-presents
// the question with a fresh shuffle.
func (s *session) askQuestion(q domain.Question) error {
	prompt := html.UnescapeString(q.Prompt)
	correct := html.UnescapeString(q.CorrectAnswer)
	options := make([]string, 0, len(q.IncorrectAnswers)+1)
	for _, a := range q.IncorrectAnswers {
		options = append(options, html.UnescapeString(a))
	}
	options = append(options, correct)

	for {
		s.g.shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		s.printf("\nQuestion: %s\n", prompt)
		for i, option := range options {
			s.printf("%d. %s\n", i+1, option)
		}
		s.printf("Choose the correct option: ")

		answer, err := s.readLine()
		if err != nil {
			return err
		}
		choice, convErr := strconv.Atoi(answer)
		if convErr != nil || choice < 1 || choice > len(options) {
			s.printf("Invalid choice. Please choose again.\n")
			continue
		}
		if options[choice-1] == correct {
			s.printf("Correct!\n")
			s.score++
		} else {
			s.printf("Wrong! The correct answer is: %s\n", correct)
		}
		s.printf("Your current score: %d\n", s.score)
		return nil
	}
}

// finalize persists a qualifying score and shows the leaderboard. Store
// failures degrade the session (logged, output skipped) but never end it.
func (s *session) finalize(ctx context.Context) {
	if s.nickname != guestNickname && s.score > 0 {
		if err := s.g.scores.UpsertIfHigher(ctx, s.nickname, s.score); err != nil {
			log.Printf("update score for %s: %v", s.nickname, err)
		}
	}

	records, err := s.g.scores.TopN(ctx, leaderboardSize)
	if err != nil {
		log.Printf("load leaderboard: %v", err)
	} else {
		s.printf("\n")
		for _, rec := range records {
			s.printf("| %s\t| %d\t|\n", rec.Nickname, rec.Score)
		}
	}
	s.printf("Ending game\nBye\n")
}
