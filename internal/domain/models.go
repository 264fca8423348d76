package domain

// Role identifies which of the three account types a user belongs to.
type Role string

const (
	RoleResearcher Role = "researcher"
	RoleParent     Role = "parent"
	RoleChild      Role = "child"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleResearcher, RoleParent, RoleChild:
		return Role(raw), nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether the role is one of the three known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User is an account in the Mathflix app. Password is only ever set on the
// built-in demo accounts; it is stripped before the user is persisted.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	ParentID string `json:"parentId,omitempty"`
	ChildID  string `json:"childId,omitempty"`
	Password string `json:"password,omitempty"`
}

// Credentials is a login request.
type Credentials struct {
	Username string
	Password string
}

// Registration is a sign-up request.
type Registration struct {
	Username string
	Password string
	Email    string
	Name     string
	Role     Role
}

// Session is a single study-session log entry.
type Session struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Duration    int    `json:"duration"` // minutes
	Date        string `json:"date"`     // RFC3339 creation time
	Description string `json:"description,omitempty"`
	IsCompleted bool   `json:"isCompleted"`
}

// SessionInput carries the caller-provided fields of a new session.
type SessionInput struct {
	Title       string
	Duration    int
	Description string
}

// Difficulty rates a quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether the difficulty is one of the known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"` // index into Options
	Explanation   string   `json:"explanation,omitempty"`
	Points        int      `json:"points"` // modeled but not consulted by grading
}

// Quiz is an authored quiz plus every attempt ever submitted against it.
// Attempts is append-only: entries are never edited or removed on their own,
// only dropped along with the whole quiz.
type Quiz struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    int           `json:"duration"` // minutes
	Subject     string        `json:"subject"`
	Difficulty  Difficulty    `json:"difficulty"`
	Questions   []Question    `json:"questions"`
	CreatedBy   string        `json:"createdBy"`
	AssignedTo  []string      `json:"assignedTo"`
	IsPublished bool          `json:"isPublished"`
	CreatedAt   string        `json:"createdAt"`
	Attempts    []QuizAttempt `json:"attempts"`
}

// QuizAttempt is one graded run through a quiz.
type QuizAttempt struct {
	ID             string       `json:"id"`
	QuizID         string       `json:"quizId"`
	ChildID        string       `json:"childId"`
	Score          int          `json:"score"` // 0-100 percentage
	TotalQuestions int          `json:"totalQuestions"`
	CorrectAnswers int          `json:"correctAnswers"`
	TimeTaken      int          `json:"timeTaken"` // seconds
	CompletedAt    string       `json:"completedAt"`
	Answers        []UserAnswer `json:"answers"`
}

// UnansweredOption marks a question slot that has not been answered yet.
const UnansweredOption = -1

// UserAnswer records a single answered question within an attempt.
type UserAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
	TimeSpent      int    `json:"timeSpent"` // seconds
}
