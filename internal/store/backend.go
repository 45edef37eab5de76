package store

// Collection names. Each subject holds one of each.
const (
	Questions  = "questions"
	Categories = "categories"
	Quizzes    = "quizzes"
	Attempts   = "attempts"
)

// Collections lists every collection a subject is initialized with.
var Collections = []string{Questions, Categories, Quizzes, Attempts}

// Backend persists whole collections as JSON arrays, one per subject and
// name. The empty subject is the default namespace.
//
// Load returns an error wrapping fs.ErrNotExist when the collection is absent.
// Flush replaces the collection's content entirely.
type Backend interface {
	Ensure(subject string, names []string) error
	Load(subject, name string) ([]byte, error)
	Flush(subject, name string, data []byte) error
	Subjects() ([]string, error)
	Close() error
}
