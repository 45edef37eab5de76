package model

// SubjectExport is the top-level JSON structure written by the export command.
type SubjectExport struct {
	Subject    string       `json:"subject"`
	ExportedAt Timestamp    `json:"exported_at"`
	Quizzes    []QuizExport `json:"quizzes"`
	Categories []Category   `json:"categories"`
	Questions  []Question   `json:"questions"`
}

// QuizExport holds one quiz with its attempts.
type QuizExport struct {
	Quiz        Quiz          `json:"quiz"`
	TotalPoints int           `json:"total_points"`
	Attempts    []QuizAttempt `json:"attempts"`
}
