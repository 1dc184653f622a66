package models

// Typed id wrappers so prompt_id / user_id references that cross logical
// store boundaries (prompts_db, users_db, evals_db) without a foreign key
// can't be swapped for one another by accident (spec §9).
type (
	PromptID     int64
	UserID       string
	EvaluationID int64
	GroupID      int64
	QueueEntryID int64
	AssistantID  int64
	PlanID       int64
	ReportID     int64
)
