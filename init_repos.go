// Repository wire-up.
//
// initRepositories builds every SQLite repository on one shared pool and
// returns them behind their interfaces.
package main

import (
	"database/sql"

	"github.com/akinalp/circle/repository"
)

// Repositories holds every repository instance so later wire-up steps take
// one parameter instead of fourteen.
type Repositories struct {
	User         repository.UserRepository
	Session      repository.SessionRepository
	ResetToken   repository.PasswordResetRepository
	Application  repository.ApplicationRepository
	Group        repository.GroupRepository
	Goal         repository.GoalRepository
	Task         repository.TaskRepository
	Reflection   repository.ReflectionRepository
	Question     repository.QuestionRepository
	Answer       repository.AnswerRepository
	Notification repository.NotificationRepository
	Template     repository.TemplateRepository
	Audit        repository.AuditRepository
	Deletion     repository.DeletionRepository
	Eraser       repository.AccountEraser
}

func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:         repository.NewSQLiteUserRepo(conn),
		Session:      repository.NewSQLiteSessionRepo(conn),
		ResetToken:   repository.NewSQLiteResetTokenRepo(conn),
		Application:  repository.NewSQLiteApplicationRepo(conn),
		Group:        repository.NewSQLiteGroupRepo(conn),
		Goal:         repository.NewSQLiteGoalRepo(conn),
		Task:         repository.NewSQLiteTaskRepo(conn),
		Reflection:   repository.NewSQLiteReflectionRepo(conn),
		Question:     repository.NewSQLiteQuestionRepo(conn),
		Answer:       repository.NewSQLiteAnswerRepo(conn),
		Notification: repository.NewSQLiteNotificationRepo(conn),
		Template:     repository.NewSQLiteTemplateRepo(conn),
		Audit:        repository.NewSQLiteAuditRepo(conn),
		Deletion:     repository.NewSQLiteDeletionRepo(conn),
		Eraser:       repository.NewSQLiteAccountEraser(conn),
	}
}
