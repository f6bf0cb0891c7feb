package routeguard

import "github.com/iliyamo/lms-client/internal/model"

// Route is one guarded view of the client.
type Route struct {
	Path    string       // echo route pattern
	View    string       // view identifier rendered by the shell
	Section model.Section
	// Allowed roles; empty means any authenticated user.
	Allowed []model.Role
}

var (
	adminOnly      = []model.Role{model.RoleAdmin}
	instructorOnly = []model.Role{model.RoleInstructor}
	studentOnly    = []model.Role{model.RoleStudent}
	staff          = []model.Role{model.RoleAdmin, model.RoleInstructor}
	learning       = []model.Role{model.RoleInstructor, model.RoleStudent}
)

// Views is the client's guarded navigation table.
var Views = []Route{
	{Path: "/admin", View: "admin.dashboard", Section: model.SectionDashboard, Allowed: adminOnly},
	{Path: "/admin/users", View: "admin.users", Section: model.SectionUsers, Allowed: adminOnly},
	{Path: "/admin/settings", View: "admin.settings", Section: model.SectionSettings, Allowed: adminOnly},
	{Path: "/instructor", View: "instructor.dashboard", Section: model.SectionDashboard, Allowed: instructorOnly},
	{Path: "/instructor/content", View: "instructor.content", Section: model.SectionContent, Allowed: instructorOnly},
	{Path: "/instructor/quizzes", View: "instructor.quizzes", Section: model.SectionQuizzes, Allowed: instructorOnly},
	{Path: "/student", View: "student.dashboard", Section: model.SectionDashboard, Allowed: studentOnly},
	{Path: "/student/quizzes", View: "student.quizzes", Section: model.SectionQuizzes, Allowed: studentOnly},
	{Path: "/enrollments", View: "enrollments", Section: model.SectionEnrollments, Allowed: staff},
	{Path: "/courses", View: "courses", Section: model.SectionCourses},
	{Path: "/courses/:id", View: "course.detail", Section: model.SectionCourses},
	{Path: "/notifications/center", View: "notifications", Section: model.SectionNotifications},
	{Path: "/quizzes", View: "quizzes", Section: model.SectionQuizzes, Allowed: learning},
	{Path: "/settings", View: "settings", Section: model.SectionSettings},
	{Path: "/profile", View: "profile", Section: model.SectionProfile},
}

