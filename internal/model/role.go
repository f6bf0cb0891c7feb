package model

// Section names one area of the dashboard navigation menu.
type Section string

const (
	SectionDashboard     Section = "dashboard"
	SectionUsers         Section = "users"
	SectionCourses       Section = "courses"
	SectionContent       Section = "content"
	SectionQuizzes       Section = "quizzes"
	SectionEnrollments   Section = "enrollments"
	SectionNotifications Section = "notifications"
	SectionSettings      Section = "settings"
	SectionProfile       Section = "profile"
)

var landing = map[Role]string{
	RoleAdmin:      "/admin",
	RoleInstructor: "/instructor",
	RoleStudent:    "/student",
}

var sections = map[Role][]Section{
	RoleAdmin: {
		SectionDashboard, SectionUsers, SectionCourses, SectionEnrollments,
		SectionNotifications, SectionSettings, SectionProfile,
	},
	RoleInstructor: {
		SectionDashboard, SectionCourses, SectionContent, SectionQuizzes,
		SectionEnrollments, SectionNotifications, SectionProfile,
	},
	RoleStudent: {
		SectionDashboard, SectionCourses, SectionQuizzes,
		SectionNotifications, SectionProfile,
	},
}

// LandingPath returns the default view for a role.  Unknown or empty
// roles land on the root path.
func LandingPath(r Role) string {
	if p, ok := landing[r]; ok {
		return p
	}
	return "/"
}

// Sections returns a copy of the navigable sections for a role; nil for
// unknown roles.
func Sections(r Role) []Section {
	s, ok := sections[r]
	if !ok {
		return nil
	}
	out := make([]Section, len(s))
	copy(out, s)
	return out
}
