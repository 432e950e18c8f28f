package portal

import (
	"github.com/trezcool/chuo/core/user"
	"github.com/trezcool/chuo/core/view"
)

// ImportanceRanks orders the importance labels of complaints and announcements.
var ImportanceRanks = map[string]int{
	"Critical": 4,
	"High":     3,
	"Medium":   2,
	"Low":      1,
}

// Audiences of announcements.
const (
	AudienceEveryone = "everyone"
	AudienceStudents = "students"
	AudienceFaculty  = "faculty"
)

var (
	Complaints = register(Collection{
		Name:     "complaints",
		Title:    "Complaints",
		Endpoint: "complaints",
		Fields: []Field{
			{Name: "title", Label: "Title", Type: view.TypeString, Filter: view.ModeContains, Sortable: true},
			{Name: "status", Label: "Status", Type: view.TypeString, Filter: view.ModeExact},
			{Name: "category", Label: "Category", Type: view.TypeString, Filter: view.ModeExact},
			{Name: "importance", Label: "Importance", Type: view.TypeNumber, Filter: view.ModeExact, Sortable: true, Ranks: ImportanceRanks},
			{Name: "student_name", Label: "Student", Type: view.TypeString},
			{Name: "date", Label: "Date", Type: view.TypeDate, Filter: view.ModeRange, Sortable: true},
		},
		Search:      []string{"title", "description", "student_name"},
		DefaultSort: view.SortSpec{Field: "date", Direction: view.Desc, Type: view.TypeDate},
		Roles:       []string{user.RoleAdmin, user.RoleStudent},
		Scope:       ownRecords,
	})

	Students = register(Collection{
		Name:     "students",
		Title:    "Students",
		Endpoint: "students",
		Fields: []Field{
			{Name: "name", Label: "Name", Type: view.TypeString, Sortable: true},
			{Name: "roll_no", Label: "Roll No.", Type: view.TypeString, Sortable: true},
			{Name: "email", Label: "Email", Type: view.TypeString},
			{Name: "department", Label: "Department", Type: view.TypeString, Filter: view.ModeExact},
			{Name: "section", Label: "Section", Type: view.TypeString, Filter: view.ModeExact},
			{Name: "year", Label: "Year", Type: view.TypeNumber, Filter: view.ModeExact, Sortable: true},
			{Name: "attendance", Label: "Attendance (%)", Type: view.TypeNumber, Filter: view.ModeRange, Sortable: true},
		},
		Search:      []string{"name", "roll_no", "email"},
		DefaultSort: view.SortSpec{Field: "name", Direction: view.Asc, Type: view.TypeString},
		Roles:       []string{user.RoleAdmin, user.RoleTeacher},
	})

	Announcements = register(Collection{
		Name:     "announcements",
		Title:    "Announcements",
		Endpoint: "announcements",
		Fields: []Field{
			{Name: "title", Label: "Title", Type: view.TypeString, Sortable: true},
			{Name: "audience", Label: "Audience", Type: view.TypeString, Filter: view.ModeExact},
			{Name: "author", Label: "Author", Type: view.TypeString, Filter: view.ModeExact},
			{Name: "importance", Label: "Importance", Type: view.TypeNumber, Filter: view.ModeExact, Sortable: true, Ranks: ImportanceRanks},
			{Name: "date", Label: "Date", Type: view.TypeDate, Filter: view.ModeRange, Sortable: true},
		},
		Search:      []string{"title", "content"},
		DefaultSort: view.SortSpec{Field: "date", Direction: view.Desc, Type: view.TypeDate},
		Roles:       []string{user.RoleAdmin, user.RoleTeacher, user.RoleStudent},
		Scope:       audienceOf,
	})

	DropRequests = register(Collection{
		Name:     "drop_requests",
		Title:    "Drop-course requests",
		Endpoint: "drop-requests",
		Fields: []Field{
			{Name: "student_name", Label: "Student", Type: view.TypeString, Sortable: true},
			{Name: "course_code", Label: "Course", Type: view.TypeString, Filter: view.ModeExact, Sortable: true},
			{Name: "course_name", Label: "Course name", Type: view.TypeString},
			{Name: "status", Label: "Status", Type: view.TypeString, Filter: view.ModeExact},
			{Name: "requested_at", Label: "Requested", Type: view.TypeDate, Filter: view.ModeRange, Sortable: true},
		},
		Search:      []string{"student_name", "course_code", "course_name"},
		DefaultSort: view.SortSpec{Field: "requested_at", Direction: view.Desc, Type: view.TypeDate},
		Roles:       []string{user.RoleAdmin, user.RoleTeacher, user.RoleStudent},
		Scope:       ownRecords,
	})
)

// ownRecords restricts students to the records they filed. Teachers and admins see every record.
func ownRecords(session user.Session) view.FilterSpec {
	if session.Priority() >= user.RolePriority(user.RoleTeacher) {
		return nil
	}
	return view.FilterSpec{{Name: "scope:student", Field: "student_id", Mode: view.ModeExact, Value: session.UserID}}
}

// audienceOf restricts announcements to the ones addressed to the session.
func audienceOf(session user.Session) view.FilterSpec {
	audiences := []string{AudienceEveryone}
	// the most privileged role decides
	switch prio := session.Priority(); {
	case prio >= user.RolePriority(user.RoleAdmin):
		return nil
	case prio >= user.RolePriority(user.RoleTeacher):
		audiences = append(audiences, AudienceFaculty)
	case prio >= user.RolePriority(user.RoleStudent):
		audiences = append(audiences, AudienceStudents)
	}
	return view.FilterSpec{{Name: "scope:audience", Field: "audience", Mode: view.ModeExact, Value: audiences}}
}
