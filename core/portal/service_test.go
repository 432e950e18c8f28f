package portal_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/user"
	"github.com/trezcool/chuo/core/view"
	"github.com/trezcool/chuo/storage/database/dummy"
	"github.com/trezcool/chuo/tests"
)

func newService(t *testing.T, maxPageSize int) *portal.Service {
	db := testutil.PrepareDB(t)
	return portal.NewService(dummydb.NewSource(db), &testutil.Logger{}, maxPageSize)
}

func TestService_List(t *testing.T) {
	svc := newService(t, 3)
	ctx := context.Background()

	tests := []struct {
		name       string
		session    user.Session
		collection portal.Collection
		state      func(c portal.Collection) view.ViewState
		wantIDs    []float64
		wantPage   int
		wantPages  int
		wantTotal  int
		wantErr    error
	}{
		{
			name: "admin, first page", session: testutil.AdminSession(), collection: portal.Complaints,
			state:   func(c portal.Collection) view.ViewState { return c.DefaultState(10) },
			wantIDs: []float64{4, 2, 3}, wantPage: 1, wantPages: 2, wantTotal: 5,
		},
		{
			name: "admin, page beyond last", session: testutil.AdminSession(), collection: portal.Complaints,
			state: func(c portal.Collection) view.ViewState {
				s := c.DefaultState(3)
				s.Page = 99
				return s
			},
			wantIDs: []float64{1, 5}, wantPage: 2, wantPages: 2, wantTotal: 5,
		},
		{
			name: "student sees own complaints", session: testutil.StudentSession(102), collection: portal.Complaints,
			state:   func(c portal.Collection) view.ViewState { return c.DefaultState(10) },
			wantIDs: []float64{2, 5}, wantPage: 1, wantPages: 1, wantTotal: 2,
		},
		{
			name: "filters cannot widen the scope", session: testutil.StudentSession(102), collection: portal.Complaints,
			state: func(c portal.Collection) view.ViewState {
				return c.DefaultState(10).WithFilter("status", "Pending")
			},
			wantIDs: []float64{5}, wantPage: 1, wantPages: 1, wantTotal: 1,
		},
		{
			name: "no match", session: testutil.AdminSession(), collection: portal.Students,
			state: func(c portal.Collection) view.ViewState {
				return c.DefaultState(10).WithFilter(portal.SearchClause, "nobody")
			},
			wantIDs: []float64{}, wantPage: 1, wantPages: 1, wantTotal: 0,
		},
		{
			name: "teacher cannot list complaints", session: testutil.TeacherSession(), collection: portal.Complaints,
			state: func(c portal.Collection) view.ViewState { return c.DefaultState(10) }, wantErr: portal.ErrForbidden,
		},
		{
			name: "student cannot list students", session: testutil.StudentSession(101), collection: portal.Students,
			state: func(c portal.Collection) view.ViewState { return c.DefaultState(10) }, wantErr: portal.ErrForbidden,
		},
		{
			name: "anonymous student", session: user.Session{Roles: []string{user.RoleStudent}}, collection: portal.DropRequests,
			state: func(c portal.Collection) view.ViewState { return c.DefaultState(10) }, wantErr: portal.ErrForbidden,
		},
		{
			name: "teacher without user id is not scoped", session: user.Session{Roles: []string{user.RoleTeacher}},
			collection: portal.DropRequests,
			state:      func(c portal.Collection) view.ViewState { return c.DefaultState(10) },
			wantIDs:    []float64{3, 1, 2}, wantPage: 1, wantPages: 1, wantTotal: 3,
		},
		{
			name: "teacher who is also a student sees every drop request",
			session: user.Session{UserID: "101", Roles: []string{user.RoleStudent, user.RoleTeacher}},
			collection: portal.DropRequests,
			state:      func(c portal.Collection) view.ViewState { return c.DefaultState(10) },
			wantIDs:    []float64{3, 1, 2}, wantPage: 1, wantPages: 1, wantTotal: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, err := svc.List(ctx, tt.session, tt.collection, tt.state(tt.collection))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, testutil.IDs(listing.Items))
			assert.Equal(t, tt.wantPage, listing.CurrentPage)
			assert.Equal(t, tt.wantPages, listing.TotalPages)
			assert.Equal(t, tt.wantTotal, listing.TotalItems)
			assert.Equal(t, tt.wantPage, listing.State.Page)
			assert.Equal(t, 3, listing.PageSize, "page size is capped")
			assert.Equal(t, tt.collection.Name, listing.Collection)
		})
	}
}

func TestService_List_largeStudentIDs(t *testing.T) {
	var records []view.Record
	err := portal.DecodeJSON([]byte(`[
		{"id": 1, "title": "mine", "student_id": 9007199254740993, "date": "2024-01-01"},
		{"id": 2, "title": "someone else's", "student_id": 9007199254740992, "date": "2024-01-02"}
	]`), &records)
	require.NoError(t, err)

	db, err := dummydb.Open()
	require.NoError(t, err)
	db.Put(portal.Complaints.Name, records)
	svc := portal.NewService(dummydb.NewSource(db), &testutil.Logger{}, 0)

	sess := user.Session{UserID: "9007199254740993", Roles: []string{user.RoleStudent}}
	listing, err := svc.List(context.Background(), sess, portal.Complaints, portal.Complaints.DefaultState(10))
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "mine", listing.Items[0]["title"])
	assert.Equal(t, json.Number("9007199254740993"), listing.Items[0]["student_id"])
}

func TestService_List_sourceError(t *testing.T) {
	svc := portal.NewService(testutil.FailingSource{Err: portal.ErrSourceUnavailable}, &testutil.Logger{}, 0)
	_, err := svc.List(context.Background(), testutil.AdminSession(), portal.Students, portal.Students.DefaultState(10))
	assert.Equal(t, portal.ErrSourceUnavailable, errors.Cause(err))
}

func TestService_Digest(t *testing.T) {
	svc := newService(t, 100)
	to := mail.Address{Name: "Dean", Address: "dean@uni.ac.tz"}
	state := portal.Complaints.DefaultState(10).WithFilter("status", "Pending")

	msg, err := svc.Digest(context.Background(), testutil.AdminSession(), portal.Complaints, state, 2, to)
	require.NoError(t, err)

	assert.Equal(t, []mail.Address{to}, msg.To)
	assert.Equal(t, "Complaints: 3 matching record(s)", msg.Subject)
	assert.Equal(t, portal.DigestTemplate, msg.TemplateName)

	data := msg.TemplateData.(portal.DigestData)
	assert.Equal(t, 3, data.Total)
	assert.Equal(t, []string{"Title", "Status", "Category", "Importance", "Student", "Date"}, data.Columns)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"Broken chair", "Pending", "Facilities", "Critical", "Amani Juma", "2024-01-20T08:30:00Z"}, data.Rows[0])

	require.True(t, msg.HasAttachments())
	at := msg.Attachments[0]
	assert.Equal(t, "complaints.csv", at.Filename)
	assert.Equal(t, "text/csv", at.ContentType)
	csvContent, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvContent), "Title,Status,Category,Importance,Student,Date\nBroken chair,"))

	require.NoError(t, msg.Render("Chuo"))
	assert.Contains(t, msg.TextContent, "Complaints")
	assert.Contains(t, msg.TextContent, "3 matching record(s), showing the first 2.")
	assert.Contains(t, msg.TextContent, "Broken chair | Pending")
	assert.Contains(t, msg.HTMLContent, "<td>Broken chair</td>")
	assert.Contains(t, msg.HTMLContent, "Chuo")
}

func TestCachedSource(t *testing.T) {
	db := testutil.PrepareDB(t)
	store := dummydb.NewSnapshotRepository(db)
	ctx := context.Background()
	upstreamErr := errors.New("backend down")

	// nothing saved yet
	log := &testutil.Logger{}
	_, err := portal.NewCachedSource(testutil.FailingSource{Err: upstreamErr}, store, log).Fetch(ctx, portal.Students)
	assert.Equal(t, portal.ErrSourceUnavailable, errors.Cause(err))
	assert.Empty(t, log.Levels())

	// a successful fetch is saved
	records, err := portal.NewCachedSource(dummydb.NewSource(db), store, log).Fetch(ctx, portal.Students)
	require.NoError(t, err)
	assert.Len(t, records, 4)

	snap, err := store.LatestSnapshot(ctx, portal.Students.Name)
	require.NoError(t, err)
	assert.Len(t, snap.Records, 4)
	assert.WithinDuration(t, time.Now().UTC(), snap.FetchedAt, time.Minute)

	// and served while the upstream fails
	records, err = portal.NewCachedSource(testutil.FailingSource{Err: upstreamErr}, store, log).Fetch(ctx, portal.Students)
	require.NoError(t, err)
	assert.Equal(t, testutil.IDs(snap.Records), testutil.IDs(records))
	assert.Equal(t, []string{"warn"}, log.Levels())
}
