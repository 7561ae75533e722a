package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/nileshsabnis10/attendance/core"
	"github.com/nileshsabnis10/attendance/core/attendance"
	"github.com/nileshsabnis10/attendance/core/audit"
	"github.com/nileshsabnis10/attendance/core/course"
	"github.com/nileshsabnis10/attendance/core/faculty"
	"github.com/nileshsabnis10/attendance/core/report"
	"github.com/nileshsabnis10/attendance/core/roster"
	emailsvc "github.com/nileshsabnis10/attendance/services/email"
	inmemdb "github.com/nileshsabnis10/attendance/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:           true,
		Env:                "TEST",
		AppName:            "SGU Attendance",
		SecretKey:          "secret",
		DefaulterThreshold: 75,
		Admin:              core.AdminConfig{Username: "admin", Password: "adminpass"},
		DangerZone:         core.DangerZoneConfig{Password: "dangerpass"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			ConfirmTokenTimeout:       time.Minute,
		},
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type testEnv struct {
	server *server
	conf   *core.Config
	db     *inmemdb.DB
	deps   ServerDeps
}

func newTestEnv() *testEnv {
	conf := newTestConfig()
	db := inmemdb.NewDB()
	cache := core.NopCache{}
	auditor := audit.NewLogger(inmemdb.NewAuditRepository(db), nopLogger{})
	pending := core.NewPendingActions(conf.Server.ConfirmTokenTimeout)

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	deps := ServerDeps{
		Conf:          conf,
		Logger:        nopLogger{},
		RosterSvc:     roster.NewService(inmemdb.NewRosterRepository(db), cache),
		FacultySvc:    faculty.NewService(inmemdb.NewFacultyRepository(db)),
		CourseSvc:     course.NewService(inmemdb.NewCourseRepository(db), cache),
		AttendanceSvc: attendance.NewService(inmemdb.NewAttendanceRepository(db), cache, pending, auditor),
		ReportSvc:     report.NewService(inmemdb.NewReportRepository(db), conf.DefaulterThreshold),
		Auditor:       auditor,
		Pending:       pending,
		EmailSvc:      emailsvc.NewConsoleServiceMock(conf),
		Validate:      validate,
		Translator:    translator,
	}
	return &testEnv{server: NewServer(deps), conf: conf, db: db, deps: deps}
}

// seed helpers

func (env *testEnv) seedFaculty(t *testing.T, facultyID, name, pin string) faculty.Faculty {
	member := faculty.Faculty{FacultyID: facultyID, Name: name, PhoneNumber: "98765" + pin}
	if err := member.SetPIN(pin); err != nil {
		t.Fatalf("seedFaculty() failed: %v", err)
	}
	if err := env.deps.FacultySvc.Import(context.Background(), []faculty.Faculty{member}); err != nil {
		t.Fatalf("seedFaculty() failed: %v", err)
	}
	return member
}

func (env *testEnv) seedStudents(t *testing.T, scope core.Scope, students ...roster.Student) {
	for i := range students {
		students[i].DepartmentID = scope.DepartmentID
		students[i].ClassName = scope.ClassName
		students[i].Section = scope.Section
		students[i].IsActive = true
	}
	if err := env.deps.RosterSvc.ImportStudents(context.Background(), students); err != nil {
		t.Fatalf("seedStudents() failed: %v", err)
	}
}

func (env *testEnv) seedCourse(t *testing.T, key course.Key, name, facultyID string) course.Course {
	crs := course.Course{Key: key, CourseName: name, AssignedFacultyID: facultyID}
	if err := env.deps.CourseSvc.Import(context.Background(), []course.Course{crs}); err != nil {
		t.Fatalf("seedCourse() failed: %v", err)
	}
	return crs
}

func (env *testEnv) facultyToken(t *testing.T, member faculty.Faculty) string {
	token, err := GenerateToken(env.conf, facultyClaims(env.conf, member))
	if err != nil {
		t.Fatalf("facultyToken() failed: %v", err)
	}
	return token
}

func (env *testEnv) adminToken(t *testing.T) string {
	token, err := GenerateToken(env.conf, adminClaims(env.conf, env.conf.Admin.Username))
	if err != nil {
		t.Fatalf("adminToken() failed: %v", err)
	}
	return token
}

// request helpers

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env *testEnv) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	env.server.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode() failed: %v; body: %s", err, rec.Body.String())
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
