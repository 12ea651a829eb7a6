package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/discount"
	"github.com/darasa-app/darasa/core/enrollment"
	"github.com/darasa-app/darasa/core/experiment"
	"github.com/darasa-app/darasa/core/teams"
	"github.com/darasa-app/darasa/core/user"
	emailsvc "github.com/darasa-app/darasa/services/email"
	logsvc "github.com/darasa-app/darasa/services/logger"
	tracksvc "github.com/darasa-app/darasa/services/track"
	inmemdb "github.com/darasa-app/darasa/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type (
	httpErr struct {
		Error string `json:"error"`
	}

	httpTest struct {
		name     string
		method   string
		path     string
		body     []byte
		token    string
		wantCode int
		wantData []byte
		extra    interface{}
	}

	// fakeBlocks serves canned block-query results keyed by root usage key.
	fakeBlocks struct {
		results map[course.UsageKey]course.BlockQueryResult
	}

	// seeders expose the inmem repos' fixture helpers without naming their types
	courseSeeder interface {
		AddCourse(crs course.Course)
	}
	completionSeeder interface {
		SetCompletion(userID string, key course.CourseKey, block course.UsageKey, completion float64)
	}
	positionSeeder interface {
		SetPosition(userID string, block course.UsageKey, position int)
	}
	enrollmentSeeder interface {
		AddEnrollment(enr enrollment.Enrollment)
		AddCourseMode(mode enrollment.CourseMode)
		SetEntitled(userID string)
	}
	teamSeeder interface {
		AddTeam(team teams.Team, memberIDs ...string)
	}
	restrictionSeeder interface {
		Restrict(key course.CourseKey)
	}

	testApp struct {
		server Server
		conf   *core.Config
		usrSvc *user.Service

		blocks       *fakeBlocks
		courses      courseSeeder
		completions  completionSeeder
		states       positionSeeder
		enrollments  enrollmentSeeder
		teams        teamSeeder
		restrictions restrictionSeeder
	}
)

func (f *fakeBlocks) GetBlocks(ctx context.Context, userID string, root course.UsageKey, query course.BlockQuery) (course.BlockQueryResult, error) {
	if res, ok := f.results[root]; ok {
		return res, nil
	}
	return course.BlockQueryResult{Root: root, Blocks: course.BlockMap{}}, nil
}

func setup(t *testing.T) *testApp {
	conf, err := core.NewConfig()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf.Debug = false
	conf.TestMode = true
	conf.Features.EnableDiscounts = true

	logger := logsvc.NewConsoleLogger(log.New(ioutil.Discard, "", 0))

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	completionRepo := inmemdb.NewCompletionRepository(db)
	stateRepo := inmemdb.NewStudentStateRepository(db)
	enrollmentRepo := inmemdb.NewEnrollmentRepository(db)
	teamRepo := inmemdb.NewTeamRepository(db)
	restrictionRepo := inmemdb.NewDiscountRestrictionRepository(db)
	enterpriseRepo := inmemdb.NewEnterpriseRepository(db)

	// set up services
	usrSvc := user.NewService(conf, usrRepo, emailsvc.NewConsoleServiceMock(conf))
	blocks := &fakeBlocks{results: make(map[course.UsageKey]course.BlockQueryResult)}
	outlineSvc := course.NewService(blocks, completionRepo, stateRepo)
	checkout := fakeCheckout{}
	experimentSvc := experiment.NewService(conf, enrollmentRepo, checkout, logger)
	discountSvc := discount.NewService(conf, enrollmentRepo, restrictionRepo, enterpriseRepo, checkout, tracksvc.NewConsoleTracker(logger), logger)
	teamsSvc := teams.NewService(teamRepo)

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	// set up server
	server := NewServer(
		&Options{
			Conf:           conf,
			DisableReqLogs: true,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			UserSvc:        usrSvc,
			CourseRepo:     courseRepo,
			OutlineSvc:     outlineSvc,
			DiscountSvc:    discountSvc,
			ExperimentSvc:  experimentSvc,
			EnrollmentRepo: enrollmentRepo,
			TeamsSvc:       teamsSvc,
			SignalShutdown: func() {},
		},
	)

	return &testApp{
		server:       server,
		conf:         conf,
		usrSvc:       usrSvc,
		blocks:       blocks,
		courses:      courseRepo,
		completions:  completionRepo,
		states:       stateRepo,
		enrollments:  enrollmentRepo,
		teams:        teamRepo,
		restrictions: restrictionRepo,
	}
}

type fakeCheckout struct{}

func (fakeCheckout) UpgradeURL(sku string) string { return "https://pay.test/basket/add/?sku=" + sku }

func createUser(t *testing.T, svc *user.Service, name, uname, email string, roles ...string) user.User {
	usr, err := svc.Create(context.Background(), user.NewUser{
		Name:     name,
		Username: uname,
		Email:    email,
		Password: "LordOfTheRings",
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

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

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	if len(b1) == 0 && len(b2) == 0 {
		return true, nil
	}
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
	if j1 == nil || j2 == nil {
		return false, nil
	}
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if ok1 && ok2 {
		return assert.ElementsMatch(t, l1, l2), nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantCode == http.StatusNoContent {
		if rec.Body.Len() > 0 {
			t.Errorf("failed! data = %v; want empty body", rec.Body.String())
		}
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
