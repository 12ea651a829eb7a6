package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/darasa-app/darasa/core/user"
	emailsvc "github.com/darasa-app/darasa/services/email"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	usr := createUser(t, app.usrSvc, "Hero", "heroic", "hero@test.cd")

	tests := []httpTest{
		{
			name: "login (username)", body: marchallObj(t, LoginRequest{Username: usr.Username, Password: "LordOfTheRings"}),
			wantCode: http.StatusOK,
		},
		{
			name: "login (email)", body: marchallObj(t, LoginRequest{Username: usr.Email, Password: "LordOfTheRings"}),
			wantCode: http.StatusOK,
		},
		{
			name: "wrong password", body: marchallObj(t, LoginRequest{Username: usr.Username, Password: "oops"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown user", body: marchallObj(t, LoginRequest{Username: "ghost", Password: "LordOfTheRings"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "missing fields", body: marchallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantCode, rec.Code)
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse: %v", err)
				}
				assert.NotEmpty(t, resp.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := setup(t)
	usr := createUser(t, app.usrSvc, "Hero", "heroic", "hero@test.cd")

	t.Run("refresh ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling LoginResponse: %v", err)
		}
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)
	usr := createUser(t, app.usrSvc, "Hero", "heroic", "hero@test.cd")

	emailsvc.SentMessages = emailsvc.SentMessages[:0]

	success := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
	tests := []httpTest{
		{
			name: "known email sends a reset email", body: marchallObj(t, PasswordResetRequest{Email: usr.Email}),
			wantCode: http.StatusOK, wantData: success, extra: 1,
		},
		{
			name: "unknown email is not revealed", body: marchallObj(t, PasswordResetRequest{Email: "ghost@test.cd"}),
			wantCode: http.StatusOK, wantData: success, extra: 1,
		},
		{
			name: "invalid email", body: marchallObj(t, PasswordResetRequest{Email: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
			extra: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			assert.Len(t, emailsvc.SentMessages, tt.extra.(int))
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)
	student := createUser(t, app.usrSvc, "Hero", "heroic", "hero@test.cd", user.RoleStudent)
	admin := createUser(t, app.usrSvc, "Admin", "adminion", "admin@test.cd", user.RoleAdmin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/v1/users", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, student, admin),
		},
		{
			name: "search", path: "/v1/users?search=hero", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, student),
		},
		{
			name: "role filter", path: "/v1/users?role=admin:", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, admin),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_retrieve(t *testing.T) {
	app := setup(t)
	student := createUser(t, app.usrSvc, "Hero", "heroic", "hero@test.cd", user.RoleStudent)
	other := createUser(t, app.usrSvc, "Other", "otherguy", "other@test.cd", user.RoleStudent)
	admin := createUser(t, app.usrSvc, "Admin", "adminion", "admin@test.cd", user.RoleAdmin)

	tests := []httpTest{
		{
			name: "own profile", path: "/v1/users/" + student.ID, token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallObj(t, student),
		},
		{
			name: "someone else's profile is hidden", path: "/v1/users/" + other.ID, token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "admin sees anyone", path: "/v1/users/" + other.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
