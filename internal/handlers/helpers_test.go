package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stsapko/contacts-api/internal/handlers"
	"github.com/stsapko/contacts-api/internal/hash"
	authmw "github.com/stsapko/contacts-api/internal/middleware/auth"
	"github.com/stsapko/contacts-api/internal/models"
	"github.com/stsapko/contacts-api/internal/notify"
	"github.com/stsapko/contacts-api/internal/repo"
	"github.com/stsapko/contacts-api/internal/token"
	httpserver "github.com/stsapko/contacts-api/internal/transport/http"
)

type fakeUploader struct {
	url       string
	err       error
	lastEmail string
	lastSize  int64
}

func (f *fakeUploader) Upload(ctx context.Context, email string, r io.Reader, size int64, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastEmail = email
	f.lastSize = size
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return f.url, nil
}

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Tokens   *token.Service
	Users    *repo.UserRepo
	Contacts *repo.ContactRepo
	Uploader *fakeUploader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Contact{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	tokens := token.NewService([]byte("test-secret"), 15*time.Minute, 7*24*time.Hour, time.Hour)
	users := repo.NewUserRepo(db)
	contacts := repo.NewContactRepo(db)
	uploader := &fakeUploader{url: "http://minio:9000/avatars/test"}

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{Users: users, Tokens: tokens, Producer: &notify.Producer{}},
		UserHandler:    &handlers.UserHandler{Users: users, Avatars: uploader},
		ContactHandler: &handlers.ContactHandler{Contacts: contacts},
		AuthMW:         &authmw.Middleware{Tokens: tokens, Users: users},
	})

	return &testEnv{
		T:        t,
		E:        e,
		DB:       db,
		Tokens:   tokens,
		Users:    users,
		Contacts: contacts,
		Uploader: uploader,
	}
}

func (env *testEnv) do(method, target, bearer string, body any) *httptest.ResponseRecorder {
	env.T.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(env.T, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createUser(email, password string) *models.User {
	env.T.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) login(email, password string) handlers.TokenPairResponse {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(env.T, http.StatusOK, rec.Code)

	var pair handlers.TokenPairResponse
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func (env *testEnv) createContact(ownerID uint, first, last, email string, bday time.Time) *models.Contact {
	env.T.Helper()

	contact := models.Contact{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     "+380501234567",
		BDay:      bday,
		UserID:    ownerID,
	}
	require.NoError(env.T, env.DB.Create(&contact).Error)
	return &contact
}
