package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signedToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, header string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	return c
}

func TestAuth_ValidToken(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS256, "secret", jwt.MapClaims{
		"id":   "u1",
		"role": "ADMIN",
	})

	c := runAuth(t, "Bearer "+token)

	if c.Get(CtxUserID) != "u1" {
		t.Errorf("user id not set, got %v", c.Get(CtxUserID))
	}
	if c.Get(CtxRole) != "ADMIN" {
		t.Errorf("role not set, got %v", c.Get(CtxRole))
	}
}

func TestAuth_MissingHeaderIsAnonymous(t *testing.T) {
	c := runAuth(t, "")

	if c.Get(CtxUserID) != nil || c.Get(CtxRole) != nil {
		t.Errorf("anonymous request must carry no identity")
	}
}

func TestAuth_BadSignatureIsAnonymous(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS256, "wrong-secret", jwt.MapClaims{
		"id":   "u1",
		"role": "ADMIN",
	})

	c := runAuth(t, "Bearer "+token)

	if c.Get(CtxUserID) != nil {
		t.Errorf("forged token must not yield an identity")
	}
}

func TestAuth_WrongSchemeIsAnonymous(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS256, "secret", jwt.MapClaims{
		"id": "u1",
	})

	c := runAuth(t, "Token "+token)

	if c.Get(CtxUserID) != nil {
		t.Errorf("non-bearer scheme must be ignored")
	}
}

func TestAuth_UnexpectedAlgorithmIsAnonymous(t *testing.T) {
	token := signedToken(t, jwt.SigningMethodHS512, "secret", jwt.MapClaims{
		"id": "u1",
	})

	c := runAuth(t, "Bearer "+token)

	if c.Get(CtxUserID) != nil {
		t.Errorf("tokens signed with an unexpected algorithm must be ignored")
	}
}
