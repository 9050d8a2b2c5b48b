package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/notefm/internal/services"
)

type fakeExchanger struct {
	token *services.Token
	err   error
	codes []string
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code string) (*services.Token, error) {
	f.codes = append(f.codes, code)
	return f.token, f.err
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Valid Callback Delivers Token", func(t *testing.T) {
		exchanger := &fakeExchanger{token: &services.Token{AccessToken: "access"}}
		handler := NewOAuthHandler(exchanger, "expected_state")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/callback?code=auth_code&state=expected_state", nil)
		handler.ServeHTTP(rec, req)

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token.AccessToken != "access" {
			t.Errorf("unexpected token: %+v", result.Token)
		}
		if len(exchanger.codes) != 1 || exchanger.codes[0] != "auth_code" {
			t.Errorf("unexpected exchange calls: %v", exchanger.codes)
		}
		if rec.Code != 200 {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("State Mismatch", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{}, "expected_state")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/callback?code=auth_code&state=forged", nil)
		handler.ServeHTTP(rec, req)

		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected an error for a forged state")
		}
		if rec.Code != 400 {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Denied Authorization", func(t *testing.T) {
		handler := NewOAuthHandler(&fakeExchanger{}, "s")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/callback?error=access_denied&error_description=user+denied&state=s", nil)
		handler.ServeHTTP(rec, req)

		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected an error when authorization was denied")
		}
	})

	t.Run("Second Callback Is Rejected", func(t *testing.T) {
		exchanger := &fakeExchanger{err: errors.New("should not matter")}
		handler := NewOAuthHandler(exchanger, "s")

		first := httptest.NewRequest("GET", "/callback?code=c&state=s", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		rec := httptest.NewRecorder()
		second := httptest.NewRequest("GET", "/callback?code=c2&state=s", nil)
		handler.ServeHTTP(rec, second)

		if rec.Code != 400 {
			t.Errorf("expected replay to be rejected, got %d", rec.Code)
		}
		if len(exchanger.codes) != 1 {
			t.Errorf("expected one exchange, got %d", len(exchanger.codes))
		}
	})
}
