package util

import (
	"testing"
	"time"

	"certprep_backend/internal/model"
)

func testUser() *model.User {
	u := &model.User{
		Name:  "Test Student",
		Email: "student@example.test",
		Role:  model.Student,
	}
	u.ID = 42
	return u
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(testUser(), "test-secret-test-secret-32-bytes", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseJWT(token, "test-secret-test-secret-32-bytes")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != model.Student {
		t.Fatalf("Role = %q, want student", claims.Role)
	}
	if claims.Email != "student@example.test" {
		t.Fatalf("Email = %q", claims.Email)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(testUser(), "test-secret-test-secret-32-bytes", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseJWT(token, "a-different-secret-entirely-here"); err == nil {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	token, err := GenerateJWT(testUser(), "test-secret-test-secret-32-bytes", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseJWT(token, "test-secret-test-secret-32-bytes"); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestJWTRejectsTampered(t *testing.T) {
	token, err := GenerateJWT(testUser(), "test-secret-test-secret-32-bytes", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	tampered := token[:len(token)-2] + "xx"
	if _, err := ParseJWT(tampered, "test-secret-test-secret-32-bytes"); err == nil {
		t.Fatal("tampered token verified")
	}
}
