package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"parley/internal/auth"
	"parley/internal/models"
	"parley/internal/store/sqlstore"
)

func signupBody(firstName, lastName, email, password string) *bytes.Buffer {
	body, _ := json.Marshal(map[string]string{
		"firstName": firstName,
		"lastName":  lastName,
		"email":     email,
		"password":  password,
	})
	return bytes.NewBuffer(body)
}

func TestSignup(t *testing.T) {
	// Initialize DB for testing
	store, err := sqlstore.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}

	handler := &AuthHandler{Store: store}

	req, err := http.NewRequest("POST", "/signup", signupBody("Ada", "Lovelace", "ada@example.com", "password123"))
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.Signup).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusCreated {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusCreated)
	}

	var created models.User
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected an assigned user id in the response")
	}

	// The stored password is a hash, never the plaintext.
	stored, err := store.GetUserByEmail("ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Password == "password123" {
		t.Error("Password stored in plaintext")
	}

	// Test duplicate email
	req, _ = http.NewRequest("POST", "/signup", signupBody("Ada", "Lovelace", "ada@example.com", "password123"))
	rr = httptest.NewRecorder()
	http.HandlerFunc(handler.Signup).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusConflict {
		t.Errorf("handler returned wrong status code for duplicate email: got %v want %v",
			status, http.StatusConflict)
	}

	// Test short password
	req, _ = http.NewRequest("POST", "/signup", signupBody("Bob", "Martin", "bob@example.com", "123"))
	rr = httptest.NewRecorder()
	http.HandlerFunc(handler.Signup).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code for short password: got %v want %v",
			status, http.StatusBadRequest)
	}
}

func TestLogin(t *testing.T) {
	store, _ := sqlstore.New(":memory:")
	handler := &AuthHandler{Store: store}

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/signup", signupBody("Ada", "Lovelace", "ada@example.com", "password123"))
	http.HandlerFunc(handler.Signup).ServeHTTP(rr, req)

	creds := Credentials{
		Email:    "ada@example.com",
		Password: "password123",
	}
	body, _ := json.Marshal(creds)

	req, err := http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	if err != nil {
		t.Fatal(err)
	}

	rr = httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	// Check the signed cookie round-trips to the user's id.
	user, _ := store.GetUserByEmail("ada@example.com")
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Expected cookies to be set")
	}
	if cookies[0].Name != "user_id" {
		t.Errorf("Expected user_id cookie, got %q", cookies[0].Name)
	}
	if id, err := auth.Verify(cookies[0].Value); err != nil || id != user.ID {
		t.Errorf("Cookie did not verify to the user id: %v, %q", err, id)
	}

	// Wrong password
	body, _ = json.Marshal(Credentials{Email: "ada@example.com", Password: "wrong"})
	req, _ = http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	rr = httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code for bad password: got %v want %v",
			status, http.StatusUnauthorized)
	}
}

func TestLoginBannedUser(t *testing.T) {
	store, _ := sqlstore.New(":memory:")
	handler := &AuthHandler{Store: store}

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/signup", signupBody("Bob", "Martin", "bob@example.com", "password123"))
	http.HandlerFunc(handler.Signup).ServeHTTP(rr, req)

	user, _ := store.GetUserByEmail("bob@example.com")
	store.SetBanned(user.ID, true)

	body, _ := json.Marshal(Credentials{Email: "bob@example.com", Password: "password123"})
	req, _ = http.NewRequest("POST", "/login", bytes.NewBuffer(body))
	rr = httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusForbidden {
		t.Errorf("handler returned wrong status code for banned user: got %v want %v",
			status, http.StatusForbidden)
	}
}
