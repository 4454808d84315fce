package dto

import "testing"

func TestRegisterRequestValidation(t *testing.T) {
	t.Parallel()

	valid := RegisterRequest{
		Email:    "user@example.com",
		Username: "validuser",
		Password: "a-long-password-1",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request must pass, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"missing email", func(r *RegisterRequest) { r.Email = "" }},
		{"invalid email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"missing username", func(r *RegisterRequest) { r.Username = "" }},
		{"short username", func(r *RegisterRequest) { r.Username = "ab" }},
		{"non-alphanumeric username", func(r *RegisterRequest) { r.Username = "user name!" }},
		{"short password", func(r *RegisterRequest) { r.Password = "short1" }},
		{"password without digit", func(r *RegisterRequest) { r.Password = "onlylettersinhere" }},
		{"password without letter", func(r *RegisterRequest) { r.Password = "1234567890123" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := valid
			tc.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Fatal("expected validation failure")
			}
		})
	}
}

func TestLoginRequestValidation(t *testing.T) {
	t.Parallel()

	valid := LoginRequest{Email: "user@example.com", Password: "a-long-password-1"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request must pass, got %v", err)
	}

	missing := LoginRequest{Email: "user@example.com"}
	if err := missing.Validate(); err == nil {
		t.Fatal("login without a password must fail validation")
	}
}

func TestParaphraseRequestValidation(t *testing.T) {
	t.Parallel()

	valid := ParaphraseRequest{Text: "Rewrite me.", Mode: "formal"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request must pass, got %v", err)
	}

	noMode := ParaphraseRequest{Text: "Rewrite me."}
	if err := noMode.Validate(); err != nil {
		t.Fatalf("mode is optional, got %v", err)
	}

	badMode := ParaphraseRequest{Text: "Rewrite me.", Mode: "sarcastic"}
	if err := badMode.Validate(); err == nil {
		t.Fatal("unknown mode must fail validation")
	}

	empty := ParaphraseRequest{Mode: "standard"}
	if err := empty.Validate(); err == nil {
		t.Fatal("empty text must fail validation")
	}
}

func TestCheckoutRequestValidation(t *testing.T) {
	t.Parallel()

	for _, plan := range []string{"basic", "pro"} {
		req := CheckoutRequest{Plan: plan}
		if err := req.Validate(); err != nil {
			t.Fatalf("plan %q must pass, got %v", plan, err)
		}
	}

	for _, plan := range []string{"", "free", "enterprise"} {
		req := CheckoutRequest{Plan: plan}
		if err := req.Validate(); err == nil {
			t.Fatalf("plan %q must fail validation", plan)
		}
	}
}

func TestValidationErrorFormatting(t *testing.T) {
	t.Parallel()

	req := RegisterRequest{Email: "bad", Username: "x", Password: "short"}
	err := req.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	resp := CreateValidationErrorResponse(err)
	if resp.Code != 400 {
		t.Fatalf("expected code 400, got %d", resp.Code)
	}
	if len(resp.Errors) == 0 {
		t.Fatal("expected per-field error entries")
	}
	for _, e := range resp.Errors {
		if e.Field == "" || e.Message == "" {
			t.Fatalf("entry must carry field and message: %+v", e)
		}
	}
}
