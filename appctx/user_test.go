package appctx

import (
	"context"
	"testing"
)

func TestUserRoundTripThroughContext(t *testing.T) {
	in := CurrentUser{ID: 7, Username: "sales1", Name: "Sales One", Role: RoleSales}
	ctx := WithUser(context.Background(), in)

	out, ok := UserFrom(ctx)
	if !ok {
		t.Fatalf("expected user in context")
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestUserFromEmptyContext(t *testing.T) {
	if _, ok := UserFrom(context.Background()); ok {
		t.Fatalf("expected no user in empty context")
	}
}

func TestIsManager(t *testing.T) {
	cases := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleOwner, true},
		{RoleSales, false},
		{Role(""), false},
	}
	for _, tc := range cases {
		if got := (CurrentUser{ID: 1, Role: tc.role}).IsManager(); got != tc.want {
			t.Fatalf("IsManager(%q) expected %v, got %v", tc.role, tc.want, got)
		}
	}
}

func TestZeroUserIsAnonymous(t *testing.T) {
	ctx := WithUser(context.Background(), CurrentUser{Name: "nobody"})
	if _, ok := UserFrom(ctx); ok {
		t.Fatalf("a user without id must not count as signed in")
	}
	ctx = Set(context.Background(), ContextKeyCorrelationId, "corr-9")
	if v, ok := GetString(ctx, ContextKeyCorrelationId); !ok || v != "corr-9" {
		t.Fatalf("expected correlation id, got %q", v)
	}
}
