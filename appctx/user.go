package appctx

import "context"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleOwner Role = "OWNER"
	RoleSales Role = "SALES"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleSales:
		return true
	}
	return false
}

// CurrentUser is the session user resolved by the session middleware.
// It is passed explicitly into validation, submission and workflow calls.
type CurrentUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

func (u CurrentUser) IsZero() bool {
	return u.ID == 0
}

// IsManager reports whether the user may operate the order status control.
func (u CurrentUser) IsManager() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}

func WithUser(ctx context.Context, u CurrentUser) context.Context {
	return Set(ctx, contextKeyUser, u)
}

// UserFrom returns the session user, or false for anonymous requests.
func UserFrom(ctx context.Context) (CurrentUser, bool) {
	u, ok := Value[CurrentUser](ctx, contextKeyUser)
	if !ok || u.IsZero() {
		return CurrentUser{}, false
	}
	return u, true
}
