package forms

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/distribution_backend/appctx"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/utils"
)

// Persister writes a validated draft. Create and update are both a single atomic call.
type Persister interface {
	Save(ctx context.Context, user appctx.CurrentUser, d *Draft) (any, error)
}

type PersisterFunc func(ctx context.Context, user appctx.CurrentUser, d *Draft) (any, error)

func (f PersisterFunc) Save(ctx context.Context, user appctx.CurrentUser, d *Draft) (any, error) {
	return f(ctx, user, d)
}

// Result is the {success, data?, error?} envelope returned to the client.
// On failure Draft holds the values as submitted so the form can be shown again.
type Result struct {
	Success     bool        `json:"success"`
	Data        any         `json:"data,omitempty"`
	Error       string      `json:"error,omitempty"`
	FieldErrors FieldErrors `json:"field_errors,omitempty"`
	Draft       *Draft      `json:"draft,omitempty"`
}

const invalidFormMessage = "please correct the highlighted fields"

// publicErrors carry messages that are safe to show as-is.
var publicErrors = []error{
	utils.ErrorRecordNotFound,
	utils.ErrorUnauthorized,
	utils.ErrorForbidden,
	utils.ErrorInvalidTransition,
	utils.ErrorDocumentLocked,
	utils.ErrorDuplicateCode,
}

// PublicMessage returns the message shown for err, falling back to a generic one.
func PublicMessage(err error) string {
	for _, pe := range publicErrors {
		if errors.Is(err, pe) {
			return pe.Error()
		}
	}
	var fe FieldErrors
	if errors.As(err, &fe) {
		return invalidFormMessage
	}
	return utils.GenericErrorMessage
}

// Submit validates d and, only when valid, hands it to p. Nothing is retried.
func Submit(ctx context.Context, user appctx.CurrentUser, d *Draft, p Persister) (res Result) {
	if user.IsZero() {
		return Result{Error: utils.ErrorUnauthorized.Error(), Draft: d}
	}
	if d == nil {
		return Result{Error: invalidFormMessage, FieldErrors: Validate(nil)}
	}

	d.Recompute()
	if errs := Validate(d); len(errs) > 0 {
		return Result{Error: invalidFormMessage, FieldErrors: errs, Draft: d}
	}

	submitted := d.Clone()
	defer func() {
		if r := recover(); r != nil {
			config.LogError(config.GetLogger(), "Forms", "Submit", "persist "+string(d.Kind), d.Code, fmt.Errorf("panic: %v", r))
			res = Result{Error: utils.GenericErrorMessage, Draft: submitted}
		}
	}()

	data, err := p.Save(ctx, user, d)
	if err != nil {
		var fe FieldErrors
		if errors.As(err, &fe) {
			return Result{Error: invalidFormMessage, FieldErrors: fe, Draft: submitted}
		}
		msg := PublicMessage(err)
		if msg == utils.GenericErrorMessage {
			config.LogError(config.GetLogger(), "Forms", "Submit", "persist "+string(d.Kind), d.Code, err)
		}
		return Result{Error: msg, Draft: submitted}
	}
	return Result{Success: true, Data: data}
}
