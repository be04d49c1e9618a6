package handler

import (
	"errors"

	"photobook/internal/ability"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the permission enum validators to gin's binding
// engine: book_role (collaborator roles only), page_access and
// interaction_level.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	if err := v.RegisterValidation("book_role", func(fl validator.FieldLevel) bool {
		role := ability.BookRole(fl.Field().String())
		return role.Valid() && role != ability.RoleOwner
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("page_access", func(fl validator.FieldLevel) bool {
		return ability.PageAccessLevel(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("interaction_level", func(fl validator.FieldLevel) bool {
		return ability.InteractionLevel(fl.Field().String()).Valid()
	})
}
