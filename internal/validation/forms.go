// Package validation provides form validation and text sanitizing.
package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// SignupForm is the body of POST /signup.
type SignupForm struct {
	Username string `form:"username" validate:"required,max=30"`
	Email    string `form:"email" validate:"required,email,max=50"`
	Password string `form:"password" validate:"required,min=6,max=50"`
	ImageURL string `form:"image_url" validate:"omitempty,image_url,max=255"`
}

// LoginForm is the body of POST /login.
type LoginForm struct {
	Username string `form:"username" validate:"required,max=30"`
	Password string `form:"password" validate:"required,min=6,max=50"`
}

// MessageForm is the body of POST /messages/new.
type MessageForm struct {
	Text string `form:"text" validate:"required,max=140"`
}

// ProfileForm is the body of POST /users/profile. Password confirms the edit.
type ProfileForm struct {
	Username       string `form:"username" validate:"omitempty,max=30"`
	Email          string `form:"email" validate:"omitempty,email,max=50"`
	ImageURL       string `form:"image_url" validate:"omitempty,image_url,max=255"`
	HeaderImageURL string `form:"header_image_url" validate:"omitempty,image_url,max=255"`
	Location       string `form:"location" validate:"omitempty,max=30"`
	Bio            string `form:"bio" validate:"omitempty,max=1000"`
	Password       string `form:"password" validate:"required"`
}

// FieldErrors maps form field names to a human readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("form"); name != "" && name != "-" {
				return name
			}
			return f.Name
		})
		_ = validate.RegisterValidation("image_url", validImageURL)
	})
	return validate
}

// validImageURL accepts site-relative paths and absolute http(s) URLs.
func validImageURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// TrimFields trims surrounding whitespace from every string field of the form
// except passwords.
func TrimFields(form interface{}) {
	v := reflect.ValueOf(form)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.String || !f.CanSet() || v.Type().Field(i).Name == "Password" {
			continue
		}
		f.SetString(strings.TrimSpace(f.String()))
	}
}

// Validate checks form against its validate tags. It returns nil or FieldErrors.
func Validate(form interface{}) error {
	err := instance().Struct(form)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = message(fe)
		}
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "email":
		return "Invalid email address."
	case "image_url":
		return "Invalid URL."
	default:
		return "Invalid value."
	}
}
