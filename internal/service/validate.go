// Package service contains the business logic: sessions, profiles, links and
// the public read path. Callers pass the authenticated user id explicitly;
// nothing here reads identity from a context.
package service

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/linkbio/internal/apperror"
)

// Input limits.
const (
	MinUsernameLength       = 3
	MaxNewUsernameLength    = 10
	MaxRenameUsernameLength = 20
	MinTitleLength          = 3
	MaxTitleLength          = 20
	MinURLLength            = 10
	MaxURLLength            = 300
	MinDescriptionLength    = 10
	MaxDescriptionLength    = 300
)

// validator collects field errors so a request reports every problem at once.
type validator struct {
	errs []apperror.FieldError
}

func (v *validator) add(field, format string, args ...any) {
	v.errs = append(v.errs, apperror.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// required reports false (and records an error) when value is blank.
func (v *validator) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, "%s is required", field)
		return false
	}
	return true
}

// length checks the rune count of value.
func (v *validator) length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min:
		v.add(field, "%s must be at least %d characters", field, min)
	case n > max:
		v.add(field, "%s must be at most %d characters", field, max)
	}
}

func (v *validator) httpURL(field, value string) {
	u, err := url.ParseRequestURI(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.add(field, "%s must be an absolute http or https URL", field)
	}
}

// err returns the collected errors as one validation error, or nil.
func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperror.Invalid(v.errs)
}

// LinkInput is the body of create and update requests.
type LinkInput struct {
	LinkID      string  // ignored on create
	Title       string
	URL         string
	Description *string // nil when omitted
}

func (in *LinkInput) normalize() {
	in.LinkID = strings.TrimSpace(in.LinkID)
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
	}
}

// ValidateCreateLink checks a create request.
func ValidateCreateLink(in LinkInput) error {
	var v validator
	validateLinkFields(&v, in)
	return v.err()
}

// ValidateUpdateLink checks an update request, which also needs a link id.
func ValidateUpdateLink(in LinkInput) error {
	var v validator
	v.required("linkId", in.LinkID)
	validateLinkFields(&v, in)
	return v.err()
}

func validateLinkFields(v *validator, in LinkInput) {
	if v.required("title", in.Title) {
		v.length("title", in.Title, MinTitleLength, MaxTitleLength)
	}
	if v.required("url", in.URL) {
		v.length("url", in.URL, MinURLLength, MaxURLLength)
		v.httpURL("url", in.URL)
	}
	if in.Description != nil {
		v.length("description", *in.Description, MinDescriptionLength, MaxDescriptionLength)
	}
}

// ValidateLinkID checks the id carried by status-change and delete requests.
func ValidateLinkID(linkID string) error {
	var v validator
	v.required("linkId", linkID)
	return v.err()
}

// ValidateUsername checks a raw username before normalisation.
func ValidateUsername(raw string, maxLen int) error {
	var v validator
	if v.required("username", raw) {
		v.length("username", strings.TrimSpace(raw), MinUsernameLength, maxLen)
	}
	return v.err()
}
