// Package validation turns an untyped sleep submission into a typed request or
// a complete list of field violations. It never touches the store.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/geocoder89/sleephub/internal/domain/sleep"
	"github.com/geocoder89/sleephub/internal/domain/user"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

type Violation struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

type Violations []Violation

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, item := range v {
		parts = append(parts, strings.Join(item.Path, ".")+": "+item.Message)
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// submission mirrors the wire shape after JSON types have been checked.
type submission struct {
	SleepDuration float64        `json:"sleepDuration" validate:"min=1,integral,max=2147483647"`
	SleepDate     string         `json:"sleepDate" validate:"sleepdate"`
	User          submissionUser `json:"user"`
}

type submissionUser struct {
	Name   string `json:"name" validate:"min=1"`
	Email  string `json:"email" validate:"email"`
	Gender string `json:"gender" validate:"gender"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("sleepdate", func(fl validator.FieldLevel) bool {
		_, err := sleep.ParseSubmissionDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return user.Gender(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("integral", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f)
	})

	return v
}

// field order used to sort violations, so responses are stable
var fieldOrder = []string{"", "sleepDuration", "sleepDate", "user", "user.name", "user.email", "user.gender"}

type fieldSpec struct {
	path     []string
	kind     gjson.Type
	optional bool
}

var topLevelFields = []fieldSpec{
	{path: []string{"sleepDuration"}, kind: gjson.Number},
	{path: []string{"sleepDate"}, kind: gjson.String},
}

var userFields = []fieldSpec{
	{path: []string{"user", "name"}, kind: gjson.String},
	{path: []string{"user", "email"}, kind: gjson.String},
	{path: []string{"user", "gender"}, kind: gjson.String, optional: true},
}

// ParseSleepSubmission validates a raw create-sleep-record body. Either the
// typed input is returned with nil, or a non-empty Violations error.
func ParseSleepSubmission(body []byte) (sleep.CreateRecordInput, error) {
	if !gjson.ValidBytes(body) {
		return sleep.CreateRecordInput{}, Violations{{Path: []string{}, Message: "Invalid JSON body"}}
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return sleep.CreateRecordInput{}, Violations{{
			Path:    []string{},
			Message: "Expected object, received " + typeName(root),
		}}
	}

	var violations Violations
	skipRules := map[string]bool{}

	check := func(field fieldSpec) (gjson.Result, bool) {
		res := root.Get(strings.Join(field.path, "."))
		key := strings.Join(field.path, ".")

		switch {
		case !res.Exists():
			// an absent optional key skips its rules; a present one, even "", is checked
			skipRules[key] = true
			if field.optional {
				return res, false
			}
			violations = append(violations, Violation{Path: field.path, Message: "Required"})
			return res, false
		case res.Type != field.kind:
			violations = append(violations, Violation{
				Path:    field.path,
				Message: fmt.Sprintf("Expected %s, received %s", kindName(field.kind), typeName(res)),
			})
			skipRules[key] = true
			return res, false
		}
		return res, true
	}

	var s submission

	if res, ok := check(topLevelFields[0]); ok {
		s.SleepDuration = res.Float()
	}
	if res, ok := check(topLevelFields[1]); ok {
		s.SleepDate = res.String()
	}

	userRes := root.Get("user")
	switch {
	case !userRes.Exists():
		violations = append(violations, Violation{Path: []string{"user"}, Message: "Required"})
		skipRules["user"] = true
	case !userRes.IsObject():
		violations = append(violations, Violation{
			Path:    []string{"user"},
			Message: "Expected object, received " + typeName(userRes),
		})
		skipRules["user"] = true
	default:
		if res, ok := check(userFields[0]); ok {
			s.User.Name = res.String()
		}
		if res, ok := check(userFields[1]); ok {
			s.User.Email = res.String()
		}
		if res, ok := check(userFields[2]); ok {
			s.User.Gender = res.String()
		}
	}

	for _, v := range structViolations(&s) {
		key := strings.Join(v.Path, ".")
		if skipRules[key] || (len(v.Path) > 0 && skipRules[v.Path[0]]) {
			continue
		}
		violations = append(violations, v)
	}

	if len(violations) > 0 {
		sortViolations(violations)
		return sleep.CreateRecordInput{}, violations
	}

	date, err := sleep.ParseSubmissionDate(s.SleepDate)
	if err != nil {
		// unreachable once the sleepdate rule passed
		return sleep.CreateRecordInput{}, Violations{{Path: []string{"sleepDate"}, Message: validationMessage("sleepDate", "sleepdate", "")}}
	}

	return sleep.CreateRecordInput{
		SleepDuration: int(s.SleepDuration),
		SleepDate:     date,
		User: user.CreateRequest{
			Name:   s.User.Name,
			Email:  s.User.Email,
			Gender: user.Gender(s.User.Gender).OrDefault(),
		},
	}, nil
}

func structViolations(s *submission) Violations {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validatorErrors validator.ValidationErrors
	if !errors.As(err, &validatorErrors) {
		return Violations{{Path: []string{}, Message: err.Error()}}
	}

	rootType := baseStructType(s)
	out := make(Violations, 0, len(validatorErrors))

	for _, fieldError := range validatorErrors {
		path := jsonPathFromValidatorError(rootType, fieldError)
		out = append(out, Violation{
			Path:    path,
			Message: validationMessage(strings.Join(path, "."), fieldError.Tag(), fieldError.Param()),
		})
	}

	return out
}

func sortViolations(v Violations) {
	rank := func(path []string) int {
		key := strings.Join(path, ".")
		for i, f := range fieldOrder {
			if f == key {
				return i
			}
		}
		return len(fieldOrder)
	}

	sort.SliceStable(v, func(i, j int) bool {
		return rank(v[i].Path) < rank(v[j].Path)
	})
}

func validationMessage(field, rule, param string) string {
	switch field + ":" + rule {
	case "sleepDuration:min":
		return "Sleep duration must be at least " + param + "."
	case "sleepDuration:max":
		return "Sleep duration must be at most " + param + "."
	case "sleepDuration:integral":
		return "Sleep duration must be a whole number."
	case "sleepDate:sleepdate":
		return "Invalid date format. Expected format: MM/dd/yyyy."
	case "user.name:min":
		return "Name is required."
	case "user.email:email":
		return "Invalid email format."
	case "user.gender:gender":
		return "Invalid enum value. Expected " + expectedGenders()
	}

	if param != "" {
		return fmt.Sprintf("failed %s validation (%s)", rule, param)
	}
	return "failed " + rule + " validation"
}

func expectedGenders() string {
	quoted := make([]string, 0, len(user.Genders))
	for _, g := range user.Genders {
		quoted = append(quoted, "'"+string(g)+"'")
	}
	return strings.Join(quoted, " | ")
}

func kindName(t gjson.Type) string {
	switch t {
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.JSON:
		return "object"
	default:
		return strings.ToLower(t.String())
	}
}

func typeName(res gjson.Result) string {
	switch res.Type {
	case gjson.Null:
		return "null"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.JSON:
		if res.IsArray() {
			return "array"
		}
		return "object"
	}
	return "undefined"
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

func jsonPathFromValidatorError(rootType reflect.Type, fieldError validator.FieldError) []string {
	// Namespace format is "<StructName>.<Field>[.<NestedField>...]".
	parts := strings.Split(fieldError.StructNamespace(), ".")

	if rootType != nil && len(parts) > 0 && parts[0] == rootType.Name() {
		parts = parts[1:]
	}

	path := mapStructPathToJSONPath(rootType, parts)
	if len(path) == 0 {
		return []string{fieldError.Field()}
	}

	return path
}

func mapStructPathToJSONPath(rootType reflect.Type, parts []string) []string {
	current := rootType
	out := make([]string, 0, len(parts))

	for _, fieldName := range parts {
		if fieldName == "" {
			continue
		}

		jsonName := fieldName
		var nextType reflect.Type

		if current != nil && current.Kind() == reflect.Struct {
			if sf, ok := current.FieldByName(fieldName); ok {
				jsonName = jsonNameFromStructField(sf)
				nextType = sf.Type
			}
		}

		out = append(out, jsonName)
		current = nextType
	}

	return out
}

func jsonNameFromStructField(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}
