package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError is one entry of the "fields" array in validation failures.
// Field is the JSON path of the offending value, not the Go struct path.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON decodes and validates the request body into out. On failure it
// writes a 400 with per-field details and returns false so the handler can
// bail with a plain `return`.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err, out))
		return false
	}

	return true
}

func bindErrorDetails(err error, out interface{}) interface{} {
	root := structTypeOf(out)

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return gin.H{"fields": validationFields(root, vErrs)}
	}

	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := translatePath(root, typeErr.Field)
		if field == "" {
			field = strings.TrimSpace(typeErr.Field)
		}

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			}},
		}
	}

	// opaque decode error, at least say what went wrong
	return gin.H{"reason": err.Error()}
}

func validationFields(root reflect.Type, vErrs validator.ValidationErrors) []FieldError {
	fields := make([]FieldError, 0, len(vErrs))

	for _, fe := range vErrs {
		rule := fe.Tag()
		param := fe.Param()

		fields = append(fields, FieldError{
			Field:   validatorFieldPath(root, fe),
			Rule:    rule,
			Param:   param,
			Message: ruleMessage(rule, param),
		})
	}

	return fields
}

func structTypeOf(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	return t
}

// validatorFieldPath converts a validator namespace like
// "CreateTaskRequest.Title" into the client-facing "title".
func validatorFieldPath(root reflect.Type, fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if ns == "" {
		ns = fe.Namespace()
	}
	if ns == "" {
		return fe.Field()
	}

	parts := strings.Split(ns, ".")

	// strip the leading struct name
	if root != nil && root.Name() != "" && len(parts) > 0 && parts[0] == root.Name() {
		parts = parts[1:]
	}

	if path := joinJSONPath(root, parts); path != "" {
		return path
	}

	return fe.Field()
}

// translatePath converts a dot path of Go field names (as reported by
// encoding/json) into the matching dot path of json tag names.
func translatePath(root reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	return joinJSONPath(root, strings.Split(dotPath, "."))
}

func joinJSONPath(root reflect.Type, parts []string) string {
	cur := root
	segments := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		// "UserIDs[2]" carries the slice index along
		name, index := part, ""
		if i := strings.Index(part, "["); i != -1 {
			name, index = part[:i], part[i:]
		}

		jsonName := name
		var next reflect.Type

		if cur != nil {
			for cur.Kind() == reflect.Pointer {
				cur = cur.Elem()
			}

			if cur.Kind() == reflect.Struct {
				if sf, ok := cur.FieldByName(name); ok {
					jsonName = jsonTagName(sf)
					next = elemType(sf.Type)
				}
			}
		}

		segments = append(segments, jsonName+index)
		cur = next
	}

	return strings.Join(segments, ".")
}

func jsonTagName(sf reflect.StructField) string {
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

// elemType strips pointers, slices and arrays down to the contained type.
func elemType(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}

func ruleMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "uuid":
		return "must be a valid UUID"
	case "hexcolor":
		return "must be a hex color like #4F46E5"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
