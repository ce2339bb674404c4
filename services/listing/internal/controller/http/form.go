package http

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"
	"time"

	"avto-sawda/pkg/apperr"
	"avto-sawda/services/listing/internal/entity"

	"github.com/gin-gonic/gin"
)

const (
	imagesField         = "images"
	existingImagesField = "existingImages"
	maxUploadMemory     = 32 << 20
)

// formField is one top-level attribute addressable from a form.
type formField struct {
	name string
	kind reflect.Kind
}

var (
	attributeFields = collectFields(reflect.TypeOf(entity.Attributes{}))
	timeType        = reflect.TypeOf(time.Time{})
)

func collectFields(t reflect.Type) []formField {
	out := make([]formField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		kind := ft.Kind()
		if ft == timeType {
			kind = reflect.String
		}
		out = append(out, formField{name: name, kind: kind})
	}
	return out
}

// listingPayload is the decoded body of a create or update request.
type listingPayload struct {
	Attributes     json.RawMessage
	ExistingImages []string
	Files          []*multipart.FileHeader
}

// readPayload accepts a JSON body or a multipart form. In a form, scalar
// attributes arrive as plain strings while nested objects and arrays arrive
// as JSON text.
func readPayload(c *gin.Context) (*listingPayload, error) {
	if c.ContentType() == gin.MIMEJSON {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, apperr.Validation("failed to read body")
		}
		if len(body) == 0 {
			body = []byte("{}")
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			return nil, apperr.Validation("invalid JSON body")
		}
		p := &listingPayload{Attributes: body}
		if raw, ok := probe[existingImagesField]; ok {
			if err := json.Unmarshal(raw, &p.ExistingImages); err != nil {
				return nil, apperr.Validation("existingImages must be an array of URLs")
			}
			if p.ExistingImages == nil {
				p.ExistingImages = []string{}
			}
		}
		return p, nil
	}

	var (
		values map[string][]string
		form   *multipart.Form
	)
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
			return nil, apperr.Validation("failed to parse form")
		}
		form = c.Request.MultipartForm
		values = form.Value
	} else {
		if err := c.Request.ParseForm(); err != nil {
			return nil, apperr.Validation("failed to parse form")
		}
		values = c.Request.PostForm
	}

	attrs, err := formAttributes(values)
	if err != nil {
		return nil, err
	}
	p := &listingPayload{Attributes: attrs}

	if raw, ok := first(values, existingImagesField); ok {
		p.ExistingImages = []string{}
		if strings.TrimSpace(raw) != "" {
			if err := json.Unmarshal([]byte(raw), &p.ExistingImages); err != nil {
				return nil, apperr.Validation("existingImages must be a JSON array of URLs")
			}
		}
	}
	if form != nil {
		p.Files = form.File[imagesField]
	}
	return p, nil
}

// formAttributes turns form values into a JSON object holding only the
// attributes that were supplied.
func formAttributes(values map[string][]string) (json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	for _, f := range attributeFields {
		raw, ok := first(values, f.name)
		if !ok {
			continue
		}
		v, err := formValue(f, raw)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[f.name] = v
		}
	}
	return json.Marshal(out)
}

func formValue(f formField, raw string) (json.RawMessage, error) {
	raw = strings.TrimSpace(raw)
	switch f.kind {
	case reflect.String:
		if raw == "" {
			return nil, nil
		}
		return json.Marshal(raw)
	case reflect.Int, reflect.Int64:
		if raw == "" || raw == "null" {
			return json.RawMessage("null"), nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, apperr.Validation("%s must be an integer", f.name)
		}
		return json.Marshal(n)
	case reflect.Float64:
		if raw == "" || raw == "null" {
			return json.RawMessage("null"), nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperr.Validation("%s must be a number", f.name)
		}
		return json.Marshal(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			if raw == "on" {
				b = true
			} else if raw != "" {
				return nil, apperr.Validation("%s must be true or false", f.name)
			}
		}
		return json.Marshal(b)
	default:
		if raw == "" {
			return nil, nil
		}
		if !json.Valid([]byte(raw)) {
			if f.kind == reflect.Slice {
				return json.Marshal(splitList(raw))
			}
			return nil, apperr.Validation("%s must be valid JSON", f.name)
		}
		return json.RawMessage(raw), nil
	}
}

func splitList(raw string) []string {
	out := []string{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func first(values map[string][]string, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
