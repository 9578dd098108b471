package domain

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Verb is one of the HTTP verbs the dispatcher supports
type Verb string

const (
	VerbGet    Verb = "get"
	VerbPost   Verb = "post"
	VerbPut    Verb = "put"
	VerbDelete Verb = "delete"
)

// ParseVerb converts a string into a supported Verb
func ParseVerb(s string) (Verb, error) {
	v := Verb(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case VerbGet, VerbPost, VerbPut, VerbDelete:
		return v, nil
	}
	return "", fmt.Errorf("unsupported verb: %q", s)
}

// Method returns the HTTP method for the verb
func (v Verb) Method() string {
	switch v {
	case VerbPost:
		return http.MethodPost
	case VerbPut:
		return http.MethodPut
	case VerbDelete:
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}

// FileAttachment is a file part of a multipart payload
type FileAttachment struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// MultipartForm is a payload submitted as multipart/form-data
type MultipartForm struct {
	Fields []FormField
	Files  []FileAttachment
}

// FormField is a single text field of a multipart payload. Order is preserved.
type FormField struct {
	Name  string
	Value string
}

// Add appends a text field
func (f *MultipartForm) Add(name, value string) {
	f.Fields = append(f.Fields, FormField{Name: name, Value: value})
}

// Attach appends a file part
func (f *MultipartForm) Attach(file FileAttachment) {
	f.Files = append(f.Files, file)
}

// RequestDescriptor identifies one API call. Build it with NewRequest and
// treat it as immutable afterwards; a retry reuses the same descriptor.
type RequestDescriptor struct {
	path    string
	verb    Verb
	payload interface{}
}

// NewRequest builds a request descriptor. Payload may be nil, any JSON
// encodable value, or a *MultipartForm.
func NewRequest(path string, verb Verb, payload interface{}) (RequestDescriptor, error) {
	if strings.TrimSpace(path) == "" {
		return RequestDescriptor{}, fmt.Errorf("request path is required")
	}
	parsed, err := ParseVerb(string(verb))
	if err != nil {
		return RequestDescriptor{}, err
	}
	return RequestDescriptor{path: path, verb: parsed, payload: payload}, nil
}

// MustRequest is NewRequest for descriptors built from constant paths and verbs
func MustRequest(path string, verb Verb, payload interface{}) RequestDescriptor {
	d, err := NewRequest(path, verb, payload)
	if err != nil {
		panic(err)
	}
	return d
}

func (d RequestDescriptor) Path() string { return d.path }
func (d RequestDescriptor) Verb() Verb { return d.verb }
func (d RequestDescriptor) Payload() interface{} { return d.payload }
func (d RequestDescriptor) String() string { return fmt.Sprintf("%s %s", d.verb.Method(), d.path) }
func (d RequestDescriptor) IsZero() bool { return d.path == "" }

// Envelope is the response wrapper every backend endpoint returns
type Envelope struct {
	Data json.RawMessage `json:"data"`
}

// Mapper converts the decoded data payload of a successful response into
// an Action. Mappers must not have side effects; the dispatcher applies the
// returned action.
type Mapper func(data json.RawMessage) (Action, error)
