package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pump1090/pump1090/pkg/types"
)

// Mode selects how file content is turned into a payload.
type Mode string

const (
	ModeRaw        Mode = "raw"
	ModeStructured Mode = "structured"
)

// Sentinel errors for classification with errors.Is.
var (
	ErrRead  = errors.New("source: read failed")
	ErrParse = errors.New("source: parse failed")
)

// ReadError reports a file that could not be opened or read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("source: read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() []error { return []error{ErrRead, e.Err} }

// ParseError reports content that is not a well-formed JSON object.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("source: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// Payload is the content read from the watched file at one point in time.
// It is produced, sent, and discarded; callers must not modify Data.
type Payload struct {
	Data   []byte
	ReadAt time.Time
}

// Reader turns the watched file into payloads.
type Reader struct {
	mode   Mode
	secret string
	now    func() time.Time // injectable for deterministic tests
}

// NewReader returns a Reader for the given mode. secret is only used in
// ModeStructured.
func NewReader(mode Mode, secret string) (*Reader, error) {
	switch mode {
	case ModeRaw, ModeStructured:
	default:
		return nil, fmt.Errorf("source: unknown mode %q", mode)
	}
	return &Reader{mode: mode, secret: secret, now: time.Now}, nil
}

// Mode reports the reader's mode.
func (r *Reader) Mode() Mode { return r.mode }

// Read loads the whole file at path and builds a payload from it.
func (r *Reader) Read(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, &ReadError{Path: path, Err: err}
	}
	at := r.now()

	if r.mode == ModeRaw {
		return Payload{Data: data, ReadAt: at}, nil
	}

	out, err := injectSecret(data, r.secret)
	if err != nil {
		return Payload{}, &ParseError{Path: path, Err: err}
	}
	return Payload{Data: out, ReadAt: at}, nil
}

// injectSecret sets the top-level secret field of a JSON object. The other
// members are kept as json.RawMessage and written back byte-for-byte; only
// the whitespace between top-level members changes and keys come out sorted.
func injectSecret(data []byte, secret string) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("document is null")
	}
	v, err := encodeString(secret)
	if err != nil {
		return nil, err
	}
	doc[types.SecretField] = v

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Grow(len(data) + len(v) + 16)
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := encodeString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(doc[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeString quotes s as a JSON string without HTML escaping.
func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
