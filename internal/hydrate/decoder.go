package hydrate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

var (
	// ErrNotObject reports a document whose root is a non-falsy scalar.
	ErrNotObject = errors.New("hydrate: document root is not an object")
	// ErrTrailingData reports bytes left after the first JSON value.
	ErrTrailingData = errors.New("hydrate: unexpected data after document")
)

// Context identifies where a raw document came from, for error messages.
type Context struct {
	Source string
}

// DecoderOption configures a Decoder instance.
type DecoderOption func(*Decoder)

// maxExactFloat is the largest integer magnitude float64 holds exactly.
const maxExactFloat = 1 << 53

// Decoder turns a persisted params document into a root mapping.
//
// Numbers become float64 when that is exact. Larger integers become int64,
// and integers beyond int64 stay json.Number, so re-encoding a document
// never changes a number it did not touch.
type Decoder struct {
	configureDec []func(*json.Decoder)
	keepNumbers  bool
}

// WithUseNumber keeps every number as json.Number.
func WithUseNumber() DecoderOption {
	return func(d *Decoder) {
		d.keepNumbers = true
	}
}

// WithDecoderConfig allows callers to configure the json.Decoder directly.
func WithDecoderConfig(configure func(*json.Decoder)) DecoderOption {
	return func(d *Decoder) {
		if configure != nil {
			d.configureDec = append(d.configureDec, configure)
		}
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode parses raw into a root mapping. Falsy documents (null, false, 0,
// "", [] and {}) decode to an empty mapping, a top level array becomes a
// mapping keyed by index, and any other scalar is rejected with
// ErrNotObject.
func (d *Decoder) Decode(ctx Context, raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	value, err := d.decode(ctx, raw)
	if err != nil {
		return nil, err
	}

	root, ok := AsRoot(value)
	if ok {
		return root, nil
	}
	if isFalsy(value) {
		return map[string]any{}, nil
	}
	return nil, fmt.Errorf("%w: %s holds %T", ErrNotObject, describeSource(ctx), value)
}

// DecodeValue parses a single JSON value of any kind using the same number
// handling as Decode.
func (d *Decoder) DecodeValue(raw []byte) (any, error) {
	return d.decode(Context{}, raw)
}

func (d *Decoder) decode(ctx Context, raw []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(raw)))
	decoder.UseNumber()
	for _, configure := range d.configureDec {
		if configure != nil {
			configure(decoder)
		}
	}

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("hydrate: decode %s: %w", describeSource(ctx), err)
	}
	var extra any
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w in %s", ErrTrailingData, describeSource(ctx))
	}
	if d.keepNumbers {
		return value, nil
	}
	return narrowNumbers(value), nil
}

func narrowNumbers(value any) any {
	switch typed := value.(type) {
	case json.Number:
		return narrowNumber(typed)
	case map[string]any:
		for key, item := range typed {
			typed[key] = narrowNumbers(item)
		}
		return typed
	case []any:
		for i, item := range typed {
			typed[i] = narrowNumbers(item)
		}
		return typed
	default:
		return value
	}
}

func narrowNumber(n json.Number) any {
	literal := string(n)
	if !strings.ContainsAny(literal, ".eE") {
		i, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return n
		}
		if i >= -maxExactFloat && i <= maxExactFloat {
			return float64(i)
		}
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n
}

// AsRoot reports value as a root mapping. Mappings are returned as is and
// sequences are re-keyed by their decimal index.
func AsRoot(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		if typed == nil {
			return map[string]any{}, true
		}
		return typed, true
	case []any:
		root := make(map[string]any, len(typed))
		for i, item := range typed {
			root[strconv.Itoa(i)] = item
		}
		return root, true
	default:
		return nil, false
	}
}

func isFalsy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case bool:
		return !typed
	case string:
		return typed == "" || typed == "0"
	case float64:
		return typed == 0
	case json.Number:
		f, err := typed.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}

func describeSource(ctx Context) string {
	if ctx.Source == "" {
		return "params document"
	}
	return strconv.Quote(ctx.Source)
}
