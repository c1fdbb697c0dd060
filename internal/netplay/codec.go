package netplay

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/go-playground/form/v4"
)

// MaxMessageSize limits a single encoded snapshot, including the delimiter.
const MaxMessageSize = 1024

const delimiter = '\n'

var (
	// ErrMessageTooLarge is returned when a message does not fit into [MaxMessageSize].
	ErrMessageTooLarge = errors.New("message too large")
	// ErrMalformed is returned when a message cannot be decoded into a snapshot.
	ErrMalformed = errors.New("malformed message")
)

// snapshotFields lists keys every message must carry exactly once.
var snapshotFields = []string{"x", "y", "width", "height"}

// Codec converts snapshots to and from the wire format:
// a URL-encoded field map terminated by a newline,
// e.g. "height=30&width=30&x=10&y=20\n".
// It is safe for concurrent use.
type Codec struct {
	encoder *form.Encoder
	decoder *form.Decoder
}

// NewCodec creates a new codec.
func NewCodec() *Codec {
	encoder := form.NewEncoder()
	// shortest representation, so extreme values do not expand to hundreds of digits
	encoder.RegisterCustomTypeFunc(func(x any) ([]string, error) {
		return []string{strconv.FormatFloat(x.(float64), 'g', -1, 64)}, nil
	}, float64(0))

	return &Codec{
		encoder: encoder,
		decoder: form.NewDecoder(),
	}
}

// Marshal encodes a snapshot into a single delimited message.
func (c *Codec) Marshal(s Snapshot) ([]byte, error) {
	values, err := c.encoder.Encode(&s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	encoded := values.Encode()
	if len(encoded)+1 > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	msg := make([]byte, 0, len(encoded)+1)
	msg = append(msg, encoded...)
	return append(msg, delimiter), nil
}

// Unmarshal decodes a message without its delimiter.
func (c *Codec) Unmarshal(msg []byte) (Snapshot, error) {
	values, err := url.ParseQuery(string(msg))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if len(values) != len(snapshotFields) {
		return Snapshot{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformed, len(snapshotFields), len(values))
	}
	for _, field := range snapshotFields {
		if len(values[field]) != 1 {
			return Snapshot{}, fmt.Errorf("%w: field %q", ErrMalformed, field)
		}
	}

	var s Snapshot
	if err := c.decoder.Decode(&s, values); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return s, nil
}

// newMessageScanner returns a scanner yielding one message per token, without the delimiter.
// Messages longer than [MaxMessageSize] fail with [bufio.ErrTooLong].
func newMessageScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, MaxMessageSize), MaxMessageSize)
	scanner.Split(splitMessages)
	return scanner
}

func splitMessages(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, delimiter); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF && len(data) > 0 {
		return 0, nil, fmt.Errorf("%w: truncated message", ErrMalformed)
	}

	return 0, nil, nil
}
