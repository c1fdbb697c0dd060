package netplay_test

import (
	"bufio"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/dmksnnk/skirmish/internal/netplay"
)

func TestCodec(t *testing.T) {
	codec := netplay.NewCodec()

	t.Run("wire format", func(t *testing.T) {
		msg, err := codec.Marshal(netplay.Snapshot{X: 10, Y: 20, Width: 30, Height: 30})
		if err != nil {
			t.Fatal(err)
		}

		want := "height=30&width=30&x=10&y=20\n"
		if string(msg) != want {
			t.Errorf("want %q, got %q", want, msg)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		tests := []netplay.Snapshot{
			{X: 10, Y: 20, Width: 30, Height: 30},
			{},
			{X: -1.5, Y: 0.1, Width: 1e-9, Height: 1e12},
			{X: math.MaxFloat64, Y: math.SmallestNonzeroFloat64, Width: 50, Height: 50},
		}

		for _, want := range tests {
			msg, err := codec.Marshal(want)
			if err != nil {
				t.Fatalf("marshal %+v: %v", want, err)
			}

			if strings.Count(string(msg), "\n") != 1 || !strings.HasSuffix(string(msg), "\n") {
				t.Fatalf("want single trailing delimiter, got %q", msg)
			}

			got, err := codec.Unmarshal(msg[:len(msg)-1])
			if err != nil {
				t.Fatalf("unmarshal %q: %v", msg, err)
			}

			if got != want {
				t.Errorf("want %+v, got %+v", want, got)
			}
		}
	})

	t.Run("extreme values", func(t *testing.T) {
		tests := []netplay.Snapshot{
			{X: 1e300, Y: 1e300, Width: 1e300, Height: 1e300},
			{X: -math.MaxFloat64, Y: -math.MaxFloat64, Width: -math.MaxFloat64, Height: -math.MaxFloat64},
			{X: 1e-300, Y: -1e-300, Width: math.SmallestNonzeroFloat64, Height: 1e-300},
		}

		for _, want := range tests {
			msg, err := codec.Marshal(want)
			if err != nil {
				t.Fatalf("marshal %+v: %v", want, err)
			}
			if len(msg) > 200 {
				t.Errorf("want compact message, got %d bytes: %q", len(msg), msg)
			}

			got, err := codec.Unmarshal(msg[:len(msg)-1])
			if err != nil {
				t.Fatalf("unmarshal %q: %v", msg, err)
			}
			if got != want {
				t.Errorf("want %+v, got %+v", want, got)
			}
		}
	})

	t.Run("malformed", func(t *testing.T) {
		tests := []struct {
			name string
			msg  string
		}{
			{"garbage", "garbage"},
			{"empty", ""},
			{"json", `{"x": 10, "y": 20, "width": 30, "height": 30}`},
			{"missing field", "x=10&y=20&width=30"},
			{"unknown field", "x=10&y=20&width=30&depth=30"},
			{"duplicate field", "x=10&x=11&y=20&width=30&height=30"},
			{"not a number", "x=ten&y=20&width=30&height=30"},
			{"bad escape", "x=%zz&y=20&width=30&height=30"},
		}

		for _, test := range tests {
			t.Run(test.name, func(t *testing.T) {
				_, err := codec.Unmarshal([]byte(test.msg))
				if !errors.Is(err, netplay.ErrMalformed) {
					t.Errorf("want ErrMalformed, got %v", err)
				}
			})
		}
	})
}

func TestMessageFraming(t *testing.T) {
	codec := netplay.NewCodec()

	var stream strings.Builder
	want := []netplay.Snapshot{
		{X: 1, Y: 2, Width: 3, Height: 4},
		{X: 5, Y: 6, Width: 7, Height: 8},
		{X: 9, Y: 10, Width: 11, Height: 12},
	}
	for _, s := range want {
		msg, err := codec.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		stream.Write(msg)
	}

	// coalesced writes arrive as one read, each message is still decoded separately
	scanner := netplay.NewMessageScanner(strings.NewReader(stream.String()))
	var got []netplay.Snapshot
	for scanner.Scan() {
		s, err := codec.Unmarshal(scanner.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, s)
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}

	if len(got) != len(want) {
		t.Fatalf("want %d snapshots, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("snapshot %d: want %+v, got %+v", i, want[i], got[i])
		}
	}

	t.Run("truncated", func(t *testing.T) {
		scanner := netplay.NewMessageScanner(strings.NewReader("x=1&y=2"))
		if scanner.Scan() {
			t.Fatalf("want no message, got %q", scanner.Text())
		}
		if !errors.Is(scanner.Err(), netplay.ErrMalformed) {
			t.Errorf("want ErrMalformed, got %v", scanner.Err())
		}
	})

	t.Run("too long", func(t *testing.T) {
		long := strings.Repeat("a", netplay.MaxMessageSize+1) + "\n"
		scanner := netplay.NewMessageScanner(strings.NewReader(long))
		if scanner.Scan() {
			t.Fatal("want no message")
		}
		if !errors.Is(scanner.Err(), bufio.ErrTooLong) {
			t.Errorf("want ErrTooLong, got %v", scanner.Err())
		}
	})
}
