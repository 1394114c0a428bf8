package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...),
			expected: "hello,world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "utf-8 accents",
			input:    []byte("Devolución,Teléfono"),
			expected: "Devolución,Teléfono",
		},
		{
			name:     "windows-1252 accents",
			input:    []byte("Devoluci\xf3n,Tel\xe9fono,N\xdaMERO"),
			expected: "Devolución,Teléfono,NÚMERO",
		},
		{
			name:     "partial BOM is read as windows-1252",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: "ï»abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(DecodeText(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestDecodeText_LargeInput(t *testing.T) {
	// Accented text well past the sniff window must survive intact.
	line := "Pedido,Ciudad,Teléfono\n"
	input := strings.Repeat(line, 2*sniffSize/len(line))

	result, err := io.ReadAll(DecodeText(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != input {
		t.Errorf("decoded length %d, want %d", len(result), len(input))
	}
}

func TestLooksUTF8(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		truncated bool
		want      bool
	}{
		{name: "ascii", input: []byte("abc"), want: true},
		{name: "empty", input: nil, want: true},
		{name: "rune cut at sample end", input: []byte("añ")[:2], truncated: true, want: true},
		{name: "invalid byte in the middle", input: []byte("a\xf3b"), truncated: true, want: false},
		{name: "latin-1 at the end of a whole file", input: []byte("abc\xf3"), want: false},
		{name: "latin-1 before a cut rune", input: []byte("\xf3añ")[:3], truncated: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksUTF8(tt.input, tt.truncated); got != tt.want {
				t.Errorf("looksUTF8(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	input := "hello, world!"
	reader := NewCountingReader(strings.NewReader(input))

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != input {
		t.Errorf("got %q, want %q", string(data), input)
	}
	if reader.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", reader.BytesRead, len(input))
	}
}

func TestWrapForImport(t *testing.T) {
	t.Run("counts raw bytes, not decoded bytes", func(t *testing.T) {
		// Three one-byte windows-1252 characters decode to six UTF-8 bytes.
		input := []byte{0xEF, 0xBB, 0xBF, 'i', 'd', '\n'}
		input = append(input, []byte("\xe1\xe9\xed")...)

		reader, counter := WrapForImport(bytes.NewReader(input))
		data, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if counter.BytesRead != int64(len(input)) {
			t.Errorf("BytesRead = %d, want %d", counter.BytesRead, len(input))
		}
		if !strings.HasSuffix(string(data), "áéí") {
			t.Errorf("decoded %q, want windows-1252 accents", string(data))
		}
	})

	t.Run("utf-8 with BOM", func(t *testing.T) {
		input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("ID,ESTATUS\nA1,Devolución\n")...)

		reader, counter := WrapForImport(bytes.NewReader(input))
		data, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "ID,ESTATUS\nA1,Devolución\n" {
			t.Errorf("got %q", string(data))
		}
		if counter.BytesRead != int64(len(input)) {
			t.Errorf("BytesRead = %d, want %d", counter.BytesRead, len(input))
		}
	})
}
