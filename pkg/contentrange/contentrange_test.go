package contentrange_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/snabb/lszip/pkg/contentrange"
)

func TestParse(t *testing.T) {
	type args struct {
		str string
	}
	tests := []struct {
		name       string
		args       args
		wantFirst  int64
		wantLast   int64
		wantLength int64
		wantErr    bool
	}{
		{
			name: "full",
			args: args{
				str: "bytes 42-1233/1234",
			},
			wantFirst:  42,
			wantLast:   1233,
			wantLength: 1234,
			wantErr:    false,
		},
		{
			name: "size unknown",
			args: args{
				str: "bytes 42-1233/*",
			},
			wantFirst:  42,
			wantLast:   1233,
			wantLength: -1,
			wantErr:    false,
		},
		{
			name: "wildcard range",
			args: args{
				str: "bytes */1234",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: 1234,
			wantErr:    false,
		},
		{
			name: "leading space",
			args: args{
				str: " bytes 0-0/1",
			},
			wantFirst:  0,
			wantLast:   0,
			wantLength: 1,
			wantErr:    false,
		},
		{
			name: "bad unit",
			args: args{
				str: "banana 200-1000/67589",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
		{
			name: "bad field",
			args: args{
				str: "bytes 0/67589",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
		{
			name: "empty",
			args: args{
				str: "",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
		{
			name: "empty resource",
			args: args{
				str: "bytes 0--1/0",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
		{
			name: "repeated separator",
			args: args{
				str: "bytes 1--5/10",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
		{
			name: "doubled slash",
			args: args{
				str: "bytes 1-5//10",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
		{
			name: "missing length",
			args: args{
				str: "bytes 1-5/",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
		{
			name: "past length",
			args: args{
				str: "bytes 0-10/10",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
		{
			name: "signed position",
			args: args{
				str: "bytes +1-5/10",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
		{
			name: "inverted",
			args: args{
				str: "bytes 10-4/20",
			},
			wantFirst:  -1,
			wantLast:   -1,
			wantLength: -1,
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFirst, gotLast, gotLength, err := contentrange.Parse(tt.args.str)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if gotFirst != tt.wantFirst {
				t.Errorf("Parse() gotFirst = %v, want %v", gotFirst, tt.wantFirst)
			}
			if gotLast != tt.wantLast {
				t.Errorf("Parse() gotLast = %v, want %v", gotLast, tt.wantLast)
			}
			if gotLength != tt.wantLength {
				t.Errorf("Parse() gotLength = %v, want %v", gotLength, tt.wantLength)
			}
		})
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		str     string
		want    int64
		wantErr bool
	}{
		{str: "bytes 42-1233/1234", want: 1234},
		{str: "bytes 0--1/0", want: 0},
		{str: "bytes */77", want: 77},
		{str: "bytes 0-9/*", want: -1},
		{str: "bytes 0-9/-3", want: -1, wantErr: true},
		{str: "items 0-9/10", want: -1, wantErr: true},
		{str: "", want: -1, wantErr: true},
	}
	for _, tt := range tests {
		got, err := contentrange.Length(tt.str)
		if (err != nil) != tt.wantErr {
			t.Errorf("Length(%q) error = %v, wantErr %v", tt.str, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Length(%q) = %d, want %d", tt.str, got, tt.want)
		}
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		name      string
		low, high int64
		want      string
	}{
		{name: "from start", low: 0, high: contentrange.Open, want: "bytes=0-"},
		{name: "closed", low: 20, high: 40, want: "bytes=20-40"},
		{name: "open ended", low: 12, high: contentrange.Open, want: "bytes=12-"},
		{name: "suffix", low: -20, high: contentrange.Open, want: "bytes=-20"},
		{name: "suffix ignores high", low: -22, high: 100, want: "bytes=-22"},
		{name: "single byte", low: 7, high: 7, want: "bytes=7-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentrange.Range(tt.low, tt.high); got != tt.want {
				t.Errorf("Range(%d, %d) = %q, want %q", tt.low, tt.high, got, tt.want)
			}
		})
	}
}

func ExampleParse() {
	// fake http response
	res := http.Response{Header: http.Header{}}
	res.Header.Add("Content-Range", "bytes 42-1233/1234")

	// get header and parse
	first, last, length, err := contentrange.Parse(res.Header.Get("Content-Range"))
	if err != nil {
		fmt.Printf("can't parse content-range: %v\n", err)
		return
	}

	fmt.Println(first, last, length)
	// Output: 42 1233 1234
}

func ExampleRange() {
	fmt.Println(contentrange.Range(-65557, contentrange.Open))
	fmt.Println(contentrange.Range(1024, contentrange.Open))
	fmt.Println(contentrange.Range(1024, 1053))
	// Output:
	// bytes=-65557
	// bytes=1024-
	// bytes=1024-1053
}
