package parse

import (
	"reflect"
	"testing"
)

func TestCSV(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want [][]string
	}{
		{"quoted comma", "a,\"b,c\",d\n", [][]string{{"a", "b,c", "d"}}},
		{"doubled quotes", `x,"he said ""hi"""`, [][]string{{"x", `he said "hi"`}}},
		{"blank line dropped", "a,b\n\n , \nc,d\n", [][]string{{"a", "b"}, {"c", "d"}}},
		{"embedded newline", "h1,h2\r\n\"line1\nline2\",z\r\n", [][]string{{"h1", "h2"}, {"line1\nline2", "z"}}},
		{"trim outside quotes", "  a  ,  \" b \"  \n", [][]string{{"a", " b "}}},
		{"no trailing newline", "a,b", [][]string{{"a", "b"}}},
		{"unterminated quote", "a,\"b,c\nd", [][]string{{"a", "b,c\nd"}}},
		{"empty cells kept", "a,,c\n", [][]string{{"a", "", "c"}}},
		{"lone carriage return", "a\rb,c\n", [][]string{{"a\rb", "c"}}},
		{"empty input", "", nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CSV(c.in)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("got %q want %q", got, c.want)
			}
		})
	}
}
