package bot

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		text, prefix string
		want         Command
		ok           bool
	}{
		{"!start @a @b", "!", Command{Name: cmdStart, Args: []string{"@a", "@b"}}, true},
		{"  !MOVE 5 ", "!", Command{Name: cmdMove, Args: []string{"5"}}, true},
		{"!m 3", "!", Command{Name: cmdMove, Args: []string{"3"}}, true},
		{"!7", "!", Command{Name: cmdMove, Args: []string{"7"}}, true},
		{"!ttt 시작 철수 영희", "!ttt", Command{Name: cmdStart, Args: []string{"철수", "영희"}}, true},
		{"!ttt", "!ttt", Command{Name: cmdHelp}, true},
		{"!fly", "!", Command{Name: cmdUnknown, Args: []string{"fly"}}, true},
		{"start", "!", Command{}, false},
		{"!start", "", Command{}, false},
	}
	for _, c := range cases {
		got, ok := Parse(c.text, c.prefix)
		if ok != c.ok || got.Name != c.want.Name || (len(got.Args) > 0 || len(c.want.Args) > 0) && !reflect.DeepEqual(got.Args, c.want.Args) {
			t.Errorf("Parse(%q, %q) = %+v %v, want %+v %v", c.text, c.prefix, got, ok, c.want, c.ok)
		}
	}
}

func TestMentionAndCell(t *testing.T) {
	if Mention(" @Alice ") != "Alice" || Mention("Bob") != "Bob" || Mention("@") != "" {
		t.Fatalf("unexpected mention handling")
	}
	for in, want := range map[string]int{"1": 0, "9": 8, " 5 ": 4, "0": -1, "x": -1, "": -1, "10": 9} {
		if got := ParseCell(in); got != want {
			t.Errorf("ParseCell(%q) = %d, want %d", in, got, want)
		}
	}
}
