package grok_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logfield/grok-go/pkg/grok"
)

func TestCompile_CustomPattern(t *testing.T) {
	reg := grok.NewRegistry()
	reg.AddPattern("NAME", `[A-z0-9._-]+`)

	p, err := reg.Compile("%{NAME}", false)
	require.NoError(t, err)

	got, err := p.Parse("admin")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"NAME": grok.StringValue("admin")}, got)
}

func TestCompile_DefaultPatterns(t *testing.T) {
	p, err := grok.Compile("%{USERNAME}", false)
	require.NoError(t, err)

	got, err := p.Parse("admin admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"USERNAME": grok.StringValue("admin")}, got)
}

func TestCompile_AliasOnly(t *testing.T) {
	p, err := grok.Compile("%{USERNAME} %{EMAILADDRESS:email}", true)
	require.NoError(t, err)

	got, err := p.Parse("admin admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"email": grok.StringValue("admin@example.com")}, got)
}

func TestCompile_AliasOnlyOmitsUnaliased(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "D", Fragment: `\d+`})

	withAll, err := reg.Compile("%{D}", false)
	require.NoError(t, err)
	got, err := withAll.Parse("5")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"D": grok.StringValue("5")}, got)

	aliasOnly, err := reg.Compile("%{D}", true)
	require.NoError(t, err)
	got, matched, err := aliasOnly.ParseMatch("5")
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Empty(t, got)
}

func TestCompile_TypedInt(t *testing.T) {
	reg := grok.NewRegistry()
	reg.AddPattern("NUMBER", `\d+`)

	p, err := reg.Compile("%{NUMBER:digit:int}", false)
	require.NoError(t, err)

	got, err := p.Parse("hello 123")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"digit": grok.IntValue(123)}, got)
}

func TestCompile_RegistryOverridesDefault(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "NUMBER", Fragment: `\d+`})

	p, err := reg.Compile("%{NUMBER}", false)
	require.NoError(t, err)
	assert.Equal(t, `(?<name0>\d+)`, p.String())
}

func TestCompile_UnsupportedType(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "NUMBER", Fragment: `\d+`})

	_, err := reg.Compile("%{NUMBER:digit:wrong}", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, grok.ErrUnsupportedType))

	var compileErr *grok.CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "%{NUMBER:digit:wrong}", compileErr.Pattern)
	assert.Contains(t, err.Error(), "wrong")
}

func TestCompile_TypeConversion(t *testing.T) {
	reg := grok.NewRegistry(
		grok.Definition{Name: "NUM", Fragment: `[0-9.]+`},
		grok.Definition{Name: "TOKEN", Fragment: `\w+`},
	)

	tests := []struct {
		name     string
		template string
		input    string
		want     map[string]grok.Value
		wantType grok.FieldType // set when a ConversionError is expected
	}{
		{
			name:     "int",
			template: "%{NUM:n:int}",
			input:    "42",
			want:     map[string]grok.Value{"n": grok.IntValue(42)},
		},
		{
			name:     "int rejects fraction",
			template: "%{NUM:n:int}",
			input:    "4.2",
			wantType: grok.TypeInt,
		},
		{
			name:     "float",
			template: "%{NUM:n:float}",
			input:    "4.2",
			want:     map[string]grok.Value{"n": grok.FloatValue(4.2)},
		},
		{
			name:     "float rejects garbage",
			template: "%{NUM:n:float}",
			input:    "1.2.3",
			wantType: grok.TypeFloat,
		},
		{
			name:     "bool",
			template: "%{BOOL:flag:bool}",
			input:    "flag=true",
			want:     map[string]grok.Value{"flag": grok.BoolValue(true)},
		},
		{
			name:     "boolean alias",
			template: "%{BOOL:flag:boolean}",
			input:    "false",
			want:     map[string]grok.Value{"flag": grok.BoolValue(false)},
		},
		{
			name:     "bool rejects other words",
			template: "%{TOKEN:flag:bool}",
			input:    "yes",
			wantType: grok.TypeBool,
		},
		{
			name:     "bool rejects numeric truth",
			template: "%{TOKEN:flag:bool}",
			input:    "1",
			wantType: grok.TypeBool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reg.Compile(tt.template, false)
			require.NoError(t, err)

			got, err := p.Parse(tt.input)
			if tt.want != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			require.Error(t, err)
			assert.Nil(t, got)
			var convErr *grok.ConversionError
			require.True(t, errors.As(err, &convErr))
			assert.Equal(t, tt.wantType, convErr.Type)
			assert.Equal(t, tt.input, convErr.Raw)
			wantField := "n"
			if strings.Contains(tt.template, ":flag:") {
				wantField = "flag"
			}
			assert.Equal(t, wantField, convErr.Field)
		})
	}
}

func TestCompile_ConversionErrorAbortsParse(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "W", Fragment: `\w+`})

	p, err := reg.Compile("%{W:name} %{W:age:int}", false)
	require.NoError(t, err)

	got, err := p.Parse("alice old")
	require.Error(t, err)
	assert.Nil(t, got, "no partial result on conversion failure")
}

func TestCompile_RecursionLimit(t *testing.T) {
	tests := []struct {
		name string
		defs []grok.Definition
	}{
		{
			name: "mutual",
			defs: []grok.Definition{
				{Name: "A", Fragment: "%{B}"},
				{Name: "B", Fragment: "%{A}"},
			},
		},
		{
			name: "self",
			defs: []grok.Definition{
				{Name: "A", Fragment: "x%{A}"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := grok.NewRegistry(tt.defs...)
			p, err := reg.Compile("%{A}", false)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, grok.ErrRecursionLimitExceeded))
		})
	}
}

func TestCompile_MaxRecursionOption(t *testing.T) {
	reg := grok.NewRegistry(
		grok.Definition{Name: "A", Fragment: "%{B}"},
		grok.Definition{Name: "B", Fragment: "%{C}"},
		grok.Definition{Name: "C", Fragment: "c"},
	)

	_, err := reg.Compile("%{A}", false, grok.WithMaxRecursion(2))
	assert.True(t, errors.Is(err, grok.ErrRecursionLimitExceeded))

	_, err = reg.Compile("%{A}", false, grok.WithMaxRecursion(3))
	assert.NoError(t, err)
}

func TestCompile_RepeatedPlaceholderCostsOneStep(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "D", Fragment: `\d`})
	template := strings.Repeat("%{D}", 1100) + "-%{D:last:int}"

	p, err := reg.Compile(template, true)
	require.NoError(t, err)

	got, err := p.Parse(strings.Repeat("1", 1100) + "-5")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"last": grok.IntValue(5)}, got)

	// %{D} and %{D:last:int} are two distinct texts.
	_, err = reg.Compile(template, true, grok.WithMaxRecursion(2))
	assert.NoError(t, err)
	_, err = reg.Compile(template, true, grok.WithMaxRecursion(1))
	assert.True(t, errors.Is(err, grok.ErrRecursionLimitExceeded))
}

func TestCompile_FanOutTree(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "L0", Fragment: "x"})
	for i := 1; i <= 10; i++ {
		prev := fmt.Sprintf("%%{L%d}", i-1)
		reg.AddPattern(fmt.Sprintf("L%d", i), prev+prev)
	}

	p, err := reg.Compile("%{L10}", true, grok.WithMaxRecursion(11))
	require.NoError(t, err)
	assert.Equal(t, 1024, strings.Count(p.String(), "x"))

	ok, err := p.Match(strings.Repeat("x", 1024))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = reg.Compile("%{L10}", true, grok.WithMaxRecursion(10))
	assert.True(t, errors.Is(err, grok.ErrRecursionLimitExceeded))
}

func TestCompile_RecursionErrorOmitsTemplate(t *testing.T) {
	reg := grok.NewRegistry(
		grok.Definition{Name: "A", Fragment: "%{B}"},
		grok.Definition{Name: "B", Fragment: "%{A}"},
	)

	_, err := reg.Compile(strings.Repeat("a", 5000)+"%{A}", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, grok.ErrRecursionLimitExceeded))
	assert.NotContains(t, err.Error(), "aaaa")
	assert.Less(t, len(err.Error()), 200)
}

func TestCompile_UnknownPattern(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "OUTER", Fragment: "x%{MISSING}"})

	tests := []struct {
		template string
		want     string
	}{
		{"%{NOPE}", "NOPE"},
		{"%{OUTER}", "MISSING"},
		{"%{WORD} %{NOPE:alias:int}", "NOPE"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			_, err := reg.Compile(tt.template, false)
			var unknown *grok.UnknownPatternError
			require.True(t, errors.As(err, &unknown), "err = %v", err)
			assert.Equal(t, tt.want, unknown.Name)
		})
	}
}

func TestCompile_InvalidRegex(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "BAD", Fragment: `(unclosed`})

	_, err := reg.Compile("%{BAD}", false)
	var compileErr *grok.CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "%{BAD}", compileErr.Pattern)
	assert.NotNil(t, compileErr.Unwrap())
}

func TestCompile_SameAliasAlternation(t *testing.T) {
	reg := grok.NewRegistry(
		grok.Definition{Name: "A", Fragment: `a+`},
		grok.Definition{Name: "B", Fragment: `b+`},
	)
	p, err := reg.Compile("%{A:x}|%{B:x}", false)
	require.NoError(t, err)

	got, err := p.Parse("aaa")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"x": grok.StringValue("aaa")}, got)

	got, err = p.Parse("bbb")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"x": grok.StringValue("bbb")}, got)
}

func TestCompile_LeftmostAliasWins(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "D", Fragment: `\d+`})

	p, err := reg.Compile("%{D:n} %{D:n}", false)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		got, err := p.Parse("1 2")
		require.NoError(t, err)
		require.Equal(t, map[string]grok.Value{"n": grok.StringValue("1")}, got)
	}
}

func TestCompile_LeftmostWinsSkipsLaterConversion(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "D", Fragment: `\d+`})

	p, err := reg.Compile("%{D:n:int} %{WORD:n:int}", false)
	require.NoError(t, err)

	got, err := p.Parse("7 abc")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"n": grok.IntValue(7)}, got)
}

func TestCompile_OptionalGroupAbsent(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "D", Fragment: `\d+`})

	p, err := reg.Compile("%{D:a}(?:-%{D:b})?", false)
	require.NoError(t, err)

	got, err := p.Parse("12")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"a": grok.StringValue("12")}, got)
}

func TestCompile_NativeNamedGroups(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "D", Fragment: `\d+`})

	p, err := reg.Compile(`%{D:n:int} (?P<word>\w+) (?<other>\w+)`, false)
	require.NoError(t, err)

	got, err := p.Parse("5 five six")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{
		"n":     grok.IntValue(5),
		"word":  grok.StringValue("five"),
		"other": grok.StringValue("six"),
	}, got)
	assert.Equal(t, []string{"n", "other", "word"}, p.Fields())
}

func TestCompile_NoMatchReturnsEmptyMap(t *testing.T) {
	p, err := grok.Compile("%{IPV4:ip}", true)
	require.NoError(t, err)

	got, matched, err := p.ParseMatch("no address here")
	require.NoError(t, err)
	assert.False(t, matched)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPattern_ParseBytes(t *testing.T) {
	p, err := grok.Compile("%{WORD:verb} %{INT:status:int}", true)
	require.NoError(t, err)

	got, err := p.ParseBytes([]byte("GET 200"))
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{
		"verb":   grok.StringValue("GET"),
		"status": grok.IntValue(200),
	}, got)

	got, err = p.ParseBytes(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompile_GeneratedNames(t *testing.T) {
	reg := grok.NewRegistry(
		grok.Definition{Name: "D", Fragment: `\d+`},
		grok.Definition{Name: "OUTER", Fragment: "%{INNER:a}-%{INNER:b}"},
		grok.Definition{Name: "INNER", Fragment: `\w`},
	)

	p, err := reg.Compile("%{D} %{D}", false)
	require.NoError(t, err)
	assert.Equal(t, `(?<name0>\d+) (?<name1>\d+)`, p.String())

	p, err = reg.Compile("%{OUTER}", false)
	require.NoError(t, err)
	assert.Equal(t, `(?<name0>(?<name1>\w)-(?<name2>\w))`, p.String())
	assert.Equal(t, []string{"OUTER", "a", "b"}, p.Fields())

	p, err = reg.Compile("%{OUTER}", true)
	require.NoError(t, err)
	assert.Equal(t, `(?:(?<name0>\w)-(?<name1>\w))`, p.String())
	assert.Equal(t, "%{OUTER}", p.Template())
}

func TestCompile_Idempotent(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "D", Fragment: `\d+`})

	p1, err := reg.Compile("%{D:a:int}.%{D:b}", false)
	require.NoError(t, err)
	p2, err := reg.Compile("%{D:a:int}.%{D:b}", false)
	require.NoError(t, err)

	assert.Equal(t, p1.String(), p2.String())
	for _, in := range []string{"1.2", "x", "30.40"} {
		r1, err1 := p1.Parse(in)
		r2, err2 := p2.Parse(in)
		assert.Equal(t, r1, r2)
		assert.Equal(t, err1, err2)
	}
}

func TestCompile_PatternUnaffectedByLaterRegistryChanges(t *testing.T) {
	reg := grok.NewRegistry(grok.Definition{Name: "D", Fragment: `\d+`})
	p, err := reg.Compile("%{D:n}", false)
	require.NoError(t, err)

	reg.AddPattern("D", `[a-z]+`)

	got, err := p.Parse("42")
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{"n": grok.StringValue("42")}, got)
}

func TestCompile_SyslogLine(t *testing.T) {
	p, err := grok.Compile("%{SYSLOGLINE}", true)
	require.NoError(t, err)

	line := "Jan  5 14:03:22 web01 sshd[1234]: Failed password for root from 10.0.0.1 port 22 ssh2"
	got, err := p.Parse(line)
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{
		"timestamp": grok.StringValue("Jan  5 14:03:22"),
		"logsource": grok.StringValue("web01"),
		"program":   grok.StringValue("sshd"),
		"pid":       grok.IntValue(1234),
		"message":   grok.StringValue("Failed password for root from 10.0.0.1 port 22 ssh2"),
	}, got)
}

func TestCompile_CommonApacheLog(t *testing.T) {
	p, err := grok.Compile("%{COMMONAPACHELOG}", true)
	require.NoError(t, err)

	line := `127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326`
	got, err := p.Parse(line)
	require.NoError(t, err)
	assert.Equal(t, map[string]grok.Value{
		"clientip":    grok.StringValue("127.0.0.1"),
		"ident":       grok.StringValue("-"),
		"auth":        grok.StringValue("frank"),
		"timestamp":   grok.StringValue("10/Oct/2000:13:55:36 -0700"),
		"verb":        grok.StringValue("GET"),
		"request":     grok.StringValue("/apache_pb.gif"),
		"httpversion": grok.StringValue("1.0"),
		"response":    grok.IntValue(200),
		"bytes":       grok.IntValue(2326),
	}, got)
}

func TestCompile_EveryDefaultPatternCompiles(t *testing.T) {
	for name := range grok.DefaultPatterns() {
		_, err := grok.Compile("%{"+name+"}", false)
		assert.NoError(t, err, "pattern %s", name)
	}
}

func TestPattern_ConcurrentParse(t *testing.T) {
	p, err := grok.Compile("%{IPV4:ip} %{INT:n:int}", true)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, err := p.Parse("10.1.2.3 77")
				if err != nil || got["n"].Int() != 77 || got["ip"].Str() != "10.1.2.3" {
					t.Errorf("Parse() = %v, %v", got, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { grok.MustCompile("%{DOES_NOT_EXIST}", false) })
	assert.NotPanics(t, func() { grok.MustCompile("%{WORD}", false) })
}
