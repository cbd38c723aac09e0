package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"auto": ColorAuto, "": ColorAuto, "always": ColorAlways, "never": ColorNever} {
		got, err := ParseColorMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseColorMode("rainbow")
	assert.Error(t, err)
}

func TestResolveColors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, ResolveColors(ColorAlways))
	assert.False(t, ResolveColors(ColorNever))
	assert.False(t, ResolveColors(ColorAuto))
}

func TestPrinterPlain(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, false, false)

	p.Success("logged in as %s", "jane")
	p.Info("hello")
	p.Warning("careful")
	p.Error("broken")
	p.Header("Cart")

	assert.Equal(t, "[OK] logged in as jane\nhello\n\nCart\n----\n", out.String())
	assert.Equal(t, "[WARN] careful\n[ERROR] broken\n", errOut.String())
}

func TestPrinterQuiet(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, false, true)

	p.Success("x")
	p.Print("y")
	p.Warning("z")
	p.Error("still shown")

	assert.Empty(t, out.String())
	assert.Equal(t, "[ERROR] still shown\n", errOut.String())
}

func TestFormatError(t *testing.T) {
	var errOut bytes.Buffer
	p := NewPrinter(&bytes.Buffer{}, &errOut, false, false)

	p.FormatError(&CLIError{
		Summary:    "Invalid email or password.",
		Detail:     "status 401",
		Suggestion: "Check your credentials and try again",
	})

	assert.Equal(t,
		"[ERROR] Invalid email or password.\n  Cause: status 401\n  Suggestion: Check your credentials and try again\n",
		errOut.String())
}

func TestTable(t *testing.T) {
	var out bytes.Buffer
	table := NewTable(&out, []string{"ID", "Name", "Price"})
	table.AddRow("1", "Silk Slip Dress", "159.99")
	table.AddRow("2", "Velvet Cropped Blazer", "95.00")

	table.Render()
	assert.Equal(t, 2, table.Len())

	text := out.String()
	assert.True(t, strings.Contains(text, "Silk Slip Dress"))
	assert.True(t, strings.Contains(text, "Velvet Cropped Blazer"))
}
