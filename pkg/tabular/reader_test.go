package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	input := "code,label\nGRI_302_1,Energy consumption\nGRI_305_1,Scope 1 emissions\n"

	records, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, "GRI_302_1", records[0].Get("code"))
	assert.Equal(t, "Energy consumption", records[0].Get("label"))
	assert.Equal(t, 3, records[1].Line)
	assert.Equal(t, "GRI_305_1", records[1].Get("code"))
}

func TestParse_QuotedDelimiterAndNewline(t *testing.T) {
	input := "code,label\nDP1,\"line one\nline two, with comma\"\n"

	records, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// The embedded newline and comma survive as a single cell.
	assert.Equal(t, "line one\nline two, with comma", records[0].Get("label"))
}

func TestParse_DoubledQuoteEscape(t *testing.T) {
	input := "code,label\nDP1,\"the \"\"net zero\"\" target\"\n"

	records, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `the "net zero" target`, records[0].Get("label"))
}

func TestParse_CRLFAndMissingTrailingNewline(t *testing.T) {
	input := "code,label\r\nDP1,first\r\nDP2,last without newline"

	records, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "DP2", records[1].Get("code"))
	assert.Equal(t, "last without newline", records[1].Get("label"))
}

func TestParse_BlankRowsDropped(t *testing.T) {
	input := "code,label\nDP1,first\n,\n  ,  \nDP2,second\n"

	records, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "DP1", records[0].Get("code"))
	assert.Equal(t, "DP2", records[1].Get("code"))
}

func TestParse_LineNumbersAfterMultilineCell(t *testing.T) {
	input := "code,label\nDP1,\"spans\ntwo lines\"\nDP2,after\n"

	records, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Line)
	// DP2 starts on physical line 4 because DP1's cell consumed two lines.
	assert.Equal(t, 4, records[1].Line)
}

func TestParse_HeaderOnly(t *testing.T) {
	records, err := Parse("code,label\n")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParse_EmptyInput(t *testing.T) {
	records, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParse_RaggedRows(t *testing.T) {
	input := "code,label,unit\nDP1,Energy\nDP2,Water,m3,extra\n"

	records, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[0].Get("unit"))
	assert.Equal(t, "m3", records[1].Get("unit"))
}

func TestParse_TrimsCellsAndHeaders(t *testing.T) {
	input := " code , label \n DP1 ,  padded value \n"

	records, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "DP1", records[0].Get("code"))
	assert.Equal(t, "padded value", records[0].Get("label"))
}
