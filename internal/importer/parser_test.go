package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	preview, err := Parse("category,siteName\nRetunes,Alpha")
	require.NoError(t, err)

	assert.Equal(t, []string{"category", "siteName"}, preview.Headers)
	require.Len(t, preview.SampleRows, 1)
	assert.Equal(t, map[string]string{"category": "Retunes", "siteName": "Alpha"}, preview.SampleRows[0].Map())
}

func TestParseHeaderCount(t *testing.T) {
	inputs := []string{
		"a\n1",
		"a,b,c\n1,2,3",
		" a , b ,\n1",
		"a,,b,c,d\r\n1,2\r\n",
	}
	for _, in := range inputs {
		preview, err := Parse(in)
		require.NoError(t, err, in)
		first := strings.TrimSuffix(strings.SplitN(in, "\n", 2)[0], "\r")
		assert.Len(t, preview.Headers, strings.Count(first, ",")+1, in)
	}
}

func TestParseRejectsShortInput(t *testing.T) {
	for _, in := range []string{"", "category,siteName", "category,siteName\n", "\n"} {
		_, err := Parse(in)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, "%q", in)
		assert.Equal(t, "empty or invalid", perr.Reason)
	}
}

func TestParseSampleRows(t *testing.T) {
	raw := "\ufeffa, b ,c\r\n" +
		"1,2\r\n" +
		"\r\n" +
		"  \n" +
		"3,4,5,6\n" +
		"r3\nr4\nr5\nr6\nr7\n"

	preview, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, preview.Headers)
	require.Len(t, preview.SampleRows, MaxSampleRows)
	assert.Equal(t, []string{"1", "2", ""}, preview.SampleRows[0].Values)
	assert.Equal(t, []string{"3", "4", "5"}, preview.SampleRows[1].Values)
	assert.Equal(t, "r5", preview.SampleRows[4].Get("a"))
}

func TestParseDoesNotUnderstandQuotes(t *testing.T) {
	preview, err := Parse("siteName,nodeId\n\"Alpha, North\",N1")
	require.NoError(t, err)
	assert.Equal(t, "\"Alpha", preview.SampleRows[0].Get("siteName"))
	assert.Equal(t, "North\"", preview.SampleRows[0].Get("nodeId"))
}
