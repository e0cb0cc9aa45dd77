package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func TestJSONLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", FormatJSON, &buf)
	require.NoError(t, err)

	ForComponent(logger, "load").Printf("started %d VUs", 3)

	line := ldvalue.Parse(bytes.TrimSpace(buf.Bytes()))
	assert.Equal(t, "started 3 VUs", line.GetByKey("msg").StringValue())
	assert.Equal(t, "load", line.GetByKey("component").StringValue())
	assert.Equal(t, "info", line.GetByKey("level").StringValue())
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", FormatText, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInvalidSettings(t *testing.T) {
	_, err := New("loud", FormatText, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}
