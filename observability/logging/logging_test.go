package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWriterEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter("learnd", "test", &buf)
	logger.Info("hello", slog.String("courseId", "rust101"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "learnd", line["service"])
	require.Equal(t, "test", line["env"])
	require.Contains(t, line, "timestamp")
	require.Equal(t, "rust101", line["courseId"])
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("name", "ada").Value.String())
	require.Equal(t, "rust101", MaskField("courseId", "rust101").Value.String())
	require.Equal(t, "", MaskField("name", "").Value.String())
}

func TestEventAttrsMasksUnknownKeys(t *testing.T) {
	attrs := EventAttrs(map[string]string{"name": "ada", "learner": "learn1xyz"})
	require.Len(t, attrs, 2)
	values := map[string]string{}
	for _, attr := range attrs {
		a := attr.(slog.Attr)
		values[a.Key] = a.Value.String()
	}
	require.Equal(t, RedactedValue, values["name"])
	require.Equal(t, "learn1xyz", values["learner"])
}
