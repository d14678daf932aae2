package qlog_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ygrebnov/qcore/qlog"
)

func TestErrReturnsEmptyAttrForNil(t *testing.T) {
	assert.True(t, qlog.Err(nil).Equal(slog.Attr{}))
}

func TestErrWrapsNonNilError(t *testing.T) {
	err := errors.New("boom")
	attr := qlog.Err(err)
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())
}

func TestQueueReturnsEmptyAttrForEmptyName(t *testing.T) {
	assert.True(t, qlog.Queue("").Equal(slog.Attr{}))
}

func TestDurationAttr(t *testing.T) {
	attr := qlog.Duration(5 * time.Second)
	assert.Equal(t, "duration", attr.Key)
}

func TestNewProducesJSONWhenConfigured(t *testing.T) {
	var buf bytes.Buffer
	log := qlog.New(qlog.WithJSONFormatter(), qlog.WithOutput(&buf), qlog.WithAttr(slog.String("service", "qcore")))
	log.Info("hello", qlog.Component("dispatcher"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"service":"qcore"`)
	assert.Contains(t, out, `"component":"dispatcher"`)
}

func TestNewDevelopmentIsTextAndDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log := qlog.New(qlog.WithDevelopment("qcore"), qlog.WithOutput(&buf))
	log.Debug("debugging")
	assert.Contains(t, buf.String(), "debugging")
}
