package volcast

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut, "volcast", false)

	l.Debugf("hidden %d", 1)
	l.Infof("ready %s", "now")
	l.Warnf("careful")
	l.Errorf("broken")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[volcast] INFO: ready now")
	assert.Contains(t, errOut.String(), "[volcast] WARN: careful")
	assert.Contains(t, errOut.String(), "[volcast] ERROR: broken")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	assert.Contains(t, out.String(), "DEBUG: shown 2")
}

func TestDefaultLogger_NoPrefix(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo(&out, &out, "", false)
	l.Infof("plain")
	assert.Contains(t, out.String(), "INFO: plain")
	assert.NotContains(t, out.String(), "[")
}

func TestDefaultLogger_Named(t *testing.T) {
	var out bytes.Buffer
	root := NewLoggerTo(&out, &out, "volrt", false)
	child := root.Named("mapper")
	child.Infof("ready")
	assert.Contains(t, out.String(), "[volrt/mapper] INFO: ready")

	root.SetDebug(true)
	assert.True(t, child.DebugEnabled(), "children share the debug switch")

	NewLoggerTo(&out, &out, "", false).Named("solo").Warnf("x")
	assert.Contains(t, out.String(), "[solo] WARN: x")
}

func TestOrNop(t *testing.T) {
	l := orNop(nil)
	assert.NotNil(t, l)
	assert.False(t, l.DebugEnabled())
	l.Infof("discarded")
	assert.NotNil(t, l.Named("x"))
}
