package device

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_DesktopIsDefault(t *testing.T) {
	t.Setenv("NEXUS_DEVICE_PROFILE", "")
	info := Detect()
	if info.Profile != ProfileDesktop {
		t.Skip("host filesystem carries a mobile marker (termux/build.prop); skipping default-profile assertion")
	}
	assert.Equal(t, ProfileDesktop, info.Profile)
	assert.True(t, info.ImageGenEnabled)
	assert.Greater(t, info.ContextWindow, 0)
	assert.Greater(t, info.Threads, 0)
}

func TestDetect_MobileOverride(t *testing.T) {
	t.Setenv("NEXUS_DEVICE_PROFILE", "mobile")
	info := Detect()
	assert.Equal(t, ProfileMobile, info.Profile)
	assert.False(t, info.ImageGenEnabled)
	assert.Equal(t, 0, info.GPULayers)
	assert.LessOrEqual(t, info.Threads, 4)
}

func TestDetect_ExplicitDesktopOverrideWins(t *testing.T) {
	t.Setenv("NEXUS_DEVICE_PROFILE", "desktop")
	info := Detect()
	assert.Equal(t, ProfileDesktop, info.Profile)
}

func TestDetect_IsDeterministicForSameEnvironment(t *testing.T) {
	t.Setenv("NEXUS_DEVICE_PROFILE", "mobile")
	a := Detect()
	b := Detect()
	assert.Equal(t, a, b)
}

func TestHasPath_MissingPathIsFalse(t *testing.T) {
	assert.False(t, hasPath("/this/path/does/not/exist/nexus"))
}

func TestHasPath_ExistingPathIsTrue(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "nexus-device-*")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	assert.True(t, hasPath(f.Name()))
}
