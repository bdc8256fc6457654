package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigFixedFields(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, "jst", cfg.DayBasis)
	assert.Equal(t, DefaultLatitude, cfg.DefaultLatitude)
	assert.Equal(t, DefaultLongitude, cfg.DefaultLongitude)
}

func TestLoadEphemerisPrecedence(t *testing.T) {
	os.Unsetenv(envEphemerisPath)
	os.Unsetenv(envEphemerisName)

	cfg, err := Load(context.Background(), Options{})
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("data", DefaultEphemerisFilename), cfg.EphemerisPath)

	cfg, err = Load(context.Background(), Options{EphemerisName: "custom.bsp"})
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "custom.bsp"), cfg.EphemerisPath)

	os.Setenv(envEphemerisName, "env-name.bsp")
	defer os.Unsetenv(envEphemerisName)
	cfg, err = Load(context.Background(), Options{})
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "env-name.bsp"), cfg.EphemerisPath)

	cfg, err = Load(context.Background(), Options{EphemerisName: "request-name.bsp"})
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "request-name.bsp"), cfg.EphemerisPath)

	os.Setenv(envEphemerisPath, "/opt/ephem/custom.bsp")
	defer os.Unsetenv(envEphemerisPath)
	cfg, err = Load(context.Background(), Options{})
	assert.NoError(t, err)
	assert.Equal(t, "/opt/ephem/custom.bsp", cfg.EphemerisPath)

	cfg, err = Load(context.Background(), Options{EphemerisPath: "/explicit/path.bsp"})
	assert.NoError(t, err)
	assert.Equal(t, "/explicit/path.bsp", cfg.EphemerisPath)
}
