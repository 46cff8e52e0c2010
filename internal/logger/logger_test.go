package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"whiteboard-backend/internal/config"
)

func TestSetup_LevelAndFormat(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	Setup(config.LogConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)

	Setup(config.LogConfig{Level: "nonsense", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	_, ok = logrus.StandardLogger().Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestFor_TagsComponent(t *testing.T) {
	entry := For("relay")
	assert.Equal(t, "relay", entry.Data["component"])
}
