package l2d

import (
	"testing"

	"github.com/PCLC7Z2/lidar2dems/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type attrs map[string]string

func (a attrs) Attr(name string) (v string, ok bool) {
	v, ok = a[name]
	return
}

func TestClassParamsPresets(t *testing.T) {
	want := map[string]ClassParamsPair{
		"1": {1, 3},
		"2": {1, 2},
		"3": {5, 2},
		"4": {10, 2},
	}
	for code, pair := range want {
		got := ClassParams(attrs{"class": code}, nil, nil)
		assert.Equal(t, pair, got.ClassParamsPair, code)
		assert.Equal(t, ParamsPreset, got.Source, code)
		assert.NoError(t, got.Reason)
	}
}

func TestClassParamsFallback(t *testing.T) {
	var nilFeature *Feature
	for name, f := range map[string]AttrGetter{
		"nil":         nil,
		"nil feature": nilFeature,
		"no class":    attrs{"name": "x"},
		"unknown":     attrs{"class": "7"},
		"empty":       attrs{"class": ""},
	} {
		got := ClassParams(f, nil, nil)
		assert.Equal(t, ClassParamsPair{1, 3}, got.ClassParamsPair, name)
		assert.Equal(t, ParamsDefault, got.Source, name)
		assert.Error(t, got.Reason, name)
	}
}

func TestClassParamsOverrides(t *testing.T) {
	s, c := 2.5, 4.0
	got := ClassParams(attrs{"class": "4"}, &s, &c)
	assert.Equal(t, ClassParamsPair{2.5, 4}, got.ClassParamsPair)
	assert.Equal(t, ParamsOverride, got.Source)

	// 单个参数给定时，查到预设值则使用预设值
	got = ClassParams(attrs{"class": "4"}, &s, nil)
	assert.Equal(t, ClassParamsPair{10, 2}, got.ClassParamsPair)

	// 查找失败时保留已给定的参数
	got = ClassParams(nil, &s, nil)
	assert.Equal(t, ClassParamsPair{2.5, 3}, got.ClassParamsPair)
	got = ClassParams(attrs{}, nil, &c)
	assert.Equal(t, ClassParamsPair{1, 4}, got.ClassParamsPair)
	assert.Equal(t, "default", got.Source.String())
}

func TestClassParamsFallbackLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer log.ReplaceLogger(zap.New(core))()

	ClassParams(attrs{"class": "9"}, nil, nil)
	ClassParams(attrs{"class": "2"}, nil, nil)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
}
