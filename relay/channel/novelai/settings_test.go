package novelai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"默认配置", func(s *Settings) {}, false},
		{"v3 模型", func(s *Settings) { s.Model = ModelV3 }, false},
		{"未知模型", func(s *Settings) { s.Model = "nai-diffusion-2" }, true},
		{"空地址", func(s *Settings) { s.URL = "" }, true},
		{"步数为零", func(s *Settings) { s.Steps = 0 }, true},
		{"强度区间颠倒", func(s *Settings) { s.Strength = [2]float64{0.9, 0.1} }, true},
		{"强度区间相等", func(s *Settings) { s.Strength = [2]float64{0.5, 0.5} }, false},
		{"未知翻译", func(s *Settings) { s.TranslateModel = "google" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
