package novelai

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// Settings 插件配置，每次调用时从持久化设置中重新读取，调用期间不可变
type Settings struct {
	URL              string     `json:"rpxy_url" validate:"required,url"`
	Token            string     `json:"token"`
	Model            string     `json:"model" validate:"oneof=nai-diffusion-3 nai-diffusion-4-full"`
	AdditionalPrompt string     `json:"additional_prompt"`
	NegativePrompt   string     `json:"negative_prompt"`
	Steps            int        `json:"steps" validate:"min=1"`
	Strength         [2]float64 `json:"strength"`
	AllowImage       bool       `json:"allow_image"`
	CollapseResponse bool       `json:"collapse_response"`
	TranslateModel   string     `json:"translate_model" validate:"oneof=none default_translator translator_yd"`
}

func DefaultSettings() Settings {
	return Settings{
		URL:              DefaultURL,
		Token:            "",
		Model:            ModelV4,
		AdditionalPrompt: DefaultAdditionalPrompt,
		NegativePrompt:   DefaultNegativePrompt,
		Steps:            DefaultSteps,
		Strength:         [2]float64{DefaultStrengthMin, DefaultStrengthMax},
		AllowImage:       true,
		CollapseResponse: true,
		TranslateModel:   TranslateNone,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func settingsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(func(sl validator.StructLevel) {
			s := sl.Current().Interface().(Settings)
			if s.Strength[0] > s.Strength[1] {
				sl.ReportError(s.Strength, "Strength", "strength", "strength_range", "")
			}
		}, Settings{})
	})
	return validate
}

func (s Settings) Validate() error {
	return settingsValidator().Struct(s)
}
