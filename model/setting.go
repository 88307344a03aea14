package model

import (
	"encoding/json"
	"strconv"

	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/common/logger"
	"github.com/gouqi/novelai-bot/relay/channel/novelai"
	"github.com/pkg/errors"
)

const (
	OptionURL              = "rpxy_url"
	OptionToken            = "token"
	OptionModel            = "model"
	OptionAdditionalPrompt = "additional_prompt"
	OptionNegativePrompt   = "negative_prompt"
	OptionSteps            = "steps"
	OptionStrength         = "strength"
	OptionAllowImage       = "allow_image"
	OptionCollapseResponse = "collapse_response"
	OptionTranslateModel   = "translate_model"
	OptionSensitiveWords   = "sensitive_words"
)

func defaultOptions() map[string]string {
	s := novelai.DefaultSettings()
	strength, _ := json.Marshal(s.Strength)
	return map[string]string{
		OptionURL:              s.URL,
		OptionToken:            s.Token,
		OptionModel:            s.Model,
		OptionAdditionalPrompt: s.AdditionalPrompt,
		OptionNegativePrompt:   s.NegativePrompt,
		OptionSteps:            strconv.Itoa(s.Steps),
		OptionStrength:         string(strength),
		OptionAllowImage:       strconv.FormatBool(s.AllowImage),
		OptionCollapseResponse: strconv.FormatBool(s.CollapseResponse),
		OptionTranslateModel:   s.TranslateModel,
		OptionSensitiveWords:   config.SensitiveWords,
	}
}

// parseSettings 从配置项构造 Settings，缺失的字段使用默认值
func parseSettings(options map[string]string) (novelai.Settings, error) {
	s := novelai.DefaultSettings()
	for key, value := range options {
		var err error
		switch key {
		case OptionURL:
			s.URL = value
		case OptionToken:
			s.Token = value
		case OptionModel:
			s.Model = value
		case OptionAdditionalPrompt:
			s.AdditionalPrompt = value
		case OptionNegativePrompt:
			s.NegativePrompt = value
		case OptionTranslateModel:
			s.TranslateModel = value
		case OptionSteps:
			s.Steps, err = strconv.Atoi(value)
		case OptionAllowImage:
			s.AllowImage, err = strconv.ParseBool(value)
		case OptionCollapseResponse:
			s.CollapseResponse, err = strconv.ParseBool(value)
		case OptionStrength:
			err = json.Unmarshal([]byte(value), &s.Strength)
		}
		if err != nil {
			return s, errors.Wrapf(err, "invalid value for %s", key)
		}
	}
	return s, nil
}

// GetSettings 每次调用都返回一份新的 Settings
func GetSettings() novelai.Settings {
	config.OptionMapRWMutex.RLock()
	options := make(map[string]string, len(config.OptionMap))
	for k, v := range config.OptionMap {
		options[k] = v
	}
	config.OptionMapRWMutex.RUnlock()

	s, err := parseSettings(options)
	if err != nil {
		logger.SysError("failed to parse settings, using defaults: " + err.Error())
		return novelai.DefaultSettings()
	}
	return s
}

// ValidateOption 校验修改后的整份配置
func ValidateOption(key string, value string) error {
	config.OptionMapRWMutex.RLock()
	options := make(map[string]string, len(config.OptionMap))
	for k, v := range config.OptionMap {
		options[k] = v
	}
	config.OptionMapRWMutex.RUnlock()

	if _, ok := options[key]; !ok {
		return errors.Errorf("unknown option %s", key)
	}
	options[key] = value
	s, err := parseSettings(options)
	if err != nil {
		return err
	}
	return s.Validate()
}
