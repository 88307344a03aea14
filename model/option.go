package model

import (
	"strings"
	"time"

	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/common/logger"
)

type Option struct {
	Key   string `json:"key" gorm:"primaryKey"`
	Value string `json:"value"`
}

func AllOption() ([]*Option, error) {
	var options []*Option
	err := DB.Find(&options).Error
	return options, err
}

// InitOptionMap 先写入默认值，再用数据库中的记录覆盖
func InitOptionMap() {
	config.OptionMapRWMutex.Lock()
	config.OptionMap = defaultOptions()
	config.OptionMapRWMutex.Unlock()
	loadOptionsFromDatabase()
}

func loadOptionsFromDatabase() {
	options, err := AllOption()
	if err != nil {
		logger.SysError("failed to load options: " + err.Error())
		return
	}
	for _, option := range options {
		if err := updateOptionMap(option.Key, option.Value); err != nil {
			logger.SysError("failed to update option map: " + err.Error())
		}
	}
}

func SyncOptions(frequency int) {
	for {
		time.Sleep(time.Duration(frequency) * time.Second)
		logger.SysLog("syncing options from database")
		loadOptionsFromDatabase()
	}
}

// UpdateOption 校验通过后写入数据库与内存
func UpdateOption(key string, value string) error {
	if err := ValidateOption(key, value); err != nil {
		return err
	}
	option := Option{Key: key, Value: value}
	if err := DB.Save(&option).Error; err != nil {
		return err
	}
	return updateOptionMap(key, value)
}

func updateOptionMap(key string, value string) error {
	config.OptionMapRWMutex.Lock()
	defer config.OptionMapRWMutex.Unlock()
	if _, ok := config.OptionMap[key]; !ok {
		logger.SysLogf("ignoring unknown option %s", key)
		return nil
	}
	config.OptionMap[key] = value
	if key == OptionSensitiveWords {
		config.SensitiveWords = value
	}
	return nil
}

// IsSecretOption 含 token/secret 的配置项不会以明文返回
func IsSecretOption(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "token") || strings.Contains(lower, "secret")
}
