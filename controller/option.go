package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/model"
	"github.com/jinzhu/copier"
)

// SettingsView 解析后的生效配置，token 只返回是否已设置
type SettingsView struct {
	URL              string     `json:"rpxy_url"`
	Model            string     `json:"model"`
	AdditionalPrompt string     `json:"additional_prompt"`
	NegativePrompt   string     `json:"negative_prompt"`
	Steps            int        `json:"steps"`
	Strength         [2]float64 `json:"strength"`
	AllowImage       bool       `json:"allow_image"`
	CollapseResponse bool       `json:"collapse_response"`
	TranslateModel   string     `json:"translate_model"`
	TokenSet         bool       `json:"token_set"`
}

func GetOptions(c *gin.Context) {
	var options []*model.Option
	config.OptionMapRWMutex.RLock()
	for k, v := range config.OptionMap {
		if model.IsSecretOption(k) {
			continue
		}
		options = append(options, &model.Option{Key: k, Value: v})
	}
	config.OptionMapRWMutex.RUnlock()

	settings := model.GetSettings()
	var view SettingsView
	if err := copier.Copy(&view, &settings); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	view.TokenSet = settings.Token != ""

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": gin.H{
			"options":  options,
			"settings": view,
		},
	})
}

func UpdateOption(c *gin.Context) {
	var option model.Option
	err := json.NewDecoder(c.Request.Body).Decode(&option)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "无效的参数",
		})
		return
	}
	if err := model.UpdateOption(option.Key, option.Value); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
	})
}
