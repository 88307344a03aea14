package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gouqi/novelai-bot/common/config"
	"github.com/gouqi/novelai-bot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Option{}, &model.Log{}))

	previousWords := config.SensitiveWords
	model.DB = db
	model.InitOptionMap()
	t.Cleanup(func() {
		_ = sqlDB.Close()
		model.DB = nil
		config.SensitiveWords = previousWords
	})
}

func serve(t *testing.T, method, target, body string, handler gin.HandlerFunc) apiResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Handle(method, "/", handler)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestGetStatus(t *testing.T) {
	previous := BotStatus
	BotStatus = func() (bool, string) { return true, "123456" }
	t.Cleanup(func() { BotStatus = previous })

	resp := serve(t, http.MethodGet, "/", "", GetStatus)
	require.True(t, resp.Success)
	var data map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, true, data["onebot_connected"])
	assert.Equal(t, "123456", data["self_id"])
	assert.Equal(t, config.SystemName, data["system_name"])
}

func TestOptions(t *testing.T) {
	setupTestDB(t)

	resp := serve(t, http.MethodPut, "/", `{"key":"token","value":"pst-abc"}`, UpdateOption)
	require.True(t, resp.Success, resp.Message)
	resp = serve(t, http.MethodPut, "/", `{"key":"steps","value":"40"}`, UpdateOption)
	require.True(t, resp.Success, resp.Message)

	resp = serve(t, http.MethodPut, "/", `{"key":"steps","value":"0"}`, UpdateOption)
	assert.False(t, resp.Success)
	resp = serve(t, http.MethodPut, "/", `{"key":"unknown","value":"1"}`, UpdateOption)
	assert.False(t, resp.Success)

	resp = serve(t, http.MethodGet, "/", "", GetOptions)
	require.True(t, resp.Success, resp.Message)
	var data struct {
		Options  []model.Option `json:"options"`
		Settings SettingsView   `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	for _, option := range data.Options {
		assert.NotEqual(t, "token", option.Key)
	}
	assert.NotContains(t, string(resp.Data), "pst-abc")
	assert.True(t, data.Settings.TokenSet)
	assert.Equal(t, 40, data.Settings.Steps)
	assert.Equal(t, [2]float64{0.88, 0.93}, data.Settings.Strength)
}

func TestUpdateOptionBadBody(t *testing.T) {
	setupTestDB(t)
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.PUT("/", UpdateOption)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLogs(t *testing.T) {
	setupTestDB(t)
	for _, userId := range []string{"1", "2", "1"} {
		require.NoError(t, model.DB.Create(&model.Log{UserId: userId, ModelName: "nai-diffusion-3", CreatedAt: 100}).Error)
	}

	resp := serve(t, http.MethodGet, "/?user_id=1&pagesize=1", "", GetLogs)
	require.True(t, resp.Success, resp.Message)
	var data struct {
		List        []model.Log `json:"list"`
		CurrentPage int         `json:"currentPage"`
		Total       int64       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.EqualValues(t, 2, data.Total)
	assert.Equal(t, 1, data.CurrentPage)
	require.Len(t, data.List, 1)
	assert.Equal(t, 3, data.List[0].Id)
}
