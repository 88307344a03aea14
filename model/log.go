package model

import (
	"context"
	"fmt"

	"github.com/gouqi/novelai-bot/common/helper"
	"github.com/gouqi/novelai-bot/common/logger"
	"gorm.io/gorm"
)

// Log 一次生图调用的记录
type Log struct {
	Id        int     `json:"id"`
	RequestId string  `json:"request_id" gorm:"index;default:''"`
	CreatedAt int64   `json:"created_at" gorm:"bigint;index"`
	UserId    string  `json:"user_id" gorm:"index;default:''"`
	ChannelId string  `json:"channel_id" gorm:"default:''"`
	ModelName string  `json:"model_name" gorm:"index;default:''"`
	Action    string  `json:"action" gorm:"default:''"`
	Prompt    string  `json:"prompt"`
	Strength  string  `json:"strength" gorm:"default:''"`
	Success   bool    `json:"success"`
	Content   string  `json:"content"`
	Duration  float64 `json:"duration" gorm:"default:0"`
}

func RecordGenerationLog(ctx context.Context, log *Log) {
	logger.Info(ctx, fmt.Sprintf("record generation log: userId=%s, channelId=%s, model=%s, action=%s, strength=%s, success=%t, duration=%.2fs",
		log.UserId, log.ChannelId, log.ModelName, log.Action, log.Strength, log.Success, log.Duration))
	if DB == nil {
		return
	}
	if log.CreatedAt == 0 {
		log.CreatedAt = helper.GetTimestamp()
	}
	if id := ctx.Value(logger.RequestIdKey); id != nil && log.RequestId == "" {
		log.RequestId = fmt.Sprintf("%v", id)
	}
	if err := DB.Create(log).Error; err != nil {
		logger.Error(ctx, "failed to record log: "+err.Error())
	}
}

func GetLogsAndCount(userId string, modelName string, startTimestamp int64, endTimestamp int64, page int, pageSize int) (logs []*Log, total int64, err error) {
	var tx *gorm.DB = DB

	if userId != "" {
		tx = tx.Where("user_id = ?", userId)
	}
	if modelName != "" {
		tx = tx.Where("model_name = ?", modelName)
	}
	if startTimestamp != 0 {
		tx = tx.Where("created_at >= ?", startTimestamp)
	}
	if endTimestamp != 0 {
		tx = tx.Where("created_at <= ?", endTimestamp)
	}

	// 首先计算满足条件的总数
	err = tx.Model(&Log{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	// 计算起始索引。第一页的起始索引为0。
	offset := (page - 1) * pageSize

	err = tx.Order("id desc").Limit(pageSize).Offset(offset).Find(&logs).Error
	if err != nil {
		return nil, total, err
	}
	return logs, total, nil
}
