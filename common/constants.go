package common

import "time"

var StartTime = time.Now().Unix() // unit: second
var Version = "v0.0.0"            // this hard coding will be replaced automatically when building, no need to manually change

var SQLitePath = "novelai-bot.db"
var SQLiteBusyTimeout = 3000

var UsingSQLite = false
var UsingPostgreSQL = false
var UsingMySQL = false
