package api

import (
	"github.com/feedgram/feedgram/app/bot"
	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/tasks"
)

type Handler struct {
	channelRepo   database.ChannelRepository
	itemRepo      database.ItemRepository
	scheduler     tasks.TaskSchedulerInterface
	bot           *bot.Handler
	webhookSecret string
}
