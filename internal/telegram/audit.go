// Package telegram forwards ownership-change events to an operations chat
// on Telegram. Delivery is fire-and-forget: the audit trail of record is
// the OwnershipChanged stream itself, this is a convenience mirror.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"voicepods/backend/internal/config"
	"voicepods/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
)

// AuditService subscribes to the ownership-change channel and posts one
// line per transfer into the configured ops chat.
type AuditService struct {
	BotAPI    *tgbotapi.BotAPI
	Redis     *redis.Client
	OpsChatID int64
}

// NewAuditService creates the forwarder. The token must belong to a bot
// already present in the ops chat.
func NewAuditService(token string, rdb *redis.Client, opsChatID int64) (*AuditService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("Audit forwarder authorized on account %s", bot.Self.UserName)

	return &AuditService{
		BotAPI:    bot,
		Redis:     rdb,
		OpsChatID: opsChatID,
	}, nil
}

// Run blocks on the Redis subscription, forwarding each decoded event.
func (s *AuditService) Run() {
	ctx := context.Background()
	pubsub := s.Redis.Subscribe(ctx, config.OwnershipChangedChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var event models.OwnershipChangedEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("Error decoding ownership event: %v", err)
			continue
		}
		s.forward(event)
	}
}

func (s *AuditService) forward(event models.OwnershipChangedEvent) {
	text := fmt.Sprintf("pod %s: owner %s -> %s (%s)",
		event.RoomID, event.OldOwner, event.NewOwner, event.Reason)
	msg := tgbotapi.NewMessage(s.OpsChatID, text)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("WARNING: audit forward failed: %v", err)
	}
}
