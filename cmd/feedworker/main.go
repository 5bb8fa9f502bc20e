// cmd/feedworker/main.go is an asynchronous worker that drains the message
// feed queue from Redis, tracks per-conversation activity, and prunes old
// messages from conversations that have gone idle.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/amityhq/amity/internal/cache"
	"github.com/amityhq/amity/internal/config"
	"github.com/amityhq/amity/internal/database"
)

// FeedWorker encapsulates the Redis + DB logic for consuming published
// messages and applying the retention policy.
type FeedWorker struct {
	feed      *cache.MessageFeed
	store     *database.MessageStore
	logger    *logrus.Logger
	retention time.Duration
	idleAfter time.Duration

	lastActivity sync.Map // map[string]time.Time per conversation

	ctx      context.Context
	cancelFn context.CancelFunc
}

func NewFeedWorker(feed *cache.MessageFeed, store *database.MessageStore, logger *logrus.Logger, retention, idleAfter time.Duration) *FeedWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &FeedWorker{
		feed:      feed,
		store:     store,
		logger:    logger,
		retention: retention,
		idleAfter: idleAfter,
		ctx:       ctx,
		cancelFn:  cancel,
	}
}

// Run starts the two main loops:
//  1. A loop that drains the feed queue and records last activity per
//     conversation.
//  2. A periodic retention pass over conversations that have gone idle.
func (fw *FeedWorker) Run() {
	go fw.readFeedLoop()
	go fw.retentionLoop()

	fw.logger.Info("feed worker started")
	<-fw.ctx.Done()
	fw.logger.Info("feed worker shutting down")
}

// readFeedLoop continuously uses BLPop to retrieve messages from the queue.
func (fw *FeedWorker) readFeedLoop() {
	for {
		select {
		case <-fw.ctx.Done():
			return
		default:
			// A short timeout keeps context cancellation responsive.
			msg, err := fw.feed.PopMessage(fw.ctx, 3*time.Second)
			if err != nil {
				if fw.ctx.Err() != nil {
					return
				}
				fw.logger.WithError(err).Error("failed to pop feed entry")
				continue
			}
			if msg == nil {
				continue
			}

			fw.lastActivity.Store(msg.ConversationID, time.Now())
			fw.logger.WithFields(logrus.Fields{
				"conversation_id": msg.ConversationID,
				"message_id":      msg.ID,
			}).Debug("feed entry consumed")
		}
	}
}

// retentionLoop periodically finds conversations idle beyond the threshold
// and prunes their messages older than the retention window.
func (fw *FeedWorker) retentionLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			fw.lastActivity.Range(func(key, val interface{}) bool {
				conversationID, ok1 := key.(string)
				last, ok2 := val.(time.Time)
				if ok1 && ok2 && now.Sub(last) > fw.idleAfter {
					fw.pruneConversation(conversationID, now.Add(-fw.retention))
					fw.lastActivity.Delete(conversationID)
				}
				return true
			})
		}
	}
}

func (fw *FeedWorker) pruneConversation(conversationID string, cutoff time.Time) {
	pruned, err := fw.store.PruneBefore(context.Background(), conversationID, cutoff)
	if err != nil {
		fw.logger.WithError(err).WithField("conversation_id", conversationID).Error("retention prune failed")
		return
	}
	if pruned > 0 {
		fw.logger.WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"pruned":          pruned,
		}).Info("pruned expired messages")
	}
}

// Stop gracefully stops the worker.
func (fw *FeedWorker) Stop() {
	fw.cancelFn()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR must be set for the feed worker")
	}

	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	feed, err := cache.NewMessageFeed(cfg.RedisAddr, cfg.RedisDB, cfg.MessageFeedQueue)
	if err != nil {
		logger.Fatalf("failed to connect to redis: %v", err)
	}
	defer feed.Close()

	worker := NewFeedWorker(feed, database.NewMessageStore(pool), logger, cfg.MessageRetention, cfg.ConversationIdleAfter)
	go worker.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	worker.Stop()
	logger.Info("feed worker shutdown complete")
}
