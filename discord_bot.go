package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier posts scrape run summaries to a set of channels. It is
// entirely optional: with no token or channels configured, NewDiscordNotifier
// returns nil and every notify call is a no-op.
type DiscordNotifier struct {
	session    *discordgo.Session
	channelIDs []string
}

func NewDiscordNotifier() *DiscordNotifier {
	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	channelIDsStr := os.Getenv("DISCORD_CHANNEL_IDS")

	if botToken == "" {
		log.Println("⚠️ [Discord] DISCORD_BOT_TOKEN not set. Notifications disabled.")
		return nil
	}
	if channelIDsStr == "" {
		log.Println("⚠️ [Discord] DISCORD_CHANNEL_IDS not set. Notifications disabled.")
		return nil
	}

	var channelIDs []string
	for _, id := range strings.Split(channelIDsStr, ",") {
		if trimmedID := strings.TrimSpace(id); trimmedID != "" {
			channelIDs = append(channelIDs, trimmedID)
		}
	}
	if len(channelIDs) == 0 {
		log.Println("⚠️ [Discord] No valid channel IDs found in DISCORD_CHANNEL_IDS. Notifications disabled.")
		return nil
	}

	dg, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Printf("❌ [Discord] Error creating Discord session: %v", err)
		return nil
	}

	log.Printf("🤖 [Discord] Notifier ready, posting to %d channel(s).", len(channelIDs))
	return &DiscordNotifier{session: dg, channelIDs: channelIDs}
}

func (n *DiscordNotifier) send(message string) {
	if n == nil {
		return
	}
	for _, channelID := range n.channelIDs {
		if _, err := n.session.ChannelMessageSend(channelID, message); err != nil {
			log.Printf("❌ [Discord] Failed to post to channel %s: %v", channelID, err)
		}
	}
}

// NotifyMobRange posts a one-line summary of a mob range scrape.
func (n *DiscordNotifier) NotifyMobRange(report MobRangeReport) {
	n.send(fmt.Sprintf(
		"🗡️ Mob scrape %d..%d finished: **%d** scraped, %d skipped, %d missing, %d failed.",
		report.FromID, report.ToID, report.Scraped, report.Skipped, report.Missing, report.Failed))
}

// NotifyContainerBatch posts the per-run container totals, listing any
// container that failed.
func (n *DiscordNotifier) NotifyContainerBatch(batch ContainerBatchReport) {
	var failed []string
	for _, report := range batch.Containers {
		if report.Err != "" {
			failed = append(failed, report.Name)
		}
	}

	message := fmt.Sprintf(
		"📦 Container scrape finished: **%d** ok, %d failed, %d items found, %d processed, %d skipped.",
		batch.Successful, batch.Failed, batch.TotalFound, batch.TotalProcessed, batch.TotalSkipped)
	if len(failed) > 0 {
		message += "\nFailed: " + strings.Join(failed, ", ")
	}
	n.send(message)
}
